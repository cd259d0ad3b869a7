package scoring

// Variant selects how hands are scored.
type Variant string

const (
	// VariantContract is Belote/Coinche with a bid, escalation and a contract to fulfil.
	VariantContract Variant = "contract"
	// VariantPlain scores trick points as played, with no bid.
	VariantPlain Variant = "plain"
)

// Default target scores per variant.
const (
	DefaultContractTarget = 1000
	DefaultPlainTarget    = 501
)

// Rules is the configuration surface read by the engine. A match snapshots
// it at creation.
type Rules struct {
	Topology             Topology `json:"topology"`
	Variant              Variant  `json:"variant"`
	TargetScore          int      `json:"target_score"`
	AnnouncementsEnabled bool     `json:"announcements_enabled"`
}

// Validate rejects configurations the engine cannot score.
func (r Rules) Validate() error {
	if !r.Topology.Valid() {
		return invalid(InvUnknownTopology, "unsupported table size %d", r.Topology)
	}
	switch r.Variant {
	case VariantContract, VariantPlain:
	default:
		return invalid(InvUnknownVariant, "unknown variant %q", r.Variant)
	}
	if r.TargetScore <= 0 {
		return invalid(InvTargetScore, "target score must be positive")
	}
	return nil
}

// DefaultTarget returns the customary target for a variant.
func DefaultTarget(v Variant) int {
	if v == VariantPlain {
		return DefaultPlainTarget
	}
	return DefaultContractTarget
}
