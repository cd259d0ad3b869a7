package scoring

import "time"

// BidInput is the contract as entered by the operator.
type BidInput struct {
	Value         int        `json:"value"`
	Suit          Suit       `json:"suit"`
	Escalation    Escalation `json:"escalation"`
	CoincherID    string     `json:"coincher_id,omitempty"`
	SurcoincherID string     `json:"surcoincher_id,omitempty"`
}

// PenaltyInput is a penalty as entered. ID and Timestamp are carried through
// unchanged so re-scoring a hand reproduces it exactly.
type PenaltyInput struct {
	ID        string    `json:"id,omitempty"`
	PlayerID  string    `json:"player_id"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason,omitempty"`
	AppliedBy string    `json:"applied_by,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// HandInput is everything the operator enters for one hand.
type HandInput struct {
	TakerID            string                  `json:"taker_id,omitempty"`
	Bid                *BidInput               `json:"bid,omitempty"`
	RawPoints          RawPoints               `json:"raw_points"`
	CapotDeclared      bool                    `json:"capot_declared"`
	CapotSide          Side                    `json:"capot_side,omitempty"`
	BeloteDeclarations map[Side]int            `json:"belote_declarations,omitempty"`
	Announcements      map[Side][]Announcement `json:"announcements,omitempty"`
	Penalties          []PenaltyInput          `json:"penalties,omitempty"`
	IsEdit             bool                    `json:"is_edit,omitempty"`
	PriorHandID        string                  `json:"prior_hand_id,omitempty"`
}

// Preview is the recomputed state of a pending hand.
type Preview struct {
	ContractSide Side         `json:"contract_side,omitempty"`
	CoincheSide  Side         `json:"coinche_side,omitempty"`
	Bid          *Bid         `json:"bid,omitempty"`
	RawPoints    RawPoints    `json:"raw_points"`
	Bonus        map[Side]int `json:"bonus"`
	Belote       map[Side]int `json:"belote"`
	Effective    int          `json:"effective,omitempty"`
	Fulfilled    *bool        `json:"fulfilled"`
	Deltas       map[Side]int `json:"deltas"`
	HandWinner   Side         `json:"hand_winner,omitempty"`
	Penalties    []Penalty    `json:"penalties"`
}

// Recompute derives bonuses, fulfilment and deltas from the current input.
// It is pure: call it again whenever any input field changes.
func Recompute(rules Rules, table Table, in HandInput) (*Preview, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if table.Topology != rules.Topology {
		return nil, invalid(InvUnknownTopology, "table seats %d players, rules expect %d", table.Topology, rules.Topology)
	}
	t := rules.Topology

	bc, err := resolveBid(rules, table, in)
	if err != nil {
		return nil, err
	}

	raw, capotSide, err := resolveRawPoints(t, in)
	if err != nil {
		return nil, err
	}

	var suit Suit
	if bid, ok := bc.Bid(); ok {
		suit = bid.Suit
	}
	bonus, belote, err := Bonuses(rules, suit, in.BeloteDeclarations, in.Announcements)
	if err != nil {
		return nil, err
	}

	penalties, err := resolvePenalties(table, in.Penalties)
	if err != nil {
		return nil, err
	}

	p := &Preview{RawPoints: raw, Bonus: bonus, Belote: belote, Penalties: penalties}

	bid, hasBid := bc.Bid()
	if !hasBid {
		p.Deltas, p.HandWinner = ComposePlain(t, raw, bonus, capotSide, penalties)
		return p, nil
	}

	contractSide, _ := bc.ContractSide()
	coincheSide, _ := bc.CoincheSide()
	fulfilled := EvaluateContract(t, bid, contractSide, raw, bonus, capotSide)

	p.ContractSide = contractSide
	p.CoincheSide = coincheSide
	p.Bid = &bid
	p.Effective = Effective(contractSide, raw, bonus, capotSide)
	p.Fulfilled = &fulfilled
	p.Deltas = Compose(Composition{
		Topology:     t,
		ContractSide: contractSide,
		CoincheSide:  coincheSide,
		Bid:          bid,
		Fulfilled:    fulfilled,
		Raw:          raw,
		Bonus:        bonus,
		CapotSide:    capotSide,
		Penalties:    penalties,
	})
	return p, nil
}

// resolveBid replays the operator's choices through a BidContext so every
// escalation rule is enforced in one place.
func resolveBid(rules Rules, table Table, in HandInput) (*BidContext, error) {
	bc := NewBidContext(table)
	if rules.Variant == VariantPlain {
		if in.Bid != nil || in.TakerID != "" {
			return nil, invalid(InvBidInPlainVariant, "plain scoring takes no bid")
		}
		return bc, nil
	}
	if in.Bid == nil {
		return nil, invalid(InvMissingBid, "contract scoring needs a bid")
	}
	if in.TakerID == "" {
		return nil, invalid(InvMissingTaker, "a bid needs a taker")
	}
	if err := bc.SelectTaker(in.TakerID); err != nil {
		return nil, err
	}
	if err := bc.SetBid(in.Bid.Value, in.Bid.Suit); err != nil {
		return nil, err
	}
	switch in.Bid.Escalation.normalize() {
	case EscalationNone:
	case EscalationCoinched:
		if err := bc.Coinche(in.Bid.CoincherID); err != nil {
			return nil, err
		}
	case EscalationSurcoinched:
		if in.Bid.CoincherID == "" && len(rules.Topology.Opponents(bc.contractSide)) > 1 {
			return nil, invalid(InvSurcoincheNoCoinche, "name the coincher before the surcoinche")
		}
		if err := bc.Coinche(in.Bid.CoincherID); err != nil {
			return nil, err
		}
		if err := bc.Surcoinche(in.Bid.SurcoincherID); err != nil {
			return nil, err
		}
	default:
		return nil, invalid(InvUnknownEscalation, "unknown escalation %q", in.Bid.Escalation)
	}
	return bc, nil
}

// resolveRawPoints clamps entries and checks the pool total. A declared capot
// replaces the entries with the capot distribution.
func resolveRawPoints(t Topology, in HandInput) (RawPoints, Side, error) {
	if in.CapotDeclared {
		if in.CapotSide == "" {
			return nil, "", invalid(InvCapotSideMissing, "capot declared without a side")
		}
		if !t.HasSide(in.CapotSide) {
			return nil, "", invalid(InvUnknownSide, "unknown capot side %q", in.CapotSide)
		}
		return CapotPoints(t, in.CapotSide), in.CapotSide, nil
	}

	raw := make(RawPoints, len(t.Sides()))
	for _, side := range t.Sides() {
		raw[side] = 0
	}
	for side, v := range in.RawPoints {
		if !t.HasSide(side) {
			return nil, "", invalid(InvUnknownSide, "raw points for unknown side %q", side)
		}
		raw[side] = ClampRawPoints(v)
	}
	if sum := raw.Sum(); sum != t.PoolTotal() {
		return nil, "", invalid(InvRawPointsTotal, "raw points sum to %d, expected %d", sum, t.PoolTotal())
	}
	return raw, "", nil
}

// HandMeta identifies a hand within its match. The tracker supplies it.
type HandMeta struct {
	ID          string
	Number      int
	DealerID    string
	DealerIndex int
}

// HandResult is the engine's output for one hand. It is immutable once stored;
// edits re-run Score and replace it.
type HandResult struct {
	ID                string                  `json:"id"`
	HandNumber        int                     `json:"hand_number"`
	DealerID          string                  `json:"dealer_id"`
	DealerIndex       int                     `json:"dealer_index"`
	TakerID           string                  `json:"taker_id,omitempty"`
	ContractSide      Side                    `json:"contract_side,omitempty"`
	CoincheSide       Side                    `json:"coinche_side,omitempty"`
	Bid               *Bid                    `json:"bid,omitempty"`
	ContractFulfilled *bool                   `json:"contract_fulfilled"`
	RawPoints         RawPoints               `json:"raw_points"`
	Bonus             map[Side]int            `json:"bonus"`
	Belote            map[Side]int            `json:"belote"`
	Announcements     map[Side][]Announcement `json:"announcements,omitempty"`
	Deltas            map[Side]int            `json:"deltas"`
	Capot             bool                    `json:"capot"`
	CapotSide         Side                    `json:"capot_side,omitempty"`
	BeloteSides       []Side                  `json:"belote_sides,omitempty"`
	HandWinner        Side                    `json:"hand_winner,omitempty"`
	Penalties         []Penalty               `json:"penalties"`
	Input             HandInput               `json:"input"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// Score validates the input and produces the hand's result.
func Score(rules Rules, table Table, in HandInput, meta HandMeta) (*HandResult, error) {
	p, err := Recompute(rules, table, in)
	if err != nil {
		return nil, err
	}

	var beloteSides []Side
	for _, side := range rules.Topology.Sides() {
		if p.Belote[side] > 0 {
			beloteSides = append(beloteSides, side)
		}
	}

	h := &HandResult{
		ID:                meta.ID,
		HandNumber:        meta.Number,
		DealerID:          meta.DealerID,
		DealerIndex:       meta.DealerIndex,
		ContractSide:      p.ContractSide,
		CoincheSide:       p.CoincheSide,
		Bid:               p.Bid,
		ContractFulfilled: p.Fulfilled,
		RawPoints:         p.RawPoints,
		Bonus:             p.Bonus,
		Belote:            p.Belote,
		Announcements:     in.Announcements,
		Deltas:            p.Deltas,
		Capot:             in.CapotDeclared,
		CapotSide:         in.CapotSide,
		BeloteSides:       beloteSides,
		HandWinner:        p.HandWinner,
		Penalties:         p.Penalties,
		Input:             in,
	}
	h.Input.IsEdit = false
	h.Input.PriorHandID = ""
	if p.Bid != nil {
		h.TakerID = p.Bid.TakerID
	}
	if !h.Capot {
		h.CapotSide = ""
	}
	return h, nil
}

// Celebration names a presentation collaborator triggered by a hand.
type Celebration string

const (
	CelebrateCapot             Celebration = "capot"
	CelebrateCoincheSuccess    Celebration = "coinche_success"
	CelebrateSurcoincheSuccess Celebration = "surcoinche_success"
)

// Celebrations lists what the hand should trigger, in display order.
func (h HandResult) Celebrations() []Celebration {
	var out []Celebration
	if h.Capot {
		out = append(out, CelebrateCapot)
	}
	if h.Bid != nil && h.ContractFulfilled != nil {
		switch h.Bid.Escalation {
		case EscalationCoinched:
			if !*h.ContractFulfilled {
				out = append(out, CelebrateCoincheSuccess)
			}
		case EscalationSurcoinched:
			if *h.ContractFulfilled {
				out = append(out, CelebrateSurcoincheSuccess)
			}
		}
	}
	return out
}
