package scoring

// Suit is the trump mode named by a bid.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
	NoTrump  Suit = "no_trump"
	AllTrump Suit = "all_trump"
)

// Valid reports whether s is a known trump mode.
func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades, NoTrump, AllTrump:
		return true
	}
	return false
}

// Escalation is the doubling state of a contract.
type Escalation string

const (
	EscalationNone        Escalation = "none"
	EscalationCoinched    Escalation = "coinched"
	EscalationSurcoinched Escalation = "surcoinched"
)

func (e Escalation) normalize() Escalation {
	if e == "" {
		return EscalationNone
	}
	return e
}

func (e Escalation) rank() int {
	switch e.normalize() {
	case EscalationNone:
		return 0
	case EscalationCoinched:
		return 1
	case EscalationSurcoinched:
		return 2
	}
	return -1
}

// Multiplier scales the bid value term of a contract.
func (e Escalation) Multiplier() int {
	switch e.normalize() {
	case EscalationCoinched:
		return 2
	case EscalationSurcoinched:
		return 3
	}
	return 1
}

// Bid values.
const (
	MinBidValue = 80
	MaxBidValue = 180
	CapotBid    = 250
	GeneralBid  = 500

	// Bids above this are all-or-nothing: they need the whole capot pool.
	capotClassThreshold = 300
)

// ValidBidValue reports whether v is a presentable bid.
func ValidBidValue(v int) bool {
	return (v >= MinBidValue && v <= MaxBidValue) || v == CapotBid || v == GeneralBid
}

// Bid is a contract with its escalation participants.
type Bid struct {
	Value         int        `json:"value"`
	Suit          Suit       `json:"suit"`
	TakerID       string     `json:"taker_id"`
	Escalation    Escalation `json:"escalation"`
	CoincherID    string     `json:"coincher_id,omitempty"`
	SurcoincherID string     `json:"surcoincher_id,omitempty"`
}

// IsCapotClass reports whether fulfilment requires the full capot pool.
func (b Bid) IsCapotClass() bool {
	return b.Value > capotClassThreshold
}

// Threshold is the effective score the contract side needs.
func (b Bid) Threshold() int {
	if b.IsCapotClass() {
		return CapotTotal
	}
	return b.Value
}

// BidContext normalizes who holds the contract and how far it has been doubled.
// Escalation only moves forward: none, coinched, surcoinched. A new declarant at
// the same level replaces the previous one.
type BidContext struct {
	table        Table
	takerID      string
	contractSide Side
	bid          *Bid
	coincheSide  Side
}

// NewBidContext starts an empty context for the given table.
func NewBidContext(table Table) *BidContext {
	return &BidContext{table: table}
}

// SelectTaker sets the taker. Choosing a different taker drops the current bid.
func (c *BidContext) SelectTaker(playerID string) error {
	side, ok := c.table.SideOf(playerID)
	if !ok {
		return invalid(InvUnknownPlayer, "taker %s is not seated", playerID)
	}
	if c.takerID != playerID {
		c.bid = nil
		c.coincheSide = ""
	}
	c.takerID = playerID
	c.contractSide = side
	return nil
}

// SetBid records the contract for the current taker and resets escalation.
func (c *BidContext) SetBid(value int, suit Suit) error {
	if c.takerID == "" {
		return invalid(InvMissingTaker, "a bid needs a taker")
	}
	if !ValidBidValue(value) {
		return invalid(InvBidValueRange, "bid %d is out of range", value)
	}
	if !suit.Valid() {
		return invalid(InvUnknownSuit, "unknown suit %q", suit)
	}
	c.bid = &Bid{Value: value, Suit: suit, TakerID: c.takerID, Escalation: EscalationNone}
	c.coincheSide = ""
	return nil
}

// Coinche doubles the contract. The coincher must sit on another side; at a
// two-team table the ID may be left empty since only one side can double.
func (c *BidContext) Coinche(playerID string) error {
	if c.bid == nil {
		return invalid(InvMissingBid, "cannot coinche without a bid")
	}
	if c.bid.Escalation.rank() > EscalationCoinched.rank() {
		return invalid(InvEscalationBackward, "contract is already surcoinched")
	}
	side, err := c.coincheDeclarantSide(playerID)
	if err != nil {
		return err
	}
	c.bid.Escalation = EscalationCoinched
	c.bid.CoincherID = playerID
	c.coincheSide = side
	return nil
}

func (c *BidContext) coincheDeclarantSide(playerID string) (Side, error) {
	if playerID == "" {
		opponents := c.table.Topology.Opponents(c.contractSide)
		if len(opponents) != 1 {
			return "", invalid(InvMissingCoincher, "name the coincher at a three-handed table")
		}
		return opponents[0], nil
	}
	side, ok := c.table.SideOf(playerID)
	if !ok {
		return "", invalid(InvUnknownPlayer, "coincher %s is not seated", playerID)
	}
	if side == c.contractSide {
		return "", invalid(InvCoincheSameSide, "coincher %s plays for the contract side", playerID)
	}
	return side, nil
}

// Surcoinche redoubles a coinched contract from the taker's side.
func (c *BidContext) Surcoinche(playerID string) error {
	if c.bid == nil || c.bid.Escalation.rank() < EscalationCoinched.rank() {
		return invalid(InvSurcoincheNoCoinche, "surcoinche needs a coinche first")
	}
	if playerID != "" {
		side, ok := c.table.SideOf(playerID)
		if !ok {
			return invalid(InvUnknownPlayer, "surcoincher %s is not seated", playerID)
		}
		if side != c.contractSide {
			return invalid(InvSurcoincheWrongSide, "surcoincher %s does not play for the contract side", playerID)
		}
	}
	c.bid.Escalation = EscalationSurcoinched
	c.bid.SurcoincherID = playerID
	return nil
}

// ClearBid withdraws the contract but keeps the taker.
func (c *BidContext) ClearBid() {
	c.bid = nil
	c.coincheSide = ""
}

// Taker returns the current taker.
func (c *BidContext) Taker() string {
	return c.takerID
}

// ContractSide returns the taker's side.
func (c *BidContext) ContractSide() (Side, bool) {
	return c.contractSide, c.takerID != ""
}

// CoincheSide returns the side that doubled, if any.
func (c *BidContext) CoincheSide() (Side, bool) {
	return c.coincheSide, c.coincheSide != ""
}

// Bid returns a copy of the current contract.
func (c *BidContext) Bid() (Bid, bool) {
	if c.bid == nil {
		return Bid{}, false
	}
	return *c.bid, true
}
