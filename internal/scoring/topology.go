package scoring

import "fmt"

// Side is a scoring unit: a partnership, or a single player at a three-handed table.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
	SideC Side = "C"
)

// Points in play for one hand. Every topology shares the 32-card deck, so the
// trick pool is 162 (152 card points + 10 for the last trick) at every table size.
const (
	PoolTotal  = 162
	CapotTotal = 252
)

// Topology is the table layout. The numeric value is the player count.
type Topology int

const (
	TwoSide   Topology = 2
	ThreeSide Topology = 3
	FourSide  Topology = 4
)

// ParseTopology accepts the player count as configured by the operator.
func ParseTopology(players int) (Topology, error) {
	switch Topology(players) {
	case TwoSide, ThreeSide, FourSide:
		return Topology(players), nil
	}
	return 0, fmt.Errorf("unsupported table size: %d", players)
}

// Valid reports whether t is one of the supported layouts.
func (t Topology) Valid() bool {
	switch t {
	case TwoSide, ThreeSide, FourSide:
		return true
	}
	return false
}

// Players returns the number of seats at the table.
func (t Topology) Players() int {
	return int(t)
}

// Sides returns the play-sides in seating order.
func (t Topology) Sides() []Side {
	if t == ThreeSide {
		return []Side{SideA, SideB, SideC}
	}
	return []Side{SideA, SideB}
}

// PoolTotal is the raw trick points shared by all sides in one hand.
func (t Topology) PoolTotal() int {
	return PoolTotal
}

// HasSide reports whether s plays at this table.
func (t Topology) HasSide(s Side) bool {
	for _, side := range t.Sides() {
		if side == s {
			return true
		}
	}
	return false
}

// SideOfSeat maps a seat (0-based, in play order) to its side.
// Partners sit across from each other at a four-handed table.
func (t Topology) SideOfSeat(seat int) Side {
	sides := t.Sides()
	switch t {
	case FourSide:
		return sides[seat%2]
	default:
		return sides[seat%len(sides)]
	}
}

// Opponents returns every side other than s, starting with the one seated after it.
func (t Topology) Opponents(s Side) []Side {
	sides := t.Sides()
	start := 0
	for i, side := range sides {
		if side == s {
			start = i
			break
		}
	}
	opponents := make([]Side, 0, len(sides)-1)
	for i := 1; i < len(sides); i++ {
		opponents = append(opponents, sides[(start+i)%len(sides)])
	}
	return opponents
}

// SplitAward distributes a failed-contract award over the receiving sides.
// Two-team tables hand it to the single opposing side; a three-handed table
// splits it evenly, the odd point going to the first receiver in seating order.
func (t Topology) SplitAward(award int, receivers []Side) map[Side]int {
	shares := make(map[Side]int, len(receivers))
	if len(receivers) == 0 {
		return shares
	}
	switch t {
	case ThreeSide:
		each := award / len(receivers)
		for _, side := range receivers {
			shares[side] = each
		}
		shares[receivers[0]] += award - each*len(receivers)
	default:
		shares[receivers[0]] = award
	}
	return shares
}

// Table is the seating for one match: player IDs in play order.
type Table struct {
	Topology Topology `json:"topology"`
	Seats    []string `json:"seats"`
}

// Validate checks that every seat is filled once.
func (t Table) Validate() error {
	if !t.Topology.Valid() {
		return invalid(InvUnknownTopology, "unsupported table size %d", t.Topology)
	}
	if len(t.Seats) != t.Topology.Players() {
		return invalid(InvSeatCount, "table needs %d players, got %d", t.Topology.Players(), len(t.Seats))
	}
	seen := make(map[string]bool, len(t.Seats))
	for _, id := range t.Seats {
		if id == "" {
			return invalid(InvSeatCount, "empty seat")
		}
		if seen[id] {
			return invalid(InvSeatCount, "player %s seated twice", id)
		}
		seen[id] = true
	}
	return nil
}

// SideOf resolves a player's side.
func (t Table) SideOf(playerID string) (Side, bool) {
	for seat, id := range t.Seats {
		if id == playerID {
			return t.Topology.SideOfSeat(seat), true
		}
	}
	return "", false
}

// Dealer returns the player at the given rotation index.
func (t Table) Dealer(index int) string {
	if len(t.Seats) == 0 {
		return ""
	}
	n := len(t.Seats)
	return t.Seats[((index%n)+n)%n]
}
