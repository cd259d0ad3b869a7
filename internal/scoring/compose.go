package scoring

// pointsTerm is the trick-point term credited to side: the capot pool when it
// declared capot, nothing when another side did, otherwise its raw points.
func pointsTerm(side Side, raw RawPoints, capotSide Side) int {
	switch capotSide {
	case "":
		return raw[side]
	case side:
		return CapotTotal
	default:
		return 0
	}
}

// EvaluateContract decides whether the contract side reached its bid.
// Capot-class bids need the full capot pool whatever the table size.
func EvaluateContract(t Topology, bid Bid, contractSide Side, raw RawPoints, bonus map[Side]int, capotSide Side) bool {
	return Effective(contractSide, raw, bonus, capotSide) >= bid.Threshold()
}

// Effective is the contract side's points counted toward fulfilment.
func Effective(contractSide Side, raw RawPoints, bonus map[Side]int, capotSide Side) int {
	return pointsTerm(contractSide, raw, capotSide) + bonus[contractSide]
}

// Composition is everything the final score depends on.
type Composition struct {
	Topology     Topology
	ContractSide Side
	CoincheSide  Side
	Bid          Bid
	Fulfilled    bool
	Raw          RawPoints
	Bonus        map[Side]int
	CapotSide    Side
	Penalties    []Penalty
}

// Compose produces each side's delta for a contract hand.
//
// Every side keeps its own bonus. The escalation multiplier scales the bid
// value term only. Once doubled, the side that coinched stakes its trick
// points: it takes the whole award on failure and only its bonus on success.
func Compose(c Composition) map[Side]int {
	deltas := zeroBySide(c.Topology)
	for _, side := range c.Topology.Sides() {
		deltas[side] = c.Bonus[side]
	}

	mult := c.Bid.Escalation.Multiplier()
	escalated := mult > 1 && c.CoincheSide != ""
	opponents := c.Topology.Opponents(c.ContractSide)

	if c.Fulfilled {
		deltas[c.ContractSide] += c.Bid.Value*mult + pointsTerm(c.ContractSide, c.Raw, c.CapotSide)
		for _, side := range opponents {
			if escalated && side == c.CoincheSide {
				continue
			}
			deltas[side] += pointsTerm(side, c.Raw, c.CapotSide)
		}
	} else {
		pool := PoolTotal
		if c.CapotSide != "" && c.CapotSide != c.ContractSide {
			pool = CapotTotal
		}
		receivers := opponents
		if escalated {
			receivers = []Side{c.CoincheSide}
		}
		for side, share := range c.Topology.SplitAward(c.Bid.Value*mult+pool, receivers) {
			deltas[side] += share
		}
	}

	applyPenalties(deltas, c.Penalties)
	return deltas
}

// ComposePlain scores a hand with no contract: each side banks its points and
// bonus. The hand winner is the side strictly ahead of every other side before
// penalties; a tie names no winner.
func ComposePlain(t Topology, raw RawPoints, bonus map[Side]int, capotSide Side, penalties []Penalty) (map[Side]int, Side) {
	deltas := zeroBySide(t)
	for _, side := range t.Sides() {
		deltas[side] = pointsTerm(side, raw, capotSide) + bonus[side]
	}

	var winner Side
	best := 0
	tied := false
	for i, side := range t.Sides() {
		switch {
		case i == 0 || deltas[side] > best:
			winner, best, tied = side, deltas[side], false
		case deltas[side] == best:
			tied = true
		}
	}
	if tied {
		winner = ""
	}

	applyPenalties(deltas, penalties)
	return deltas, winner
}
