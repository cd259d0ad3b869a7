package scoring

// RawPoints maps each side to the trick points it won before bonuses.
type RawPoints map[Side]int

// Sum totals every side.
func (p RawPoints) Sum() int {
	total := 0
	for _, v := range p {
		total += v
	}
	return total
}

// Clone copies p.
func (p RawPoints) Clone() RawPoints {
	out := make(RawPoints, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ClampRawPoints bounds an operator entry to [0, pool].
func ClampRawPoints(v int) int {
	if v < 0 {
		return 0
	}
	if v > PoolTotal {
		return PoolTotal
	}
	return v
}

// CapotPoints is the forced distribution while a capot is declared.
func CapotPoints(t Topology, capotSide Side) RawPoints {
	points := make(RawPoints, len(t.Sides()))
	for _, side := range t.Sides() {
		points[side] = 0
	}
	points[capotSide] = t.PoolTotal()
	return points
}

// Balance is the balancer's state. LastEdited is the side whose value the
// operator typed most recently; three-handed balancing holds it fixed on the
// next edit of another side.
type Balance struct {
	Points     RawPoints `json:"points"`
	LastEdited Side      `json:"last_edited,omitempty"`
	CapotSide  Side      `json:"capot_side,omitempty"`
}

// Balancer keeps the raw points of a hand summing to the pool.
type Balancer struct {
	topology Topology
}

// NewBalancer returns a balancer for the table layout.
func NewBalancer(t Topology) Balancer {
	return Balancer{topology: t}
}

// Start returns an even split with nobody edited yet.
func (b Balancer) Start() Balance {
	sides := b.topology.Sides()
	points := make(RawPoints, len(sides))
	share := b.topology.PoolTotal() / len(sides)
	for _, side := range sides {
		points[side] = share
	}
	points[sides[0]] += b.topology.PoolTotal() - share*len(sides)
	return Balance{Points: points}
}

// DeclareCapot locks the points to the capot distribution. An empty side lifts
// the lock and restarts from an even split.
func (b Balancer) DeclareCapot(state Balance, side Side) (Balance, error) {
	if side == "" {
		next := b.Start()
		return next, nil
	}
	if !b.topology.HasSide(side) {
		return state, invalid(InvUnknownSide, "unknown side %q", side)
	}
	return Balance{Points: CapotPoints(b.topology, side), CapotSide: side}, nil
}

// Edit sets one side's points and re-derives the others so the pool total holds.
// The returned state records the edited side; the choice of which side to hold
// fixed is made from the state passed in, never the one being returned.
func (b Balancer) Edit(state Balance, edited Side, value int) (Balance, error) {
	if !b.topology.HasSide(edited) {
		return state, invalid(InvUnknownSide, "unknown side %q", edited)
	}
	if state.CapotSide != "" {
		return Balance{Points: CapotPoints(b.topology, state.CapotSide), LastEdited: state.LastEdited, CapotSide: state.CapotSide}, nil
	}

	pool := b.topology.PoolTotal()
	value = ClampRawPoints(value)
	points := make(RawPoints, len(b.topology.Sides()))
	for _, side := range b.topology.Sides() {
		points[side] = ClampRawPoints(state.Points[side])
	}
	points[edited] = value

	others := b.topology.Opponents(edited)
	switch len(others) {
	case 1:
		points[others[0]] = pool - value
	case 2:
		held, solved := others[0], others[1]
		if state.LastEdited == others[1] {
			held, solved = others[1], others[0]
		}
		remaining := pool - value - points[held]
		if remaining < 0 {
			points[held] += remaining
			remaining = 0
		}
		points[solved] = remaining
	}

	return Balance{Points: points, LastEdited: edited}, nil
}
