package match

import (
	stderrors "errors"

	"github.com/abrezinsky/coinche/internal/scoring"
)

// Tracker errors
var (
	ErrMatchEnded   = stderrors.New("match has ended")
	ErrHandNotFound = stderrors.New("hand not found")
	ErrNoHands      = stderrors.New("no hands played")
)

// State is the cumulative state of one match.
type State struct {
	Rules       scoring.Rules        `json:"rules"`
	Table       scoring.Table        `json:"table"`
	Hands       []scoring.HandResult `json:"hands"`
	Totals      map[scoring.Side]int `json:"totals"`
	DealerIndex int                  `json:"dealer_index"`
	Ended       bool                 `json:"ended"`
	Draw        bool                 `json:"draw"`
	Winner      scoring.Side         `json:"winner,omitempty"`
	EndedAt     int                  `json:"ended_at,omitempty"`
}

// Standing is one side's line on the scoreboard.
type Standing struct {
	Side    scoring.Side `json:"side"`
	Players []string     `json:"players"`
	Total   int          `json:"total"`
	Missing int          `json:"missing"`
}

// Tracker accumulates hand results into running totals and decides when the
// match is over. It has a single writer; callers serialize access.
type Tracker struct {
	state State
}

// New starts an empty match.
func New(rules scoring.Rules, table scoring.Table) (*Tracker, error) {
	return Restore(rules, table, nil, 0)
}

// Restore rebuilds a tracker from stored history.
func Restore(rules scoring.Rules, table scoring.Table, hands []scoring.HandResult, dealerIndex int) (*Tracker, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	t := &Tracker{state: State{
		Rules:       rules,
		Table:       table,
		Hands:       append([]scoring.HandResult(nil), hands...),
		DealerIndex: dealerIndex,
	}}
	t.recompute()
	return t, nil
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	s := t.state
	s.Hands = append([]scoring.HandResult(nil), t.state.Hands...)
	s.Totals = make(map[scoring.Side]int, len(t.state.Totals))
	for k, v := range t.state.Totals {
		s.Totals[k] = v
	}
	s.Table.Seats = append([]string(nil), t.state.Table.Seats...)
	return s
}

// Rules returns the rules the match was created with.
func (t *Tracker) Rules() scoring.Rules { return t.state.Rules }

// Table returns the seating.
func (t *Tracker) Table() scoring.Table { return t.state.Table }

// Ended reports whether the match is over.
func (t *Tracker) Ended() bool { return t.state.Ended }

// Dealer returns the player dealing the next hand.
func (t *Tracker) Dealer() string {
	return t.state.Table.Dealer(t.state.DealerIndex)
}

// DealerIndex returns the rotation counter.
func (t *Tracker) DealerIndex() int {
	return t.state.DealerIndex
}

// NextHandMeta returns the identity the next appended hand will carry.
func (t *Tracker) NextHandMeta(id string) scoring.HandMeta {
	return scoring.HandMeta{
		ID:          id,
		Number:      len(t.state.Hands) + 1,
		DealerID:    t.Dealer(),
		DealerIndex: t.state.DealerIndex,
	}
}

// Append adds a scored hand, rotates the dealer and checks for a winner.
func (t *Tracker) Append(h scoring.HandResult) error {
	if t.state.Ended {
		return ErrMatchEnded
	}
	h.DealerIndex = t.state.DealerIndex
	t.state.Hands = append(t.state.Hands, h)
	t.state.DealerIndex++
	t.recompute()
	return nil
}

// Replace swaps a stored hand for its re-scored version. Totals and the end
// state are rebuilt from the full history.
func (t *Tracker) Replace(h scoring.HandResult) error {
	for i := range t.state.Hands {
		if t.state.Hands[i].ID == h.ID {
			h.DealerIndex = t.state.Hands[i].DealerIndex
			t.state.Hands[i] = h
			t.recompute()
			return nil
		}
	}
	return ErrHandNotFound
}

// BlankHand passes the deal without a played hand.
func (t *Tracker) BlankHand() error {
	if t.state.Ended {
		return ErrMatchEnded
	}
	t.state.DealerIndex++
	return nil
}

// RemoveLast drops the most recent hand and gives the deal back to whoever
// dealt it, discarding any blank hands passed since. Undoing the deciding hand
// reopens the match.
func (t *Tracker) RemoveLast() (scoring.HandResult, error) {
	n := len(t.state.Hands)
	if n == 0 {
		return scoring.HandResult{}, ErrNoHands
	}
	last := t.state.Hands[n-1]
	t.state.Hands = t.state.Hands[:n-1]
	t.state.DealerIndex = last.DealerIndex
	t.recompute()
	return last, nil
}

// Hand looks up a stored hand.
func (t *Tracker) Hand(id string) (scoring.HandResult, bool) {
	for _, h := range t.state.Hands {
		if h.ID == id {
			return h, true
		}
	}
	return scoring.HandResult{}, false
}

// Last returns the most recent hand.
func (t *Tracker) Last() (scoring.HandResult, bool) {
	if len(t.state.Hands) == 0 {
		return scoring.HandResult{}, false
	}
	return t.state.Hands[len(t.state.Hands)-1], true
}

// Standings lists every side in seating order with its total and the points
// it still needs to reach the target.
func (t *Tracker) Standings() []Standing {
	sides := t.state.Rules.Topology.Sides()
	out := make([]Standing, 0, len(sides))
	for _, side := range sides {
		st := Standing{Side: side, Total: t.state.Totals[side]}
		for seat, id := range t.state.Table.Seats {
			if t.state.Table.Topology.SideOfSeat(seat) == side {
				st.Players = append(st.Players, id)
			}
		}
		if missing := t.state.Rules.TargetScore - st.Total; missing > 0 {
			st.Missing = missing
		}
		out = append(out, st)
	}
	return out
}

// recompute sums every delta from scratch and replays win detection hand by
// hand. The match ends on the first hand after which some side reaches the
// target; the highest qualifying total wins and an exact tie is a draw.
func (t *Tracker) recompute() {
	sides := t.state.Rules.Topology.Sides()
	totals := make(map[scoring.Side]int, len(sides))
	for _, side := range sides {
		totals[side] = 0
	}

	t.state.Ended, t.state.Draw, t.state.Winner, t.state.EndedAt = false, false, "", 0
	for i, h := range t.state.Hands {
		for _, side := range sides {
			totals[side] += h.Deltas[side]
		}
		if t.state.Ended {
			continue
		}
		if winner, draw, ok := decide(sides, totals, t.state.Rules.TargetScore); ok {
			t.state.Ended = true
			t.state.Draw = draw
			t.state.Winner = winner
			t.state.EndedAt = i + 1
		}
	}
	t.state.Totals = totals
}

func decide(sides []scoring.Side, totals map[scoring.Side]int, target int) (scoring.Side, bool, bool) {
	var winner scoring.Side
	best := 0
	qualified, tied := false, false
	for _, side := range sides {
		total := totals[side]
		if total < target {
			continue
		}
		switch {
		case !qualified || total > best:
			winner, best, tied = side, total, false
		case total == best:
			tied = true
		}
		qualified = true
	}
	if !qualified {
		return "", false, false
	}
	if tied {
		return "", true, true
	}
	return winner, false, true
}
