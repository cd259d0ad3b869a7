package scoring

import "time"

// MaxPenaltyPoints bounds a single penalty entry.
const MaxPenaltyPoints = 500

// Penalty is subtracted from the penalized player's side after the hand is scored.
// It never affects whether the contract was fulfilled.
type Penalty struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	Side      Side      `json:"side"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason,omitempty"`
	AppliedBy string    `json:"applied_by,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClampPenalty bounds operator-entered penalty points to [0, MaxPenaltyPoints].
func ClampPenalty(points int) int {
	if points < 0 {
		return 0
	}
	if points > MaxPenaltyPoints {
		return MaxPenaltyPoints
	}
	return points
}

func applyPenalties(deltas map[Side]int, penalties []Penalty) {
	for _, p := range penalties {
		deltas[p.Side] -= p.Points
	}
}

// resolvePenalties clamps points, resolves sides and drops empty entries.
func resolvePenalties(table Table, in []PenaltyInput) ([]Penalty, error) {
	out := make([]Penalty, 0, len(in))
	for _, p := range in {
		side, ok := table.SideOf(p.PlayerID)
		if !ok {
			return nil, invalid(InvPenaltyPlayer, "penalized player %s is not seated", p.PlayerID)
		}
		points := ClampPenalty(p.Points)
		if points == 0 {
			continue
		}
		out = append(out, Penalty{
			ID:        p.ID,
			PlayerID:  p.PlayerID,
			Side:      side,
			Points:    points,
			Reason:    p.Reason,
			AppliedBy: p.AppliedBy,
			Timestamp: p.Timestamp,
		})
	}
	return out, nil
}
