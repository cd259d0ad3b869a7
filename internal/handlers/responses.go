package handlers

import "github.com/abrezinsky/coinche/internal/scoring"

// BalanceResponse is the balanced raw point form. LastEdited is echoed back
// so the caller can send it with its next edit.
type BalanceResponse struct {
	Points     scoring.RawPoints `json:"points"`
	LastEdited scoring.Side      `json:"last_edited,omitempty"`
	CapotSide  scoring.Side      `json:"capot_side,omitempty"`
}

// SessionResponse is the response for login and logout
type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// ScoreboardResponse carries the shareable scoreboard link of a match
type ScoreboardResponse struct {
	URL string `json:"url"`
}
