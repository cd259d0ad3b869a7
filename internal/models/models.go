package models

import "time"

// Match is a stored match record. The rules are snapshotted at creation.
type Match struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Topology             int       `json:"topology"`
	Variant              string    `json:"variant"`
	TargetScore          int       `json:"target_score"`
	AnnouncementsEnabled bool      `json:"announcements_enabled"`
	DealerIndex          int       `json:"dealer_index"`
	Ended                bool      `json:"ended"`
	Draw                 bool      `json:"draw"`
	Winner               string    `json:"winner,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Player is a seated player. Seat is the 0-based position in play order.
type Player struct {
	MatchID string `json:"match_id"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Seat    int    `json:"seat"`
	Side    string `json:"side"`
}

// Progress is the part of a match that changes as hands are played
type Progress struct {
	DealerIndex int            `json:"dealer_index"`
	Ended       bool           `json:"ended"`
	Draw        bool           `json:"draw"`
	Winner      string         `json:"winner,omitempty"`
	Totals      map[string]int `json:"totals"`
}

// MatchSummary is a row in the match list
type MatchSummary struct {
	Match
	Hands  int            `json:"hands"`
	Totals map[string]int `json:"totals"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	MatchID string      `json:"match_id,omitempty"`
	Payload interface{} `json:"payload"`
}
