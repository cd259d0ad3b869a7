package handlers

import "github.com/abrezinsky/coinche/internal/scoring"

// MatchCreateRequest represents a request to start a match. Unset rule
// fields fall back to the stored defaults.
type MatchCreateRequest struct {
	Name                 string   `json:"name"`
	Players              []string `json:"players"`
	Topology             *int     `json:"topology"`
	Variant              *string  `json:"variant"`
	TargetScore          *int     `json:"target_score"`
	AnnouncementsEnabled *bool    `json:"announcements_enabled"`
}

// BalanceRequest represents one edit of the raw point entry form
type BalanceRequest struct {
	Points     scoring.RawPoints `json:"points"`
	Edited     scoring.Side      `json:"edited"`
	LastEdited scoring.Side      `json:"last_edited"`
	CapotSide  scoring.Side      `json:"capot_side"`
}

// PenaltyRequest represents a penalty given outside a hand entry
type PenaltyRequest struct {
	PlayerID  string `json:"player_id"`
	Points    int    `json:"points"`
	Reason    string `json:"reason"`
	AppliedBy string `json:"applied_by"`
}

// SettingsUpdateRequest represents a request to update settings
type SettingsUpdateRequest struct {
	DefaultTopology      *int    `json:"default_topology"`
	DefaultVariant       *string `json:"default_variant"`
	DefaultTargetScore   *int    `json:"default_target_score"`
	AnnouncementsEnabled *bool   `json:"announcements_enabled"`
	BaseURL              *string `json:"base_url"`
	FeedURL              *string `json:"feed_url"`
}

// LoginRequest represents a scorekeeper login
type LoginRequest struct {
	Password string `json:"password"`
}
