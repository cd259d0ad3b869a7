package services

import (
	"context"

	"github.com/abrezinsky/coinche/internal/models"
	"github.com/abrezinsky/coinche/internal/scoring"
)

// MatchServicer defines the interface for match operations
type MatchServicer interface {
	CreateMatch(ctx context.Context, req NewMatch) (*MatchView, error)
	GetMatch(ctx context.Context, id string) (*MatchView, error)
	ListMatches(ctx context.Context) ([]models.MatchSummary, error)
	Preview(ctx context.Context, id string, in scoring.HandInput) (*scoring.Preview, error)
	Balance(ctx context.Context, id string, req BalanceRequest) (*scoring.Balance, error)
	SubmitHand(ctx context.Context, id string, in scoring.HandInput) (*HandOutcome, error)
	EditHand(ctx context.Context, id, handID string, in scoring.HandInput) (*HandOutcome, error)
	UndoLastHand(ctx context.Context, id string) (*MatchView, error)
	BlankHand(ctx context.Context, id string) (*MatchView, error)
	AddPenalty(ctx context.Context, id string, p scoring.PenaltyInput) (*HandOutcome, error)
	SetBroadcaster(b Broadcaster)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	GetFeedURL(ctx context.Context) (string, error)
	SetFeedURL(ctx context.Context, url string) error
	DefaultRules(ctx context.Context) (scoring.Rules, error)
	AllSettings(ctx context.Context) (map[string]interface{}, error)
	UpdateSettings(ctx context.Context, settings Settings) error
}

// ShareServicer defines the interface for scoreboard sharing
type ShareServicer interface {
	ScoreboardURL(ctx context.Context, matchID string) (string, error)
	ScoreboardQR(ctx context.Context, matchID string) ([]byte, error)
}

// Broadcaster pushes live updates to connected scoreboards. Payloads are
// plain JSON-ready values so implementations need not import this package.
type Broadcaster interface {
	BroadcastHand(matchID string, payload interface{})
	BroadcastCelebration(matchID, celebration string, payload interface{})
	BroadcastMatchUpdated(matchID string, payload interface{})
	BroadcastMatchEnded(matchID string, payload interface{})
}

// Ensure concrete types implement interfaces
var (
	_ MatchServicer    = (*MatchService)(nil)
	_ SettingsServicer = (*SettingsService)(nil)
	_ ShareServicer    = (*ShareService)(nil)
)
