package repository

import (
	"context"

	"github.com/abrezinsky/coinche/internal/models"
	"github.com/abrezinsky/coinche/internal/scoring"
)

// MatchRepository defines match and seating data operations
type MatchRepository interface {
	CreateMatch(ctx context.Context, m models.Match, players []models.Player) error
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	ListMatches(ctx context.Context) ([]models.MatchSummary, error)
	ListPlayers(ctx context.Context, matchID string) ([]models.Player, error)
	UpdateProgress(ctx context.Context, matchID string, p models.Progress) error
}

// HandRepository defines hand history operations. Every write stores the
// recomputed match progress in the same transaction.
type HandRepository interface {
	ListHands(ctx context.Context, matchID string) ([]scoring.HandResult, error)
	AppendHand(ctx context.Context, matchID string, h scoring.HandResult, p models.Progress) error
	ReplaceHand(ctx context.Context, matchID string, h scoring.HandResult, p models.Progress) error
	DeleteHand(ctx context.Context, matchID, handID string, p models.Progress) error
}

// MatchStore is what the match service needs: matches and their hands
type MatchStore interface {
	MatchRepository
	HandRepository
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]string, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	MatchRepository
	HandRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
