package mock

import (
	"context"

	"github.com/abrezinsky/coinche/internal/models"
	"github.com/abrezinsky/coinche/internal/repository"
	"github.com/abrezinsky/coinche/internal/scoring"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.AppendHandError = errors.New("database error")
//	svc := services.NewMatchService(log, mockRepo, settings, feed)
//	_, err := svc.SubmitHand(ctx, matchID, input)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Match Errors =====
	CreateMatchError    error
	GetMatchError       error
	ListMatchesError    error
	ListPlayersError    error
	UpdateProgressError error

	// ===== Hand Errors =====
	ListHandsError   error
	AppendHandError  error
	ReplaceHandError error
	DeleteHandError  error

	// ===== Settings Errors =====
	GetSettingError  error
	SetSettingError  error
	AllSettingsError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Match Methods =====

func (m *Repository) CreateMatch(ctx context.Context, match models.Match, players []models.Player) error {
	if m.CreateMatchError != nil {
		return m.CreateMatchError
	}
	return m.FullRepository.CreateMatch(ctx, match, players)
}

func (m *Repository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	if m.GetMatchError != nil {
		return nil, m.GetMatchError
	}
	return m.FullRepository.GetMatch(ctx, id)
}

func (m *Repository) ListMatches(ctx context.Context) ([]models.MatchSummary, error) {
	if m.ListMatchesError != nil {
		return nil, m.ListMatchesError
	}
	return m.FullRepository.ListMatches(ctx)
}

func (m *Repository) ListPlayers(ctx context.Context, matchID string) ([]models.Player, error) {
	if m.ListPlayersError != nil {
		return nil, m.ListPlayersError
	}
	return m.FullRepository.ListPlayers(ctx, matchID)
}

func (m *Repository) UpdateProgress(ctx context.Context, matchID string, p models.Progress) error {
	if m.UpdateProgressError != nil {
		return m.UpdateProgressError
	}
	return m.FullRepository.UpdateProgress(ctx, matchID, p)
}

// ===== Hand Methods =====

func (m *Repository) ListHands(ctx context.Context, matchID string) ([]scoring.HandResult, error) {
	if m.ListHandsError != nil {
		return nil, m.ListHandsError
	}
	return m.FullRepository.ListHands(ctx, matchID)
}

func (m *Repository) AppendHand(ctx context.Context, matchID string, h scoring.HandResult, p models.Progress) error {
	if m.AppendHandError != nil {
		return m.AppendHandError
	}
	return m.FullRepository.AppendHand(ctx, matchID, h, p)
}

func (m *Repository) ReplaceHand(ctx context.Context, matchID string, h scoring.HandResult, p models.Progress) error {
	if m.ReplaceHandError != nil {
		return m.ReplaceHandError
	}
	return m.FullRepository.ReplaceHand(ctx, matchID, h, p)
}

func (m *Repository) DeleteHand(ctx context.Context, matchID, handID string, p models.Progress) error {
	if m.DeleteHandError != nil {
		return m.DeleteHandError
	}
	return m.FullRepository.DeleteHand(ctx, matchID, handID, p)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) AllSettings(ctx context.Context) (map[string]string, error) {
	if m.AllSettingsError != nil {
		return nil, m.AllSettingsError
	}
	return m.FullRepository.AllSettings(ctx)
}
