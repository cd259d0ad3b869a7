package services

import (
	"context"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/coinche/internal/logger"
	"github.com/abrezinsky/coinche/internal/repository"
)

// ShareService builds links and QR codes that open a match scoreboard
type ShareService struct {
	log      logger.Logger
	repo     repository.MatchRepository
	settings SettingsServicer
}

// NewShareService creates a new ShareService
func NewShareService(log logger.Logger, repo repository.MatchRepository, settings SettingsServicer) *ShareService {
	return &ShareService{log: log, repo: repo, settings: settings}
}

// ScoreboardURL returns the public scoreboard address of a match
func (s *ShareService) ScoreboardURL(ctx context.Context, matchID string) (string, error) {
	if _, err := s.repo.GetMatch(ctx, matchID); err != nil {
		return "", err
	}
	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return "", err
	}
	if baseURL == "" {
		return "", ErrBaseURLNotConfigured
	}
	return strings.TrimSuffix(baseURL, "/") + "/matches/" + matchID, nil
}

// ScoreboardQR renders the scoreboard address as a PNG
func (s *ShareService) ScoreboardQR(ctx context.Context, matchID string) ([]byte, error) {
	url, err := s.ScoreboardURL(ctx, matchID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		s.log.Error("Failed to render QR code", "match_id", matchID, "error", err)
		return nil, err
	}
	return png, nil
}
