package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/abrezinsky/coinche/internal/errors"
	"github.com/abrezinsky/coinche/internal/logger"
	"github.com/abrezinsky/coinche/internal/repository"
	"github.com/abrezinsky/coinche/internal/scoring"
)

// Setting keys
const (
	SettingDefaultTopology      = "default_topology"
	SettingDefaultVariant       = "default_variant"
	SettingDefaultTargetScore   = "default_target_score"
	SettingAnnouncementsEnabled = "announcements_enabled"
	SettingBaseURL              = "base_url"
	SettingFeedURL              = "feed_url"
)

// SettingsService handles settings-related business logic
type SettingsService struct {
	log  logger.Logger
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// GetSetting retrieves an arbitrary setting
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	return s.repo.GetSetting(ctx, key)
}

// SetSetting saves an arbitrary setting
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	return s.repo.SetSetting(ctx, key, value)
}

// optional reads a setting that may be absent
func (s *SettingsService) optional(ctx context.Context, key string) (string, bool, error) {
	value, err := s.repo.GetSetting(ctx, key)
	if err == repository.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// GetBaseURL returns the scoreboard base URL
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	value, _, err := s.optional(ctx, SettingBaseURL)
	return value, err
}

// SetBaseURL saves the scoreboard base URL
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	return s.repo.SetSetting(ctx, SettingBaseURL, strings.TrimSuffix(url, "/"))
}

// GetFeedURL returns the score feed URL, empty when publishing is off
func (s *SettingsService) GetFeedURL(ctx context.Context) (string, error) {
	value, _, err := s.optional(ctx, SettingFeedURL)
	return value, err
}

// SetFeedURL saves the score feed URL
func (s *SettingsService) SetFeedURL(ctx context.Context, url string) error {
	return s.repo.SetSetting(ctx, SettingFeedURL, url)
}

// DefaultRules builds the rules a new match starts from. Missing or
// unparseable values fall back to a four-handed contract game.
func (s *SettingsService) DefaultRules(ctx context.Context) (scoring.Rules, error) {
	rules := scoring.Rules{
		Topology:             scoring.FourSide,
		Variant:              scoring.VariantContract,
		AnnouncementsEnabled: true,
	}

	value, ok, err := s.optional(ctx, SettingDefaultTopology)
	if err != nil {
		return rules, err
	}
	if ok {
		if n, convErr := strconv.Atoi(value); convErr == nil {
			if t, parseErr := scoring.ParseTopology(n); parseErr == nil {
				rules.Topology = t
			}
		}
	}

	value, ok, err = s.optional(ctx, SettingDefaultVariant)
	if err != nil {
		return rules, err
	}
	if ok && (scoring.Variant(value) == scoring.VariantPlain || scoring.Variant(value) == scoring.VariantContract) {
		rules.Variant = scoring.Variant(value)
	}

	rules.TargetScore = scoring.DefaultTarget(rules.Variant)
	value, ok, err = s.optional(ctx, SettingDefaultTargetScore)
	if err != nil {
		return rules, err
	}
	if ok {
		if n, convErr := strconv.Atoi(value); convErr == nil && n > 0 {
			rules.TargetScore = n
		}
	}

	value, ok, err = s.optional(ctx, SettingAnnouncementsEnabled)
	if err != nil {
		return rules, err
	}
	if ok {
		rules.AnnouncementsEnabled = value == "true"
	}

	return rules, nil
}

// AllSettings returns the configuration surface as a map
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]interface{}, error) {
	rules, err := s.DefaultRules(ctx)
	if err != nil {
		return nil, err
	}
	baseURL, err := s.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	feedURL, err := s.GetFeedURL(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		SettingDefaultTopology:      int(rules.Topology),
		SettingDefaultVariant:       string(rules.Variant),
		SettingDefaultTargetScore:   rules.TargetScore,
		SettingAnnouncementsEnabled: rules.AnnouncementsEnabled,
		SettingBaseURL:              baseURL,
		SettingFeedURL:              feedURL,
	}, nil
}

// Settings represents application settings for update operations.
// Nil fields are left unchanged.
type Settings struct {
	Topology             *int
	Variant              *string
	TargetScore          *int
	AnnouncementsEnabled *bool
	BaseURL              *string
	FeedURL              *string
}

// UpdateSettings validates and stores the given settings. Nothing is written
// when any value is invalid.
func (s *SettingsService) UpdateSettings(ctx context.Context, settings Settings) error {
	updates := make([][2]string, 0, 6)

	if settings.Topology != nil {
		if _, err := scoring.ParseTopology(*settings.Topology); err != nil {
			return errors.Validationf("unsupported table size: %d", *settings.Topology)
		}
		updates = append(updates, [2]string{SettingDefaultTopology, strconv.Itoa(*settings.Topology)})
	}
	if settings.Variant != nil {
		v := scoring.Variant(*settings.Variant)
		if v != scoring.VariantContract && v != scoring.VariantPlain {
			return errors.Validationf("unknown variant: %s", *settings.Variant)
		}
		updates = append(updates, [2]string{SettingDefaultVariant, string(v)})
		if settings.TargetScore == nil {
			updates = append(updates, [2]string{SettingDefaultTargetScore, strconv.Itoa(scoring.DefaultTarget(v))})
		}
	}
	if settings.TargetScore != nil {
		if *settings.TargetScore <= 0 {
			return errors.Validation("target score must be positive")
		}
		updates = append(updates, [2]string{SettingDefaultTargetScore, strconv.Itoa(*settings.TargetScore)})
	}
	if settings.AnnouncementsEnabled != nil {
		updates = append(updates, [2]string{SettingAnnouncementsEnabled, strconv.FormatBool(*settings.AnnouncementsEnabled)})
	}
	if settings.BaseURL != nil {
		updates = append(updates, [2]string{SettingBaseURL, strings.TrimSuffix(*settings.BaseURL, "/")})
	}
	if settings.FeedURL != nil {
		updates = append(updates, [2]string{SettingFeedURL, *settings.FeedURL})
	}

	for _, kv := range updates {
		if err := s.repo.SetSetting(ctx, kv[0], kv[1]); err != nil {
			return err
		}
		s.log.Info("Setting updated", "key", kv[0], "value", kv[1])
	}
	return nil
}
