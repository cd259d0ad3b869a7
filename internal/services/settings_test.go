package services_test

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/abrezinsky/coinche/internal/errors"
	"github.com/abrezinsky/coinche/internal/logger"
	"github.com/abrezinsky/coinche/internal/repository/mock"
	"github.com/abrezinsky/coinche/internal/scoring"
	"github.com/abrezinsky/coinche/internal/services"
	"github.com/abrezinsky/coinche/internal/testutil"
)

func boolPtr(v bool) *bool { return &v }

func TestSettingsService_DefaultRules(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)

	rules, err := svc.DefaultRules(context.Background())
	if err != nil {
		t.Fatalf("DefaultRules failed: %v", err)
	}
	want := scoring.Rules{Topology: scoring.FourSide, Variant: scoring.VariantContract, TargetScore: 1000, AnnouncementsEnabled: true}
	if rules != want {
		t.Errorf("expected %+v, got %+v", want, rules)
	}
}

func TestSettingsService_DefaultRules_IgnoresGarbage(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	for key, value := range map[string]string{
		services.SettingDefaultTopology:    "seven",
		services.SettingDefaultVariant:     "rummy",
		services.SettingDefaultTargetScore: "-5",
	} {
		if err := svc.SetSetting(ctx, key, value); err != nil {
			t.Fatalf("SetSetting failed: %v", err)
		}
	}

	rules, err := svc.DefaultRules(ctx)
	if err != nil {
		t.Fatalf("DefaultRules failed: %v", err)
	}
	if rules.Topology != scoring.FourSide || rules.Variant != scoring.VariantContract || rules.TargetScore != 1000 {
		t.Errorf("expected fallbacks, got %+v", rules)
	}
}

func TestSettingsService_DefaultRules_Error(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.GetSettingError = errors.New("database error")
	svc := services.NewSettingsService(logger.Discard(), repo)

	if _, err := svc.DefaultRules(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, err := svc.AllSettings(context.Background()); err == nil {
		t.Fatal("expected error from AllSettings, got nil")
	}
}

func TestSettingsService_BaseURL(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	url, err := svc.GetBaseURL(ctx)
	if err != nil {
		t.Fatalf("GetBaseURL failed: %v", err)
	}
	if url != "" {
		t.Errorf("expected empty base URL, got %q", url)
	}

	if err := svc.SetBaseURL(ctx, "http://192.168.1.20:8080/"); err != nil {
		t.Fatalf("SetBaseURL failed: %v", err)
	}
	url, _ = svc.GetBaseURL(ctx)
	if url != "http://192.168.1.20:8080" {
		t.Errorf("expected trailing slash trimmed, got %q", url)
	}
}

func TestSettingsService_FeedURL(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	if err := svc.SetFeedURL(ctx, "http://records.local/api"); err != nil {
		t.Fatalf("SetFeedURL failed: %v", err)
	}
	url, err := svc.GetFeedURL(ctx)
	if err != nil {
		t.Fatalf("GetFeedURL failed: %v", err)
	}
	if url != "http://records.local/api" {
		t.Errorf("unexpected feed URL %q", url)
	}
}

func TestSettingsService_GetSetSetting(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	if err := svc.SetSetting(ctx, "custom", "value"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	value, err := svc.GetSetting(ctx, "custom")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "value" {
		t.Errorf("expected 'value', got %q", value)
	}
}

func TestSettingsService_AllSettings(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)

	all, err := svc.AllSettings(context.Background())
	if err != nil {
		t.Fatalf("AllSettings failed: %v", err)
	}
	for _, key := range []string{
		services.SettingDefaultTopology,
		services.SettingDefaultVariant,
		services.SettingDefaultTargetScore,
		services.SettingAnnouncementsEnabled,
		services.SettingBaseURL,
		services.SettingFeedURL,
	} {
		if _, ok := all[key]; !ok {
			t.Errorf("expected key %s", key)
		}
	}
	if all[services.SettingDefaultTopology] != 4 {
		t.Errorf("expected topology 4, got %v", all[services.SettingDefaultTopology])
	}
	if all[services.SettingAnnouncementsEnabled] != true {
		t.Errorf("expected announcements on, got %v", all[services.SettingAnnouncementsEnabled])
	}
}

func TestSettingsService_UpdateSettings(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	err := svc.UpdateSettings(ctx, services.Settings{
		Topology:             intPtr(2),
		Variant:              strPtr("plain"),
		TargetScore:          intPtr(701),
		AnnouncementsEnabled: boolPtr(false),
		BaseURL:              strPtr("http://host:8080/"),
		FeedURL:              strPtr("http://feed"),
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	rules, _ := svc.DefaultRules(ctx)
	want := scoring.Rules{Topology: scoring.TwoSide, Variant: scoring.VariantPlain, TargetScore: 701, AnnouncementsEnabled: false}
	if rules != want {
		t.Errorf("expected %+v, got %+v", want, rules)
	}
	base, _ := svc.GetBaseURL(ctx)
	if base != "http://host:8080" {
		t.Errorf("unexpected base URL %q", base)
	}
	feed, _ := svc.GetFeedURL(ctx)
	if feed != "http://feed" {
		t.Errorf("unexpected feed URL %q", feed)
	}
}

func TestSettingsService_UpdateSettings_Partial(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	if err := svc.UpdateSettings(ctx, services.Settings{TargetScore: intPtr(2000)}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	rules, _ := svc.DefaultRules(ctx)
	if rules.TargetScore != 2000 || rules.Topology != scoring.FourSide {
		t.Errorf("expected only target changed, got %+v", rules)
	}
}

func TestSettingsService_VariantSetsTarget(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	svc := services.NewSettingsService(logger.Discard(), repo)
	ctx := context.Background()

	if err := svc.SetSetting(ctx, services.SettingDefaultVariant, "plain"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	rules, _ := svc.DefaultRules(ctx)
	if rules.TargetScore != 501 {
		t.Errorf("expected unset target to follow plain variant, got %d", rules.TargetScore)
	}

	steps := []struct {
		name     string
		settings services.Settings
		want     int
	}{
		{"custom target", services.Settings{TargetScore: intPtr(2000)}, 2000},
		{"switch to contract", services.Settings{Variant: strPtr("contract")}, 1000},
		{"switch to plain", services.Settings{Variant: strPtr("plain")}, 501},
		{"switch with target", services.Settings{Variant: strPtr("contract"), TargetScore: intPtr(1500)}, 1500},
	}

	for _, step := range steps {
		if err := svc.UpdateSettings(ctx, step.settings); err != nil {
			t.Fatalf("%s: UpdateSettings failed: %v", step.name, err)
		}
		rules, _ := svc.DefaultRules(ctx)
		if rules.TargetScore != step.want {
			t.Errorf("%s: expected target %d, got %d", step.name, step.want, rules.TargetScore)
		}
	}
}

func TestSettingsService_UpdateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		settings services.Settings
	}{
		{"table size", services.Settings{Topology: intPtr(6)}},
		{"variant", services.Settings{Variant: strPtr("tarot")}},
		{"target", services.Settings{TargetScore: intPtr(0)}},
		{"valid then invalid", services.Settings{BaseURL: strPtr("http://x"), TargetScore: intPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewTestRepository(t)
			svc := services.NewSettingsService(logger.Discard(), repo)
			ctx := context.Background()

			err := svc.UpdateSettings(ctx, tt.settings)
			if apperrors.KindOf(err) != apperrors.ErrValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if base, _ := svc.GetBaseURL(ctx); base != "" {
				t.Errorf("nothing should be written on a rejected update, base URL is %q", base)
			}
		})
	}
}

func TestSettingsService_UpdateSettings_WriteError(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	repo.SetSettingError = errors.New("readonly database")
	svc := services.NewSettingsService(logger.Discard(), repo)

	if err := svc.UpdateSettings(context.Background(), services.Settings{FeedURL: strPtr("http://feed")}); err == nil {
		t.Fatal("expected error, got nil")
	}
}
