package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/coinche/internal/auth"
	"github.com/abrezinsky/coinche/internal/handlers"
	"github.com/abrezinsky/coinche/internal/logger"
	"github.com/abrezinsky/coinche/internal/repository"
	"github.com/abrezinsky/coinche/internal/services"
	"github.com/abrezinsky/coinche/internal/websocket"
	"github.com/abrezinsky/coinche/pkg/scorefeed"
)

// ViewerCountInterval is how often scoreboards are told how many screens
// follow their match
const ViewerCountInterval = 2 * time.Second

// App holds all application dependencies
type App struct {
	log           logger.Logger
	handlers      *handlers.Handlers
	repo          *repository.Repository
	settings      services.SettingsServicer
	hub           *websocket.Hub
	cancelViewers context.CancelFunc
}

// New creates and initializes a new application instance. A feed client
// created with a URL seeds the feed_url setting when none is stored yet.
func New(log logger.Logger, dbPath string, feed scorefeed.Client, scorekeeperAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(dbPath)
	if err != nil {
		return nil, err
	}

	// Initialize services
	settingsService := services.NewSettingsService(log, repo)
	matchService := services.NewMatchService(log, repo, settingsService, feed)
	shareService := services.NewShareService(log, repo, settingsService)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, matchService)
	hub.Start()
	matchService.SetBroadcaster(hub)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.StartViewerCounts(ctx, ViewerCountInterval)

	h := handlers.New(
		matchService,
		settingsService,
		shareService,
		scorekeeperAuth,
		hub,
		log,
	)

	a := &App{
		log:           log,
		handlers:      h,
		repo:          repo,
		settings:      settingsService,
		hub:           hub,
		cancelViewers: cancel,
	}
	if feed != nil && feed.BaseURL() != "" {
		a.seedFeedURL(feed.BaseURL())
	}
	return a, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close stops background work and releases the database
func (a *App) Close() error {
	if a.cancelViewers != nil {
		a.cancelViewers()
		a.cancelViewers = nil
	}
	if a.repo != nil {
		err := a.repo.Close()
		a.repo = nil
		return err
	}
	return nil
}

// Run serves HTTP on addr until ctx is cancelled
func (a *App) Run(ctx context.Context, addr string) error {
	baseURL := fmt.Sprintf("http://%s%s", lanAddress(systemInterfaces{}), addr)
	a.setDefaultBaseURL(baseURL)

	a.log.Info("Server starting", "url", baseURL)
	a.log.Info("Scoreboards", "url", baseURL+"/api/matches")

	srv := &http.Server{Addr: addr, Handler: a.Router()}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		a.log.Info("Server stopped")
		return nil
	}
}

// BaseURL returns the configured scoreboard base URL
func (a *App) BaseURL() string {
	url, err := a.settings.GetBaseURL(context.Background())
	if err != nil {
		a.log.Warn("Failed to read base_url", "error", err)
		return ""
	}
	return url
}

// setDefaultBaseURL stores baseURL unless a usable one is configured.
// A localhost URL is replaced since phones cannot reach it.
func (a *App) setDefaultBaseURL(baseURL string) {
	ctx := context.Background()
	existing, err := a.settings.GetBaseURL(ctx)
	if err != nil {
		a.log.Warn("Failed to read base_url", "error", err)
		return
	}
	if existing != "" && !strings.Contains(existing, "localhost") {
		return
	}
	if err := a.settings.SetBaseURL(ctx, baseURL); err != nil {
		a.log.Warn("Failed to set default base_url", "error", err)
		return
	}
	a.log.Info("Default base URL set", "url", baseURL)
}

// seedFeedURL stores the feed URL from the environment if none is set
func (a *App) seedFeedURL(url string) {
	ctx := context.Background()
	existing, err := a.settings.GetFeedURL(ctx)
	if err != nil {
		a.log.Warn("Failed to read feed_url", "error", err)
		return
	}
	if existing != "" {
		return
	}
	if err := a.settings.SetFeedURL(ctx, url); err != nil {
		a.log.Warn("Failed to seed feed_url", "error", err)
		return
	}
	a.log.Info("Score feed configured", "url", url)
}
