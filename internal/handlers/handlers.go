package handlers

import (
	"github.com/abrezinsky/coinche/internal/auth"
	"github.com/abrezinsky/coinche/internal/services"
	"github.com/abrezinsky/coinche/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Matches  services.MatchServicer
	Settings services.SettingsServicer
	Share    services.ShareServicer
	Auth     *auth.Auth
	Hub      *websocket.Hub
	Log      HTTPLogger
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	matches services.MatchServicer,
	settings services.SettingsServicer,
	share services.ShareServicer,
	scorekeeperAuth *auth.Auth,
	hub *websocket.Hub,
	log HTTPLogger,
) *Handlers {
	return &Handlers{
		Matches:  matches,
		Settings: settings,
		Share:    share,
		Auth:     scorekeeperAuth,
		Hub:      hub,
		Log:      log,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// NewForTesting creates a Handlers instance with a known scorekeeper password
// and no websocket hub
func NewForTesting(
	matches services.MatchServicer,
	settings services.SettingsServicer,
	share services.ShareServicer,
) *Handlers {
	// Create a test auth with a known password
	testAuth := auth.New("test-password")
	return &Handlers{
		Matches:  matches,
		Settings: settings,
		Share:    share,
		Auth:     testAuth,
		Log:      NoopHTTPLogger{},
	}
}
