package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/fieldline/erp-realtime-backend/internal/adapters/primary/realtime"
	"github.com/fieldline/erp-realtime-backend/internal/auth"
	"github.com/fieldline/erp-realtime-backend/internal/config"
	"github.com/fieldline/erp-realtime-backend/internal/core/mocks"
)

func newWSHandler(t *testing.T, cfg *config.Config) *WebSocketHandler {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	hub := realtime.NewHub(nil, clockwork.NewFakeClock(), realtime.DefaultPingInterval, logger)
	messages := realtime.NewMessageHandler(hub, new(mocks.MockEventDispatcher), logger)
	tm := auth.NewTokenManager("test-secret", time.Hour)
	return NewWebSocketHandler(hub, messages, tm, cfg, logger)
}

func productionConfig(origins ...string) *config.Config {
	return &config.Config{
		Realtime: config.RealtimeConfig{
			AllowedOrigins:  origins,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		App: config.AppConfig{Environment: "production"},
	}
}

func TestWebSocketHandler_OriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		origin  string
		allowed bool
	}{
		{
			name:    "development allows any origin",
			cfg:     &config.Config{App: config.AppConfig{Environment: "development"}},
			origin:  "http://anywhere.example",
			allowed: true,
		},
		{
			name:    "production allows exact match",
			cfg:     productionConfig("dashboard.fieldline.io"),
			origin:  "https://dashboard.fieldline.io",
			allowed: true,
		},
		{
			name:    "production allows wildcard subdomain",
			cfg:     productionConfig("*.fieldline.io"),
			origin:  "https://ops.fieldline.io",
			allowed: true,
		},
		{
			name:    "production rejects unknown origin",
			cfg:     productionConfig("dashboard.fieldline.io"),
			origin:  "https://evil.example",
			allowed: false,
		},
		{
			name:    "no origin header is allowed",
			cfg:     productionConfig("dashboard.fieldline.io"),
			origin:  "",
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newWSHandler(t, tt.cfg)
			checker := handler.makeOriginChecker(tt.cfg)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.allowed, checker(req))
		})
	}
}

func TestWebSocketHandler_RejectsMissingToken(t *testing.T) {
	handler := newWSHandler(t, productionConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocketHandler_RejectsInvalidToken(t *testing.T) {
	handler := newWSHandler(t, productionConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=not-a-jwt", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
