package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/stocksync/backend/internal/application/inventory"
	"github.com/stocksync/backend/internal/domain/inventory"
	"github.com/stocksync/backend/internal/domain/shared"
	"github.com/stocksync/backend/internal/infrastructure/auth"
	"github.com/stocksync/backend/internal/infrastructure/config"
	"github.com/stocksync/backend/internal/interfaces/http/handler"
	"github.com/stocksync/backend/internal/interfaces/http/middleware"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type emptyLogRepo struct{}

func (emptyLogRepo) Create(context.Context, *inventory.SyncLogEntry) error { return nil }

func (emptyLogRepo) FindRecent(context.Context, int) ([]inventory.SyncLogEntry, error) {
	return []inventory.SyncLogEntry{}, nil
}

func (emptyLogRepo) FindByID(context.Context, uuid.UUID) (*inventory.SyncLogEntry, error) {
	return nil, shared.ErrNotFound
}

// newTestEngine mounts every route. Product and reconciler services are nil,
// so tests must only reach them through rejected requests.
func newTestEngine(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Minute,
		Issuer:                "stocksync-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()

	engine := New(
		Config{
			ServiceName: "stocksync-test",
			CORS:        middleware.DefaultCORSConfig(),
			MaxBodySize: middleware.DefaultMaxBodySize,
			SyncSecret:  "cron-secret",
		},
		Handlers{
			Health:  handler.NewHealthHandler(okPinger{}, "test", nil),
			Auth:    handler.NewAuthHandler(nil, jwtService, blacklist, nil),
			Product: handler.NewProductHandler(nil),
			Sync:    handler.NewSyncHandler(nil, appinventory.NewSyncLogService(emptyLogRepo{})),
		},
		Security{JWT: jwtService, Blacklist: blacklist},
		nil,
	)
	return engine, jwtService
}

func serve(engine *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNew_RouteTable(t *testing.T) {
	engine, _ := newTestEngine(t)

	got := make(map[string]bool)
	for _, r := range engine.Routes() {
		got[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"GET /health",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/logout",
		"GET /api/v1/products",
		"POST /api/v1/products",
		"GET /api/v1/products/:id",
		"PUT /api/v1/products/:id/quantity",
		"PUT /api/v1/products/:id/marketplaces",
		"POST /api/v1/sync",
		"POST /api/v1/sync/scheduled",
		"GET /api/v1/sync/logs",
		"GET /api/v1/sync/logs/:id",
	}
	for _, route := range expected {
		assert.True(t, got[route], "missing route %s", route)
	}
	assert.Len(t, got, len(expected))
}

func TestNew_PublicRoutes(t *testing.T) {
	engine, _ := newTestEngine(t)

	t.Run("health", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("login is reachable without a token", func(t *testing.T) {
		w := serve(engine, http.MethodPost, "/api/v1/auth/login", "{}", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNew_ProtectedRoutes(t *testing.T) {
	engine, jwtService := newTestEngine(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/products"},
		{http.MethodPost, "/api/v1/products"},
		{http.MethodPut, "/api/v1/products/" + uuid.NewString() + "/quantity"},
		{http.MethodPost, "/api/v1/sync"},
		{http.MethodGet, "/api/v1/sync/logs"},
		{http.MethodPost, "/api/v1/auth/logout"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	t.Run("valid token passes", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken("admin")
		require.NoError(t, err)

		w := serve(engine, http.MethodGet, "/api/v1/sync/logs", "", map[string]string{
			"Authorization": "Bearer " + token.Token,
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestNew_ScheduledTrigger(t *testing.T) {
	engine, jwtService := newTestEngine(t)

	t.Run("missing secret", func(t *testing.T) {
		w := serve(engine, http.MethodPost, "/api/v1/sync/scheduled", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bearer token is not a substitute for the secret", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken("admin")
		require.NoError(t, err)

		w := serve(engine, http.MethodPost, "/api/v1/sync/scheduled", "", map[string]string{
			"Authorization": "Bearer " + token.Token,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
