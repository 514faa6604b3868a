package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksync/backend/internal/infrastructure/auth"
	"github.com/stocksync/backend/internal/infrastructure/config"
	"github.com/stocksync/backend/internal/interfaces/http/dto"
)

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: expiration,
		Issuer:                "stocksync-test",
	})
}

func newJWTRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/api/v1/products", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, GetJWTUsername(c))
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	return router
}

func serve(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(AuthHeaderKey, authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return resp.Error.Code
}

type failingBlacklist struct{}

func (failingBlacklist) AddToBlacklist(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	token, err := jwtService.GenerateAccessToken("operator")
	require.NoError(t, err)

	w := serve(newJWTRouter(DefaultJWTConfig(jwtService)), "/api/v1/products", BearerPrefix+token.Token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "operator", w.Body.String())
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	router := newJWTRouter(DefaultJWTConfig(jwtService))

	otherService := auth.NewJWTService(config.JWTConfig{
		Secret:                "another-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Minute,
		Issuer:                "stocksync-test",
	})
	forged, err := otherService.GenerateAccessToken("operator")
	require.NoError(t, err)

	expired, err := newTestJWTService(-time.Minute).GenerateAccessToken("operator")
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		wantCode   string
	}{
		{"missing header", "", dto.ErrCodeTokenInvalid},
		{"wrong scheme", "Basic dXNlcjpwYXNz", dto.ErrCodeTokenInvalid},
		{"empty bearer", "Bearer ", dto.ErrCodeTokenInvalid},
		{"garbage token", "Bearer not-a-jwt", dto.ErrCodeTokenInvalid},
		{"wrong signature", BearerPrefix + forged.Token, dto.ErrCodeTokenInvalid},
		{"expired", BearerPrefix + expired.Token, dto.ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, "/api/v1/products", tt.authHeader)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	cfg := DefaultJWTConfig(jwtService)
	cfg.SkipPathPrefixes = []string{"/api/v1/products"}

	router := newJWTRouter(DefaultJWTConfig(jwtService))
	w := serve(router, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Skipped routes run without claims
	w = serve(newJWTRouter(cfg), "/api/v1/products", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestJWTAuthMiddleware_Blacklist(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	token, err := jwtService.GenerateAccessToken("operator")
	require.NoError(t, err)
	claims, err := jwtService.ValidateAccessToken(token.Token)
	require.NoError(t, err)

	t.Run("revoked token is rejected", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Minute))

		cfg := DefaultJWTConfig(jwtService)
		cfg.TokenBlacklist = blacklist
		w := serve(newJWTRouter(cfg), "/api/v1/products", BearerPrefix+token.Token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, w))
	})

	t.Run("blacklist outage fails open", func(t *testing.T) {
		cfg := DefaultJWTConfig(jwtService)
		cfg.TokenBlacklist = failingBlacklist{}
		w := serve(newJWTRouter(cfg), "/api/v1/products", BearerPrefix+token.Token)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestJWTAuthMiddleware_OnError(t *testing.T) {
	var got error
	cfg := DefaultJWTConfig(newTestJWTService(time.Minute))
	cfg.OnError = func(c *gin.Context, err error) {
		got = err
		c.AbortWithStatus(http.StatusTeapot)
	}

	w := serve(newJWTRouter(cfg), "/api/v1/products", "")

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.ErrorIs(t, got, auth.ErrInvalidToken)
}
