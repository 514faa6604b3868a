package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stocksync/backend/internal/interfaces/http/dto"
)

func newSyncSecretRouter(secret string, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.POST("/api/v1/sync/scheduled", SyncSecret(secret, log), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func postScheduled(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/scheduled", nil)
	if header != "" {
		req.Header.Set(SyncSecretHeader, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSyncSecret(t *testing.T) {
	router := newSyncSecretRouter("cron-secret", nil)

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"matching secret", "cron-secret", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong secret", "guess", http.StatusUnauthorized},
		{"prefix of secret", "cron", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postScheduled(router, tt.header)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
			}
		})
	}
}

func TestSyncSecret_Unconfigured(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	router := newSyncSecretRouter("", zap.New(core))

	w := postScheduled(router, "anything")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	entries := logs.FilterMessage("Scheduled trigger rejected").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, false, entries[0].ContextMap()["secret_configured"])
	}
}
