package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/interfaces/http/dto"
)

// SyncSecretHeader carries the shared secret of the scheduled trigger
const SyncSecretHeader = "X-Sync-Secret"

// SyncSecret guards the scheduled trigger with a shared secret.
// An empty configured secret rejects every request, so an unconfigured
// deployment never exposes the trigger.
func SyncSecret(secret string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	expected := []byte(secret)

	return func(c *gin.Context) {
		provided := []byte(c.GetHeader(SyncSecretHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
			log.Warn("Scheduled trigger rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.Bool("secret_configured", len(expected) > 0),
				zap.Bool("header_present", len(provided) > 0),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"Invalid or missing sync secret",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
