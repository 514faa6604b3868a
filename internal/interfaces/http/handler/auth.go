package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/infrastructure/auth"
	"github.com/stocksync/backend/internal/interfaces/http/middleware"
)

// CredentialVerifier checks dashboard credentials
type CredentialVerifier interface {
	Verify(username, password string) error
}

// LoginRequest represents the request body for dashboard login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
}

// LogoutResponse confirms a logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// AuthHandler handles dashboard login and logout
type AuthHandler struct {
	BaseHandler
	verifier  CredentialVerifier
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewAuthHandler creates a new auth handler. blacklist may be nil, in which
// case logout only acknowledges.
func NewAuthHandler(verifier CredentialVerifier, jwtService *auth.JWTService, blacklist auth.TokenBlacklist, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		verifier:  verifier,
		jwt:       jwtService,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	if err := h.verifier.Verify(req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrLoginNotConfigured) {
			h.logger.Error("Login attempted but dashboard password hash is not configured")
		} else {
			h.logger.Warn("Login failed",
				zap.String("username", req.Username),
				zap.String("client_ip", c.ClientIP()),
			)
		}
		h.Unauthorized(c, "Invalid username or password")
		return
	}

	token, err := h.jwt.GenerateAccessToken(req.Username)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("Login succeeded",
		zap.String("username", req.Username),
		zap.String("client_ip", c.ClientIP()),
	)
	h.Success(c, LoginResponse{
		AccessToken: token.Token,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		Username:    req.Username,
	})
}

// Logout handles POST /api/v1/auth/logout by revoking the presented token
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if h.blacklist != nil && claims.ID != "" {
		if err := h.blacklist.AddToBlacklist(c.Request.Context(), claims.ID, claims.GetRemainingTTL()); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	h.logger.Info("Logout", zap.String("username", claims.Username), zap.String("jti", claims.ID))
	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}
