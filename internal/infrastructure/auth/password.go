package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/stocksync/backend/internal/infrastructure/config"
)

const bcryptCost = 12

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrLoginNotConfigured = errors.New("dashboard password hash is not configured")
)

// HashPassword returns the bcrypt hash stored in dashboard.password_hash
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// DashboardAuthenticator checks logins against the single configured operator
type DashboardAuthenticator struct {
	username     string
	passwordHash []byte
}

// NewDashboardAuthenticator creates an authenticator from configuration
func NewDashboardAuthenticator(cfg config.DashboardConfig) *DashboardAuthenticator {
	return &DashboardAuthenticator{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
	}
}

// Verify returns ErrInvalidCredentials for any mismatch. The password hash is
// compared even when the username does not match.
func (a *DashboardAuthenticator) Verify(username, password string) error {
	if len(a.passwordHash) == 0 {
		return ErrLoginNotConfigured
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}
