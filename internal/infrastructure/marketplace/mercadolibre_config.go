package marketplace

import (
	"errors"
	"strings"
)

// MercadoLibreConfig holds configuration for the MercadoLibre API integration
type MercadoLibreConfig struct {
	// ClientID is the application id
	ClientID string
	// ClientSecret is the application secret key
	ClientSecret string
	// RefreshToken is the seller's refresh token; MercadoLibre rotates it on every use
	RefreshToken string
	// RedirectURI must match the application's registered callback for code exchange
	RedirectURI string
	// APIBaseURL is the API endpoint
	APIBaseURL string
	// TokenURL defaults to APIBaseURL + /oauth/token
	TokenURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// MercadoLibreAPIURL is the production API endpoint
const MercadoLibreAPIURL = "https://api.mercadolibre.com"

// Errors for MercadoLibre configuration
var (
	ErrMercadoLibreConfigInvalidAPIURL   = errors.New("mercadolibre: API base URL is invalid")
	ErrMercadoLibreConfigInvalidTokenURL = errors.New("mercadolibre: token URL is invalid")
)

// NewMercadoLibreConfig creates a new MercadoLibre configuration with defaults
func NewMercadoLibreConfig(clientID, clientSecret, refreshToken string) *MercadoLibreConfig {
	return &MercadoLibreConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		RefreshToken:   refreshToken,
		APIBaseURL:     MercadoLibreAPIURL,
		TokenURL:       MercadoLibreAPIURL + "/oauth/token",
		TimeoutSeconds: 30,
	}
}

// Validate fills defaults and checks endpoint URLs.
// Credentials are not required here; missing ones fail authentication on first use.
func (c *MercadoLibreConfig) Validate() error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = MercadoLibreAPIURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.TokenURL == "" {
		c.TokenURL = c.APIBaseURL + "/oauth/token"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if !isHTTPURL(c.APIBaseURL) {
		return ErrMercadoLibreConfigInvalidAPIURL
	}
	if !isHTTPURL(c.TokenURL) {
		return ErrMercadoLibreConfigInvalidTokenURL
	}
	return nil
}

// HasClientCredentials reports whether the application credentials are set
func (c *MercadoLibreConfig) HasClientCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
