package marketplace

import (
	"errors"
	"net/url"
)

// AmazonConfig holds configuration for the Amazon Selling Partner API integration
type AmazonConfig struct {
	// ClientID is the Login with Amazon application client id
	ClientID string
	// ClientSecret is the Login with Amazon application secret
	ClientSecret string
	// RefreshToken is the long-lived seller authorization
	RefreshToken string
	// RedirectURI is registered with the application; unused by the refresh grant
	RedirectURI string
	// TokenURL is the LWA token endpoint
	TokenURL string
	// APIBaseURL is the regional Selling Partner API endpoint
	APIBaseURL string
	// SellerID is the merchant token used by the Listings API
	SellerID string
	// MarketplaceID scopes reads and writes, e.g. ATVPDKIKX0DER for the US
	MarketplaceID string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// AmazonTokenURL is the Login with Amazon token endpoint
	AmazonTokenURL = "https://api.amazon.com/auth/o2/token"
	// AmazonNorthAmericaAPIURL is the North America Selling Partner API endpoint
	AmazonNorthAmericaAPIURL = "https://sellingpartnerapi-na.amazon.com"
	// AmazonUSMarketplaceID is the amazon.com marketplace
	AmazonUSMarketplaceID = "ATVPDKIKX0DER"
)

// Errors for Amazon configuration
var (
	ErrAmazonConfigInvalidAPIURL   = errors.New("amazon: API base URL is invalid")
	ErrAmazonConfigInvalidTokenURL = errors.New("amazon: token URL is invalid")
)

// NewAmazonConfig creates a new Amazon configuration with defaults
func NewAmazonConfig(clientID, clientSecret, refreshToken string) *AmazonConfig {
	return &AmazonConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		RefreshToken:   refreshToken,
		TokenURL:       AmazonTokenURL,
		APIBaseURL:     AmazonNorthAmericaAPIURL,
		MarketplaceID:  AmazonUSMarketplaceID,
		TimeoutSeconds: 30,
	}
}

// Validate fills defaults and checks endpoint URLs.
// Credentials are not required here; missing ones fail authentication on first use.
func (c *AmazonConfig) Validate() error {
	if c.TokenURL == "" {
		c.TokenURL = AmazonTokenURL
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = AmazonNorthAmericaAPIURL
	}
	if c.MarketplaceID == "" {
		c.MarketplaceID = AmazonUSMarketplaceID
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if !isHTTPURL(c.APIBaseURL) {
		return ErrAmazonConfigInvalidAPIURL
	}
	if !isHTTPURL(c.TokenURL) {
		return ErrAmazonConfigInvalidTokenURL
	}
	return nil
}

// HasCredentials reports whether the refresh grant can be attempted
func (c *AmazonConfig) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
