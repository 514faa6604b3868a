package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stocksync/backend/internal/domain/integration"
)

// TokenExpiryMargin is subtracted from the server-provided lifetime so a
// token is refreshed before the marketplace starts rejecting it.
const TokenExpiryMargin = 300 * time.Second

// TokenResponse is the OAuth token endpoint payload shared by both marketplaces
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
}

// TokenFetcher exchanges credentials for a new token. current is the token
// being replaced (nil on first use) so rotated refresh tokens can be reused.
type TokenFetcher func(ctx context.Context, current *integration.CachedToken) (*TokenResponse, error)

// TokenCache holds one client's bearer token.
// Callers are serialized while a refresh is in flight, so concurrent callers
// with an expired token trigger a single exchange.
type TokenCache struct {
	mu        sync.Mutex
	token     *integration.CachedToken
	fetch     TokenFetcher
	clock     func() time.Time
	refreshes int
}

// NewTokenCache creates an empty cache. A nil clock means time.Now.
func NewTokenCache(fetch TokenFetcher, clock func() time.Time) *TokenCache {
	if clock == nil {
		clock = time.Now
	}
	return &TokenCache{fetch: fetch, clock: clock}
}

// Token returns the cached access token, refreshing it when absent or expired.
// Errors always wrap integration.ErrAuthFailed.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if c.token.Valid(now) {
		return c.token.AccessToken, nil
	}

	resp, err := c.fetch(ctx, c.token)
	if err != nil {
		if errors.Is(err, integration.ErrAuthFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", integration.ErrAuthFailed, err)
	}
	if resp == nil || resp.AccessToken == "" {
		return "", fmt.Errorf("%w: token endpoint returned no access token", integration.ErrAuthFailed)
	}

	c.store(resp, now)
	return c.token.AccessToken, nil
}

// Store replaces the cached token with a freshly issued one
func (c *TokenCache) Store(resp *TokenResponse) integration.CachedToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(resp, c.clock())
	return *c.token
}

func (c *TokenCache) store(resp *TokenResponse, now time.Time) {
	ttl := time.Duration(resp.ExpiresIn)*time.Second - TokenExpiryMargin
	if ttl < 0 {
		ttl = 0
	}

	refresh := resp.RefreshToken
	if refresh == "" && c.token != nil {
		refresh = c.token.RefreshToken
	}

	c.token = &integration.CachedToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(ttl),
	}
	c.refreshes++
}

// Peek returns a copy of the cached token without refreshing it
func (c *TokenCache) Peek() (integration.CachedToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return integration.CachedToken{}, false
	}
	return *c.token, true
}

// Refreshes returns how many tokens have been stored since creation
func (c *TokenCache) Refreshes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshes
}
