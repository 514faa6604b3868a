package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/domain/integration"
)

// MercadoLibreClient implements MarketplaceClient for MercadoLibre.
// Stock lives on the item, or on each variation when the item has variations.
type MercadoLibreClient struct {
	config     *MercadoLibreConfig
	httpClient *http.Client
	logger     *zap.Logger
	tokens     *TokenCache
	instr      instrumentation
}

// NewMercadoLibreClient creates a new MercadoLibre client with the given configuration
func NewMercadoLibreClient(config *MercadoLibreConfig, opts ...Option) (*MercadoLibreClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(config.TimeoutSeconds, opts)

	c := &MercadoLibreClient{
		config:     config,
		httpClient: o.httpClient,
		logger:     o.logger.With(zap.String("marketplace", integration.MarketplaceMercadoLibre.String())),
		instr:      instrumentation{marketplace: integration.MarketplaceMercadoLibre.String(), recorder: o.recorder},
	}
	c.tokens = NewTokenCache(c.fetchToken, o.clock)
	return c, nil
}

// Code implements MarketplaceClient
func (c *MercadoLibreClient) Code() integration.MarketplaceCode {
	return integration.MarketplaceMercadoLibre
}

// Tokens exposes the client's token cache
func (c *MercadoLibreClient) Tokens() *TokenCache {
	return c.tokens
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// Authenticate implements MarketplaceClient
func (c *MercadoLibreClient) Authenticate(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

// fetchToken runs the refresh_token grant, preferring the most recently
// rotated refresh token over the configured one.
func (c *MercadoLibreClient) fetchToken(ctx context.Context, current *integration.CachedToken) (*TokenResponse, error) {
	refresh := c.config.RefreshToken
	if current != nil && current.RefreshToken != "" {
		refresh = current.RefreshToken
	}
	if !c.config.HasClientCredentials() || refresh == "" {
		return nil, fmt.Errorf("%w: %w: mercadolibre refresh token or client credentials not set",
			integration.ErrAuthFailed, integration.ErrCredentialsMissing)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("refresh_token", refresh)
	return c.requestToken(ctx, form)
}

// ExchangeAuthorizationCode trades a one-time authorization code for tokens and
// caches the result. The returned refresh token is what operators store in config.
func (c *MercadoLibreClient) ExchangeAuthorizationCode(ctx context.Context, code string) (integration.CachedToken, error) {
	if !c.config.HasClientCredentials() || code == "" {
		return integration.CachedToken{}, fmt.Errorf("%w: %w: client credentials and code are required",
			integration.ErrAuthFailed, integration.ErrCredentialsMissing)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("code", code)
	if c.config.RedirectURI != "" {
		form.Set("redirect_uri", c.config.RedirectURI)
	}

	resp, err := c.requestToken(ctx, form)
	if err != nil {
		return integration.CachedToken{}, err
	}
	if resp.AccessToken == "" {
		return integration.CachedToken{}, fmt.Errorf("%w: token endpoint returned no access token", integration.ErrAuthFailed)
	}
	return c.tokens.Store(resp), nil
}

func (c *MercadoLibreClient) requestToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	body, err := doRequest(ctx, c.httpClient, apiRequest{
		method: http.MethodPost,
		url:    c.config.TokenURL,
		form:   form,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: mercadolibre token exchange: %w", integration.ErrAuthFailed, err)
	}

	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: mercadolibre token response: %w", integration.ErrAuthFailed, err)
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// Inventory Operations
// ---------------------------------------------------------------------------

// GetInventory implements MarketplaceClient. When item.VariantID is set the
// quantity of that variation is returned, or ErrVariantNotFound.
func (c *MercadoLibreClient) GetInventory(ctx context.Context, item integration.ItemRef) integration.QuantityResult {
	var qty int
	err := c.instr.observe(ctx, opGetInventory, item, func(ctx context.Context) error {
		var err error
		qty, err = c.getInventory(ctx, item)
		return err
	})
	if err != nil {
		c.logger.Warn("Inventory read failed",
			zap.String("item_id", item.ExternalID),
			zap.String("variation_id", item.VariantID),
			zap.Error(err),
		)
		return integration.ErrQuantity(err)
	}
	return integration.OkQuantity(qty)
}

func (c *MercadoLibreClient) getInventory(ctx context.Context, ref integration.ItemRef) (int, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return 0, err
	}

	body, err := doRequest(ctx, c.httpClient, apiRequest{
		method:  http.MethodGet,
		url:     c.itemURL(ref.ExternalID),
		headers: map[string]string{"Authorization": "Bearer " + token},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", integration.ErrRemoteReadFailed, err)
	}

	var item MercadoLibreItem
	if err := json.Unmarshal(body, &item); err != nil {
		return 0, fmt.Errorf("%w: %w: %v", integration.ErrRemoteReadFailed, integration.ErrInvalidResponse, err)
	}

	if ref.VariantID == "" {
		return item.AvailableQuantity, nil
	}
	v, ok := item.FindVariation(ref.VariantID)
	if !ok {
		return 0, fmt.Errorf("%w: %w: item %s variation %s",
			integration.ErrRemoteReadFailed, integration.ErrVariantNotFound, ref.ExternalID, ref.VariantID)
	}
	return v.AvailableQuantity, nil
}

// UpdateInventory implements MarketplaceClient
func (c *MercadoLibreClient) UpdateInventory(ctx context.Context, item integration.ItemRef, quantity int) integration.UpdateResult {
	err := c.instr.observe(ctx, opUpdateInventory, item, func(ctx context.Context) error {
		return c.updateInventory(ctx, item, quantity)
	})
	if err != nil {
		c.logger.Warn("Inventory write failed",
			zap.String("item_id", item.ExternalID),
			zap.String("variation_id", item.VariantID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		return integration.ErrUpdate(err)
	}
	return integration.OkUpdate()
}

func (c *MercadoLibreClient) updateInventory(ctx context.Context, ref integration.ItemRef, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %w", integration.ErrRemoteWriteFailed, integration.ErrInvalidQuantity)
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	var update MercadoLibreStockUpdate
	if ref.VariantID != "" {
		update.Variations = []MercadoLibreVariation{{
			ID:                VariationID(ref.VariantID),
			AvailableQuantity: quantity,
		}}
	} else {
		q := quantity
		update.AvailableQuantity = &q
	}

	_, err = doRequest(ctx, c.httpClient, apiRequest{
		method:  http.MethodPut,
		url:     c.itemURL(ref.ExternalID),
		headers: map[string]string{"Authorization": "Bearer " + token},
		json:    update,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", integration.ErrRemoteWriteFailed, err)
	}
	return nil
}

func (c *MercadoLibreClient) itemURL(itemID string) string {
	return c.config.APIBaseURL + "/items/" + url.PathEscape(strings.TrimSpace(itemID))
}

// Ensure MercadoLibreClient implements MarketplaceClient
var _ integration.MarketplaceClient = (*MercadoLibreClient)(nil)
