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

// AmazonClient implements MarketplaceClient for the Amazon Selling Partner API.
// Reads use FBA inventory summaries; writes use the Listings Items API.
type AmazonClient struct {
	config     *AmazonConfig
	httpClient *http.Client
	logger     *zap.Logger
	tokens     *TokenCache
	instr      instrumentation
}

// NewAmazonClient creates a new Amazon client with the given configuration
func NewAmazonClient(config *AmazonConfig, opts ...Option) (*AmazonClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(config.TimeoutSeconds, opts)

	c := &AmazonClient{
		config:     config,
		httpClient: o.httpClient,
		logger:     o.logger.With(zap.String("marketplace", integration.MarketplaceAmazon.String())),
		instr:      instrumentation{marketplace: integration.MarketplaceAmazon.String(), recorder: o.recorder},
	}
	c.tokens = NewTokenCache(c.fetchToken, o.clock)
	return c, nil
}

// Code implements MarketplaceClient
func (c *AmazonClient) Code() integration.MarketplaceCode {
	return integration.MarketplaceAmazon
}

// Tokens exposes the client's token cache
func (c *AmazonClient) Tokens() *TokenCache {
	return c.tokens
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// Authenticate implements MarketplaceClient
func (c *AmazonClient) Authenticate(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

// fetchToken runs the LWA refresh_token grant
func (c *AmazonClient) fetchToken(ctx context.Context, _ *integration.CachedToken) (*TokenResponse, error) {
	if !c.config.HasCredentials() {
		return nil, fmt.Errorf("%w: %w: amazon refresh token or client credentials not set",
			integration.ErrAuthFailed, integration.ErrCredentialsMissing)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.config.RefreshToken)
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	body, err := doRequest(ctx, c.httpClient, apiRequest{
		method: http.MethodPost,
		url:    c.config.TokenURL,
		form:   form,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: amazon token exchange: %w", integration.ErrAuthFailed, err)
	}

	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: amazon token response: %w", integration.ErrAuthFailed, err)
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// Inventory Operations
// ---------------------------------------------------------------------------

// GetInventory implements MarketplaceClient. item.ExternalID is the seller SKU.
func (c *AmazonClient) GetInventory(ctx context.Context, item integration.ItemRef) integration.QuantityResult {
	var qty int
	err := c.instr.observe(ctx, opGetInventory, item, func(ctx context.Context) error {
		var err error
		qty, err = c.getInventory(ctx, item.ExternalID)
		return err
	})
	if err != nil {
		c.logger.Warn("Inventory read failed", zap.String("seller_sku", item.ExternalID), zap.Error(err))
		return integration.ErrQuantity(err)
	}
	return integration.OkQuantity(qty)
}

func (c *AmazonClient) getInventory(ctx context.Context, sellerSKU string) (int, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return 0, err
	}

	q := url.Values{}
	q.Set("details", "true")
	q.Set("granularityType", "Marketplace")
	q.Set("granularityId", c.config.MarketplaceID)
	q.Set("marketplaceIds", c.config.MarketplaceID)
	q.Set("sellerSkus", sellerSKU)

	body, err := doRequest(ctx, c.httpClient, apiRequest{
		method:  http.MethodGet,
		url:     c.config.APIBaseURL + "/fba/inventory/v1/summaries?" + q.Encode(),
		headers: map[string]string{"x-amz-access-token": token},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", integration.ErrRemoteReadFailed, err)
	}

	var resp AmazonInventorySummariesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %w: %v", integration.ErrRemoteReadFailed, integration.ErrInvalidResponse, err)
	}
	if resp.Payload == nil || len(resp.Payload.InventorySummaries) == 0 {
		return 0, fmt.Errorf("%w: %w: seller sku %s", integration.ErrRemoteReadFailed, integration.ErrItemNotFound, sellerSKU)
	}

	var unnamed *AmazonInventorySummary
	for i, s := range resp.Payload.InventorySummaries {
		if s.SellerSKU == sellerSKU {
			return s.TotalQuantity, nil
		}
		if s.SellerSKU == "" && unnamed == nil {
			unnamed = &resp.Payload.InventorySummaries[i]
		}
	}
	// Some responses omit the sku; the sellerSkus filter already scoped them
	if unnamed != nil {
		return unnamed.TotalQuantity, nil
	}
	return 0, fmt.Errorf("%w: %w: seller sku %s", integration.ErrRemoteReadFailed, integration.ErrItemNotFound, sellerSKU)
}

// UpdateInventory implements MarketplaceClient. item.ExternalID is the seller SKU.
func (c *AmazonClient) UpdateInventory(ctx context.Context, item integration.ItemRef, quantity int) integration.UpdateResult {
	err := c.instr.observe(ctx, opUpdateInventory, item, func(ctx context.Context) error {
		return c.updateInventory(ctx, item.ExternalID, quantity)
	})
	if err != nil {
		c.logger.Warn("Inventory write failed",
			zap.String("seller_sku", item.ExternalID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		return integration.ErrUpdate(err)
	}
	return integration.OkUpdate()
}

func (c *AmazonClient) updateInventory(ctx context.Context, sellerSKU string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %w", integration.ErrRemoteWriteFailed, integration.ErrInvalidQuantity)
	}
	if c.config.SellerID == "" {
		return fmt.Errorf("%w: %w: amazon seller id not set", integration.ErrRemoteWriteFailed, integration.ErrMarketplaceNotConfigured)
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	reqBody := AmazonListingPutRequest{
		SKU:          sellerSKU,
		ProductType:  "PRODUCT",
		Requirements: "LISTING_OFFER_ONLY",
		Attributes: AmazonListingAttributes{
			FulfillmentAvailability: []AmazonFulfillmentAvailability{{
				FulfillmentChannelCode: "DEFAULT",
				Quantity:               quantity,
				MarketplaceID:          c.config.MarketplaceID,
			}},
		},
	}

	endpoint := fmt.Sprintf("%s/listings/2021-08-01/items/%s/%s?marketplaceIds=%s",
		c.config.APIBaseURL,
		url.PathEscape(c.config.SellerID),
		url.PathEscape(sellerSKU),
		url.QueryEscape(c.config.MarketplaceID),
	)

	body, err := doRequest(ctx, c.httpClient, apiRequest{
		method:  http.MethodPut,
		url:     endpoint,
		headers: map[string]string{"x-amz-access-token": token},
		json:    reqBody,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", integration.ErrRemoteWriteFailed, err)
	}

	var resp AmazonListingSubmissionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %w: %v", integration.ErrRemoteWriteFailed, integration.ErrInvalidResponse, err)
	}
	if !resp.IsAccepted() {
		return fmt.Errorf("%w: submission %s: %s", integration.ErrRemoteWriteFailed, resp.Status, issueSummary(resp.Issues))
	}
	return nil
}

func issueSummary(issues []AmazonListingIssue) string {
	if len(issues) == 0 {
		return "no issues reported"
	}
	msgs := make([]string, 0, len(issues))
	for _, i := range issues {
		msgs = append(msgs, i.Code+": "+i.Message)
	}
	return strings.Join(msgs, "; ")
}

// Ensure AmazonClient implements MarketplaceClient
var _ integration.MarketplaceClient = (*AmazonClient)(nil)
