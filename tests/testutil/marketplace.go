package testutil

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stocksync/backend/internal/infrastructure/config"
	"github.com/stocksync/backend/internal/infrastructure/marketplace"
)

const (
	fakeAmazonToken = "amz-access-token"
	fakeMeliToken   = "meli-access-token"
	fakeSellerID    = "A1SELLER"
)

// Push records one inventory write received by a fake marketplace
type Push struct {
	Key      string
	Quantity int
}

// FakeMarketplaces serves the subset of the Amazon Selling Partner and
// MercadoLibre APIs the clients use, backed by in-memory stock.
// MercadoLibre keys are "ITEM" or "ITEM/VARIATION".
type FakeMarketplaces struct {
	Amazon       *httptest.Server
	MercadoLibre *httptest.Server

	mu          sync.Mutex
	amazonStock map[string]int
	meliStock   map[string]int
	amazonPush  []Push
	meliPush    []Push
	failAmazon  bool
}

// NewFakeMarketplaces starts both fake APIs; they are closed at test cleanup
func NewFakeMarketplaces(t *testing.T) *FakeMarketplaces {
	t.Helper()

	f := &FakeMarketplaces{
		amazonStock: make(map[string]int),
		meliStock:   make(map[string]int),
	}
	f.Amazon = httptest.NewServer(f.amazonRoutes())
	f.MercadoLibre = httptest.NewServer(f.meliRoutes())
	t.Cleanup(func() {
		f.Amazon.Close()
		f.MercadoLibre.Close()
	})
	return f
}

// Config points both marketplace clients at the fakes
func (f *FakeMarketplaces) Config() config.MarketplaceConfig {
	return config.MarketplaceConfig{
		Amazon: config.MarketplaceCredentials{
			Enabled:       true,
			ClientID:      "amzn-client",
			ClientSecret:  "amzn-secret",
			RefreshToken:  "Atzr|refresh",
			TokenURL:      f.Amazon.URL + "/auth/o2/token",
			APIBaseURL:    f.Amazon.URL,
			SellerID:      fakeSellerID,
			MarketplaceID: marketplace.AmazonUSMarketplaceID,
		},
		MercadoLibre: config.MarketplaceCredentials{
			Enabled:      true,
			ClientID:     "meli-client",
			ClientSecret: "meli-secret",
			RefreshToken: "TG-refresh",
			TokenURL:     f.MercadoLibre.URL + "/oauth/token",
			APIBaseURL:   f.MercadoLibre.URL,
		},
	}
}

// SetAmazon sets the stock of a seller SKU
func (f *FakeMarketplaces) SetAmazon(sku string, qty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amazonStock[sku] = qty
}

// SetMercadoLibre sets the stock of an item, or of one of its variations
func (f *FakeMarketplaces) SetMercadoLibre(itemID, variationID string, qty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meliStock[meliKey(itemID, variationID)] = qty
}

// AmazonQuantity returns the current stock of a seller SKU
func (f *FakeMarketplaces) AmazonQuantity(sku string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amazonStock[sku]
}

// MercadoLibreQuantity returns the current stock of an item or variation
func (f *FakeMarketplaces) MercadoLibreQuantity(itemID, variationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meliStock[meliKey(itemID, variationID)]
}

// AmazonPushes returns the writes received so far
func (f *FakeMarketplaces) AmazonPushes() []Push {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Push(nil), f.amazonPush...)
}

// MercadoLibrePushes returns the writes received so far
func (f *FakeMarketplaces) MercadoLibrePushes() []Push {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Push(nil), f.meliPush...)
}

// FailAmazonWrites makes listing updates answer 500
func (f *FakeMarketplaces) FailAmazonWrites(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAmazon = fail
}

func meliKey(itemID, variationID string) string {
	if variationID == "" {
		return itemID
	}
	return itemID + "/" + variationID
}

func requireToken(header, prefix, token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(header) != prefix+token {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "invalid token"})
			return
		}
		c.Next()
	}
}

func (f *FakeMarketplaces) amazonRoutes() http.Handler {
	r := gin.New()
	r.POST("/auth/o2/token", func(c *gin.Context) {
		c.JSON(http.StatusOK, marketplace.TokenResponse{
			AccessToken: fakeAmazonToken,
			TokenType:   "bearer",
			ExpiresIn:   3600,
		})
	})

	api := r.Group("", requireToken("x-amz-access-token", "", fakeAmazonToken))
	api.GET("/fba/inventory/v1/summaries", func(c *gin.Context) {
		sku := c.Query("sellerSkus")
		f.mu.Lock()
		qty, ok := f.amazonStock[sku]
		f.mu.Unlock()

		payload := &marketplace.AmazonInventoryPayload{InventorySummaries: []marketplace.AmazonInventorySummary{}}
		if ok {
			payload.InventorySummaries = append(payload.InventorySummaries, marketplace.AmazonInventorySummary{
				SellerSKU:     sku,
				TotalQuantity: qty,
			})
		}
		c.JSON(http.StatusOK, marketplace.AmazonInventorySummariesResponse{Payload: payload})
	})
	api.PUT("/listings/2021-08-01/items/:seller/:sku", func(c *gin.Context) {
		var req marketplace.AmazonListingPutRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Attributes.FulfillmentAvailability) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []marketplace.AmazonError{{Code: "InvalidInput", Message: "bad body"}}})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failAmazon {
			c.JSON(http.StatusInternalServerError, gin.H{"errors": []marketplace.AmazonError{{Code: "InternalFailure", Message: "try later"}}})
			return
		}
		sku := c.Param("sku")
		qty := req.Attributes.FulfillmentAvailability[0].Quantity
		f.amazonStock[sku] = qty
		f.amazonPush = append(f.amazonPush, Push{Key: sku, Quantity: qty})
		c.JSON(http.StatusOK, marketplace.AmazonListingSubmissionResponse{
			SKU:          sku,
			Status:       "ACCEPTED",
			SubmissionID: "sub-" + sku,
		})
	})
	return r
}

func (f *FakeMarketplaces) meliRoutes() http.Handler {
	r := gin.New()
	r.POST("/oauth/token", func(c *gin.Context) {
		c.JSON(http.StatusOK, marketplace.TokenResponse{
			AccessToken:  fakeMeliToken,
			RefreshToken: "TG-rotated",
			TokenType:    "bearer",
			ExpiresIn:    21600,
		})
	})

	api := r.Group("", requireToken("Authorization", "Bearer ", fakeMeliToken))
	api.GET("/items/:id", func(c *gin.Context) {
		id := c.Param("id")
		f.mu.Lock()
		defer f.mu.Unlock()

		item := marketplace.MercadoLibreItem{ID: id}
		found := false
		if qty, ok := f.meliStock[id]; ok {
			item.AvailableQuantity = qty
			found = true
		}
		keys := make([]string, 0, len(f.meliStock))
		for k := range f.meliStock {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if variation, ok := strings.CutPrefix(k, id+"/"); ok {
				item.Variations = append(item.Variations, marketplace.MercadoLibreVariation{
					ID:                marketplace.VariationID(variation),
					AvailableQuantity: f.meliStock[k],
				})
				found = true
			}
		}
		if !found {
			c.JSON(http.StatusNotFound, marketplace.MercadoLibreError{Message: "item not found", Error: "not_found", Status: http.StatusNotFound})
			return
		}
		c.JSON(http.StatusOK, item)
	})
	api.PUT("/items/:id", func(c *gin.Context) {
		var update marketplace.MercadoLibreStockUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, marketplace.MercadoLibreError{Message: err.Error(), Error: "bad_request", Status: http.StatusBadRequest})
			return
		}

		id := c.Param("id")
		f.mu.Lock()
		defer f.mu.Unlock()
		if update.AvailableQuantity != nil {
			f.meliStock[id] = *update.AvailableQuantity
			f.meliPush = append(f.meliPush, Push{Key: id, Quantity: *update.AvailableQuantity})
		}
		for _, v := range update.Variations {
			key := meliKey(id, v.ID.String())
			f.meliStock[key] = v.AvailableQuantity
			f.meliPush = append(f.meliPush, Push{Key: key, Quantity: v.AvailableQuantity})
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}
