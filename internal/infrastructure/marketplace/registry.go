package marketplace

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/infrastructure/config"
)

// Registry holds the marketplace clients enabled for this process
type Registry struct {
	mu      sync.RWMutex
	clients map[integration.MarketplaceCode]integration.MarketplaceClient
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[integration.MarketplaceCode]integration.MarketplaceClient),
	}
}

// Register adds a client, replacing any client with the same code
func (r *Registry) Register(client integration.MarketplaceClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.Code()] = client
}

// Get returns the client for a marketplace
func (r *Registry) Get(code integration.MarketplaceCode) (integration.MarketplaceClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[code]
	return c, ok
}

// Codes returns the registered marketplace codes in sorted order
func (r *Registry) Codes() []integration.MarketplaceCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]integration.MarketplaceCode, 0, len(r.clients))
	for code := range r.clients {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// NewRegistryFromConfig builds a client for every enabled marketplace.
// Options such as WithLogger apply to all clients.
func NewRegistryFromConfig(cfg config.MarketplaceConfig, opts ...Option) (*Registry, error) {
	r := NewRegistry()

	if cfg.Amazon.Enabled {
		c, err := NewAmazonClient(AmazonConfigFromCredentials(cfg.Amazon), opts...)
		if err != nil {
			return nil, fmt.Errorf("amazon client: %w", err)
		}
		r.Register(c)
	}

	if cfg.MercadoLibre.Enabled {
		c, err := NewMercadoLibreClient(MercadoLibreConfigFromCredentials(cfg.MercadoLibre), opts...)
		if err != nil {
			return nil, fmt.Errorf("mercadolibre client: %w", err)
		}
		r.Register(c)
	}

	return r, nil
}

// AmazonConfigFromCredentials maps loaded configuration onto an AmazonConfig
func AmazonConfigFromCredentials(c config.MarketplaceCredentials) *AmazonConfig {
	return &AmazonConfig{
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		RefreshToken:   c.RefreshToken,
		RedirectURI:    c.RedirectURI,
		TokenURL:       c.TokenURL,
		APIBaseURL:     c.APIBaseURL,
		SellerID:       c.SellerID,
		MarketplaceID:  c.MarketplaceID,
		TimeoutSeconds: c.TimeoutSeconds,
	}
}

// MercadoLibreConfigFromCredentials maps loaded configuration onto a MercadoLibreConfig
func MercadoLibreConfigFromCredentials(c config.MarketplaceCredentials) *MercadoLibreConfig {
	return &MercadoLibreConfig{
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		RefreshToken:   c.RefreshToken,
		RedirectURI:    c.RedirectURI,
		APIBaseURL:     c.APIBaseURL,
		TokenURL:       c.TokenURL,
		TimeoutSeconds: c.TimeoutSeconds,
	}
}
