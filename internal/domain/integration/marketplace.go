package integration

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Marketplace Errors
// ---------------------------------------------------------------------------

var (
	// ErrAuthFailed covers a failed token exchange and missing credentials
	ErrAuthFailed = errors.New("integration: marketplace authentication failed")
	// ErrCredentialsMissing is wrapped together with ErrAuthFailed
	ErrCredentialsMissing = errors.New("integration: marketplace credentials missing")

	ErrRemoteReadFailed         = errors.New("integration: marketplace inventory read failed")
	ErrRemoteWriteFailed        = errors.New("integration: marketplace inventory write failed")
	ErrItemNotFound             = errors.New("integration: marketplace item not found")
	ErrVariantNotFound          = errors.New("integration: marketplace variant not found")
	ErrInvalidResponse          = errors.New("integration: invalid marketplace response")
	ErrMarketplaceNotConfigured = errors.New("integration: marketplace not configured")
	ErrInvalidQuantity          = errors.New("integration: quantity cannot be negative")
)

// ---------------------------------------------------------------------------
// MarketplaceCode
// ---------------------------------------------------------------------------

// MarketplaceCode identifies an outbound marketplace
type MarketplaceCode string

const (
	// MarketplaceAmazon is the North American marketplace (Selling Partner API)
	MarketplaceAmazon MarketplaceCode = "AMAZON"
	// MarketplaceMercadoLibre is the Latin American marketplace
	MarketplaceMercadoLibre MarketplaceCode = "MERCADOLIBRE"
)

// IsValid returns true if the marketplace code is known
func (c MarketplaceCode) IsValid() bool {
	switch c {
	case MarketplaceAmazon, MarketplaceMercadoLibre:
		return true
	default:
		return false
	}
}

// String returns the string representation of MarketplaceCode
func (c MarketplaceCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the marketplace
func (c MarketplaceCode) DisplayName() string {
	switch c {
	case MarketplaceAmazon:
		return "Amazon"
	case MarketplaceMercadoLibre:
		return "MercadoLibre"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// CachedToken
// ---------------------------------------------------------------------------

// CachedToken is a short-lived bearer token held in memory by one client.
// It is replaced wholesale on refresh and never persisted.
type CachedToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the token can still be used at now
func (t *CachedToken) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// QuantityResult is the outcome of an inventory read: either a quantity
// (which may legitimately be zero) or the reason no quantity is available.
type QuantityResult struct {
	quantity int
	err      error
}

// OkQuantity wraps a quantity reported by the marketplace
func OkQuantity(quantity int) QuantityResult {
	return QuantityResult{quantity: quantity}
}

// ErrQuantity wraps the reason a read produced no quantity
func ErrQuantity(reason error) QuantityResult {
	if reason == nil {
		reason = ErrRemoteReadFailed
	}
	return QuantityResult{err: reason}
}

// Ok reports whether the read produced a quantity
func (r QuantityResult) Ok() bool {
	return r.err == nil
}

// Quantity returns the quantity; it is zero when the read failed
func (r QuantityResult) Quantity() int {
	return r.quantity
}

// Err returns the failure reason, or nil
func (r QuantityResult) Err() error {
	return r.err
}

// OrElse returns the quantity, or fallback when the read failed
func (r QuantityResult) OrElse(fallback int) int {
	if r.err != nil {
		return fallback
	}
	return r.quantity
}

// String implements fmt.Stringer
func (r QuantityResult) String() string {
	if r.err != nil {
		return fmt.Sprintf("Err(%v)", r.err)
	}
	return fmt.Sprintf("Ok(%d)", r.quantity)
}

// UpdateResult is the outcome of an inventory write
type UpdateResult struct {
	err error
}

// OkUpdate marks a write the marketplace accepted
func OkUpdate() UpdateResult {
	return UpdateResult{}
}

// ErrUpdate wraps the reason a write was not applied
func ErrUpdate(reason error) UpdateResult {
	if reason == nil {
		reason = ErrRemoteWriteFailed
	}
	return UpdateResult{err: reason}
}

// Ok reports whether the write was applied
func (r UpdateResult) Ok() bool {
	return r.err == nil
}

// Err returns the failure reason, or nil
func (r UpdateResult) Err() error {
	return r.err
}

// ---------------------------------------------------------------------------
// MarketplaceClient Port
// ---------------------------------------------------------------------------

// ItemRef addresses one listing on a marketplace. VariantID is only
// meaningful for marketplaces that keep stock per variation.
type ItemRef struct {
	ExternalID string
	VariantID  string
}

// MarketplaceClient is the port to one marketplace's inventory API.
//
// Reads and writes never return Go errors: failures are carried in the result
// so a batch can continue, while the reason stays inspectable.
type MarketplaceClient interface {
	// Code returns the marketplace this client talks to
	Code() MarketplaceCode

	// Authenticate returns a valid access token, refreshing it when the cached
	// one is absent or expired. Failures wrap ErrAuthFailed.
	Authenticate(ctx context.Context) (string, error)

	// GetInventory reads the current quantity of one item (or variant)
	GetInventory(ctx context.Context, item ItemRef) QuantityResult

	// UpdateInventory sets the absolute quantity of one item (or variant)
	UpdateInventory(ctx context.Context, item ItemRef, quantity int) UpdateResult
}
