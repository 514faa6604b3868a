package integration

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarketplaceCode(t *testing.T) {
	assert.True(t, MarketplaceAmazon.IsValid())
	assert.True(t, MarketplaceMercadoLibre.IsValid())
	assert.False(t, MarketplaceCode("EBAY").IsValid())

	assert.Equal(t, "Amazon", MarketplaceAmazon.DisplayName())
	assert.Equal(t, "MercadoLibre", MarketplaceMercadoLibre.DisplayName())
	assert.Equal(t, "EBAY", MarketplaceCode("EBAY").DisplayName())
}

func TestCachedToken_Valid(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	var nilToken *CachedToken
	assert.False(t, nilToken.Valid(now))
	assert.False(t, (&CachedToken{ExpiresAt: now.Add(time.Hour)}).Valid(now), "empty access token")
	assert.True(t, (&CachedToken{AccessToken: "a", ExpiresAt: now.Add(time.Second)}).Valid(now))
	assert.False(t, (&CachedToken{AccessToken: "a", ExpiresAt: now}).Valid(now), "expiry is exclusive")
	assert.False(t, (&CachedToken{AccessToken: "a", ExpiresAt: now.Add(-time.Minute)}).Valid(now))
}

func TestQuantityResult(t *testing.T) {
	t.Run("zero is a real quantity", func(t *testing.T) {
		r := OkQuantity(0)

		assert.True(t, r.Ok())
		assert.NoError(t, r.Err())
		assert.Equal(t, 0, r.OrElse(42))
		assert.Equal(t, "Ok(0)", r.String())
	})

	t.Run("failure keeps the reason", func(t *testing.T) {
		r := ErrQuantity(ErrVariantNotFound)

		assert.False(t, r.Ok())
		assert.True(t, errors.Is(r.Err(), ErrVariantNotFound))
		assert.Equal(t, 42, r.OrElse(42))
	})

	t.Run("nil reason defaults to read failure", func(t *testing.T) {
		assert.ErrorIs(t, ErrQuantity(nil).Err(), ErrRemoteReadFailed)
	})
}

func TestUpdateResult(t *testing.T) {
	assert.True(t, OkUpdate().Ok())
	assert.False(t, ErrUpdate(ErrAuthFailed).Ok())
	assert.ErrorIs(t, ErrUpdate(nil).Err(), ErrRemoteWriteFailed)
}
