package inventory

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stocksync/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tests := []struct {
		name     string
		sku      string
		prodName string
		qty      int
		wantCode string
	}{
		{"valid", "SKU-001", "Blue Mug", 12, ""},
		{"trims input", "  SKU-002 ", " Red Mug ", 0, ""},
		{"empty sku", "", "Mug", 1, "INVALID_SKU"},
		{"long sku", strings.Repeat("x", 65), "Mug", 1, "INVALID_SKU"},
		{"empty name", "SKU-3", "  ", 1, "INVALID_NAME"},
		{"negative quantity", "SKU-4", "Mug", -1, "INVALID_QUANTITY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProduct(tt.sku, tt.prodName, tt.qty)
			if tt.wantCode != "" {
				var de *shared.DomainError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, tt.wantCode, de.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.sku), p.SKU)
			assert.Equal(t, strings.TrimSpace(tt.prodName), p.Name)
			assert.Equal(t, tt.qty, p.WarehouseQuantity)
			assert.Equal(t, 1, p.Version)
			assert.Nil(t, p.LastSyncedAt)
			assert.False(t, p.HasAmazon())
			assert.False(t, p.HasMercadoLibre())
		})
	}
}

func TestProduct_SetWarehouseQuantity(t *testing.T) {
	p, err := NewProduct("SKU-1", "Mug", 10)
	require.NoError(t, err)
	p.AmazonQuantity = 8

	require.NoError(t, p.SetWarehouseQuantity(25))
	assert.Equal(t, 25, p.WarehouseQuantity)
	assert.Equal(t, 8, p.AmazonQuantity, "manual edit only touches the warehouse")

	assert.ErrorIs(t, p.SetWarehouseQuantity(-3), ErrNegativeQuantity)
	assert.Equal(t, 25, p.WarehouseQuantity)
}

func TestProduct_LinkMarketplaces(t *testing.T) {
	p, err := NewProduct("SKU-1", "Mug", 10)
	require.NoError(t, err)

	require.NoError(t, p.LinkMarketplaces("AMZ-1", "MLA123", "987"))
	assert.True(t, p.HasAmazon())
	assert.True(t, p.HasMercadoLibre())
	assert.Equal(t, "987", *p.MercadoLibreVariationID)

	require.NoError(t, p.LinkMarketplaces("", " MLA123 ", ""))
	assert.False(t, p.HasAmazon())
	assert.Equal(t, "MLA123", *p.MercadoLibreItemID)
	assert.Nil(t, p.MercadoLibreVariationID)

	err = p.LinkMarketplaces("AMZ-1", "", "987")
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_MARKETPLACE_LINK", de.Code)
}

func TestProduct_ApplySalesDelta(t *testing.T) {
	p, err := NewProduct("SKU-1", "Mug", 100)
	require.NoError(t, err)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, p.ApplySalesDelta(97, at))

	assert.Equal(t, 97, p.WarehouseQuantity)
	assert.Equal(t, 97, p.AmazonQuantity)
	assert.Equal(t, 97, p.MercadoLibreQuantity)
	require.NotNil(t, p.LastSyncedAt)
	assert.Equal(t, at, *p.LastSyncedAt)

	assert.ErrorIs(t, p.ApplySalesDelta(-1, at), ErrNegativeQuantity)
}

func TestProduct_ApplyOverwrite(t *testing.T) {
	p, err := NewProduct("SKU-1", "Mug", 40)
	require.NoError(t, err)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, p.ApplyOverwrite(38, 41, at))

	assert.Equal(t, 40, p.WarehouseQuantity, "warehouse untouched")
	assert.Equal(t, 38, p.AmazonQuantity)
	assert.Equal(t, 41, p.MercadoLibreQuantity)
	assert.Equal(t, at, *p.LastSyncedAt)

	assert.ErrorIs(t, p.ApplyOverwrite(1, -1, at), ErrNegativeQuantity)
}
