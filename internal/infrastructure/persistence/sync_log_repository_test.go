package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksync/backend/internal/domain/inventory"
	"github.com/stocksync/backend/internal/domain/shared"
)

func TestGormSyncLogRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	t.Run("creates and reads back details", func(t *testing.T) {
		repo := NewGormSyncLogRepository(newTestDatabase(t).DB)
		updated := true
		details := []inventory.ProductSyncDetail{
			{ProductID: uuid.New(), SKU: "SKU-1", PreviousAmazon: 100, CurrentAmazon: 97, SalesAmazon: 3, PushedQuantity: 97, AmazonUpdated: &updated},
			{ProductID: uuid.New(), SKU: "SKU-2", Error: "amazon: auth failed"},
		}
		entry := inventory.NewSyncLogEntry(inventory.SyncPolicySalesDelta, inventory.SyncTriggerManual, details, base)

		require.NoError(t, repo.Create(ctx, entry))

		found, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.SyncLogStatusPartial, found.Status)
		assert.Equal(t, inventory.SyncPolicySalesDelta, found.Policy)
		assert.Equal(t, inventory.SyncTriggerManual, found.Trigger)
		assert.Equal(t, 1, found.SyncedCount)
		assert.Equal(t, 1, found.ErrorCount)
		assert.Equal(t, 3, found.TotalSales)
		require.Len(t, found.Details, 2)
		assert.Equal(t, 97, found.Details[0].PushedQuantity)
		require.NotNil(t, found.Details[0].AmazonUpdated)
		assert.True(t, *found.Details[0].AmazonUpdated)
		assert.Nil(t, found.Details[0].MercadoLibreUpdated)
		assert.Equal(t, "amazon: auth failed", found.Details[1].Error)
	})

	t.Run("failed entry stores empty details", func(t *testing.T) {
		repo := NewGormSyncLogRepository(newTestDatabase(t).DB)
		entry := inventory.NewFailedSyncLogEntry(inventory.SyncPolicyOverwrite, inventory.SyncTriggerScheduled, errors.New("connection refused"), base)

		require.NoError(t, repo.Create(ctx, entry))

		found, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.SyncLogStatusError, found.Status)
		assert.Empty(t, found.Details)
		assert.Contains(t, found.Message, "connection refused")
	})

	t.Run("FindRecent returns newest first with limit", func(t *testing.T) {
		repo := NewGormSyncLogRepository(newTestDatabase(t).DB)
		for i := 0; i < 5; i++ {
			entry := inventory.NewSyncLogEntry(inventory.SyncPolicySalesDelta, inventory.SyncTriggerScheduled, nil, base.Add(time.Duration(i)*time.Hour))
			require.NoError(t, repo.Create(ctx, entry))
		}

		entries, err := repo.FindRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.True(t, entries[0].CreatedAt.Equal(base.Add(4*time.Hour)))
		assert.True(t, entries[1].CreatedAt.Equal(base.Add(3*time.Hour)))
		assert.True(t, entries[2].CreatedAt.Equal(base.Add(2*time.Hour)))
	})

	t.Run("FindByID not found", func(t *testing.T) {
		repo := NewGormSyncLogRepository(newTestDatabase(t).DB)
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
