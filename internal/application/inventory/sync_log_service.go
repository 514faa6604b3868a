package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/stocksync/backend/internal/domain/inventory"
)

const (
	// DefaultLogLimit is the number of log entries listed when no limit is given
	DefaultLogLimit = 20
	// MaxLogLimit caps the number of log entries per request
	MaxLogLimit = 100
)

// EffectiveLogLimit applies the default and the cap to a requested limit
func EffectiveLogLimit(limit int) int {
	if limit <= 0 {
		return DefaultLogLimit
	}
	if limit > MaxLogLimit {
		return MaxLogLimit
	}
	return limit
}

// SyncLogService reads the reconciliation audit log
type SyncLogService struct {
	logRepo inventory.SyncLogRepository
}

// NewSyncLogService creates a new SyncLogService
func NewSyncLogService(logRepo inventory.SyncLogRepository) *SyncLogService {
	return &SyncLogService{logRepo: logRepo}
}

// ListRecent returns the newest entries without per-product details
func (s *SyncLogService) ListRecent(ctx context.Context, limit int) ([]SyncLogResponse, error) {
	entries, err := s.logRepo.FindRecent(ctx, EffectiveLogLimit(limit))
	if err != nil {
		return nil, err
	}

	out := make([]SyncLogResponse, len(entries))
	for i := range entries {
		out[i] = ToSyncLogResponse(&entries[i], false)
	}
	return out, nil
}

// Get returns one entry with its per-product details
func (s *SyncLogService) Get(ctx context.Context, id uuid.UUID) (*SyncLogResponse, error) {
	entry, err := s.logRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSyncLogResponse(entry, true)
	return &resp, nil
}
