package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stocksync/backend/internal/domain/inventory"
)

// SyncLogModel is the persistence model for SyncLogEntry.
// Rows are inserted once and never updated.
type SyncLogModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key"`
	Status      string         `gorm:"type:varchar(16);not null"`
	Policy      string         `gorm:"type:varchar(32);not null"`
	Trigger     string         `gorm:"column:trigger_source;type:varchar(16);not null"`
	Message     string         `gorm:"type:text;not null"`
	SyncedCount int            `gorm:"not null;default:0"`
	ErrorCount  int            `gorm:"not null;default:0"`
	TotalSales  int            `gorm:"not null;default:0"`
	Details     datatypes.JSON `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"not null;index:idx_sync_logs_created_at"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLogEntry.
func (m *SyncLogModel) ToDomain() (*inventory.SyncLogEntry, error) {
	details := []inventory.ProductSyncDetail{}
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &details); err != nil {
			return nil, fmt.Errorf("decode sync log %s details: %w", m.ID, err)
		}
	}
	return &inventory.SyncLogEntry{
		ID:          m.ID,
		Status:      inventory.SyncLogStatus(m.Status),
		Policy:      inventory.SyncPolicy(m.Policy),
		Trigger:     inventory.SyncTrigger(m.Trigger),
		Message:     m.Message,
		SyncedCount: m.SyncedCount,
		ErrorCount:  m.ErrorCount,
		TotalSales:  m.TotalSales,
		Details:     details,
		CreatedAt:   m.CreatedAt,
	}, nil
}

// SyncLogModelFromDomain creates a persistence model from a domain SyncLogEntry.
func SyncLogModelFromDomain(e *inventory.SyncLogEntry) (*SyncLogModel, error) {
	details := e.Details
	if details == nil {
		details = []inventory.ProductSyncDetail{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode sync log details: %w", err)
	}
	return &SyncLogModel{
		ID:          e.ID,
		Status:      string(e.Status),
		Policy:      string(e.Policy),
		Trigger:     string(e.Trigger),
		Message:     e.Message,
		SyncedCount: e.SyncedCount,
		ErrorCount:  e.ErrorCount,
		TotalSales:  e.TotalSales,
		Details:     datatypes.JSON(raw),
		CreatedAt:   e.CreatedAt,
	}, nil
}
