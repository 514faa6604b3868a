package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appinventory "github.com/stocksync/backend/internal/application/inventory"
	"github.com/stocksync/backend/internal/domain/inventory"
	"github.com/stocksync/backend/internal/interfaces/http/dto"
)

// Reconciler runs one reconciliation batch
type Reconciler interface {
	Reconcile(ctx context.Context, trigger inventory.SyncTrigger) (*appinventory.SyncRunResult, error)
}

// SyncHandler triggers reconciliation runs and serves the audit log
type SyncHandler struct {
	BaseHandler
	reconciler     Reconciler
	syncLogService *appinventory.SyncLogService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(reconciler Reconciler, syncLogService *appinventory.SyncLogService) *SyncHandler {
	return &SyncHandler{
		reconciler:     reconciler,
		syncLogService: syncLogService,
	}
}

// Run handles POST /api/v1/sync
func (h *SyncHandler) Run(c *gin.Context) {
	h.reconcile(c, inventory.SyncTriggerManual)
}

// RunScheduled handles POST /api/v1/sync/scheduled, guarded by the sync secret
func (h *SyncHandler) RunScheduled(c *gin.Context) {
	h.reconcile(c, inventory.SyncTriggerScheduled)
}

// reconcile answers 200 for a batch that ran, partial included, 409 while
// another run holds the lock and 500 when the batch could not start
func (h *SyncHandler) reconcile(c *gin.Context, trigger inventory.SyncTrigger) {
	result, err := h.reconciler.Reconcile(c.Request.Context(), trigger)
	if err != nil {
		if errors.Is(err, appinventory.ErrSyncAlreadyRunning) {
			h.Error(c, http.StatusConflict, dto.ErrCodeSyncInProgress, "A sync is already in progress")
			return
		}
		h.HandleError(c, err)
		return
	}

	if result.Status == inventory.SyncLogStatusError {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeSyncFailed, result.Message, getRequestID(c))
		resp.Data = result
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	h.Success(c, result)
}

// ListLogs handles GET /api/v1/sync/logs?limit=N
func (h *SyncHandler) ListLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	logs, err := h.syncLogService.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, logs, int64(len(logs)), appinventory.EffectiveLogLimit(limit))
}

// GetLog handles GET /api/v1/sync/logs/:id
func (h *SyncHandler) GetLog(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	entry, err := h.syncLogService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}
