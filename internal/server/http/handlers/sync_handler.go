package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/catalogsync/internal/server/http/dto"
)

// SyncHandler exposes sync status and manual triggers.
type SyncHandler struct {
	facade SyncFacade
}

// NewSyncHandler constructs SyncHandler.
func NewSyncHandler(facade SyncFacade) *SyncHandler {
	return &SyncHandler{facade: facade}
}

// Status handles GET /api/v1/sync/status.
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, dto.Envelope{Success: true, Data: dto.NewSyncStatusResponse(h.facade.SyncStatus())})
}

// Trigger handles POST /api/v1/sync/trigger and waits for the run to finish.
func (h *SyncHandler) Trigger(c *gin.Context) {
	result, err := h.facade.RunSync(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		respondError(c, err, "Sync not found")
		return
	}

	c.JSON(http.StatusOK, dto.Envelope{
		Success: true,
		Message: "Sync completed successfully",
		Data:    dto.NewSyncResultResponse(result),
	})
}
