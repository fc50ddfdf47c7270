package dto

import (
	"time"

	"github.com/polkiloo/catalogsync/internal/domain/model"
)

// SyncStatsResponse reports lifetime run counters.
type SyncStatsResponse struct {
	TotalSyncs      int64   `json:"totalSyncs"`
	SuccessfulSyncs int64   `json:"successfulSyncs"`
	FailedSyncs     int64   `json:"failedSyncs"`
	LastError       *string `json:"lastError"`
}

// SyncStatusResponse describes the orchestrator state.
type SyncStatusResponse struct {
	IsRunning bool              `json:"isRunning"`
	LastSync  *time.Time        `json:"lastSync"`
	Stats     SyncStatsResponse `json:"stats"`
}

// SyncResultResponse reports a completed run.
type SyncResultResponse struct {
	Success         bool      `json:"success"`
	RunID           string    `json:"runId"`
	OrdersSynced    int       `json:"ordersSynced"`
	Errors          int       `json:"errors"`
	OrdersDeleted   int64     `json:"ordersDeleted"`
	ProductsDeleted int64     `json:"productsDeleted"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewSyncStatusResponse(s model.SyncStatus) SyncStatusResponse {
	resp := SyncStatusResponse{
		IsRunning: s.IsRunning,
		LastSync:  s.LastSync,
		Stats: SyncStatsResponse{
			TotalSyncs:      s.Stats.TotalSyncs,
			SuccessfulSyncs: s.Stats.SuccessfulSyncs,
			FailedSyncs:     s.Stats.FailedSyncs,
		},
	}
	if s.Stats.LastError != "" {
		lastErr := s.Stats.LastError
		resp.Stats.LastError = &lastErr
	}
	return resp
}

func NewSyncResultResponse(r *model.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		Success:         true,
		RunID:           r.RunID,
		OrdersSynced:    r.OrdersSynced,
		Errors:          r.Errors,
		OrdersDeleted:   r.OrdersDeleted,
		ProductsDeleted: r.ProductsDeleted,
		Timestamp:       r.Timestamp,
	}
}
