package model

import "time"

// SyncStats accumulates run outcomes for the lifetime of the process.
type SyncStats struct {
	TotalSyncs      int64
	SuccessfulSyncs int64
	FailedSyncs     int64
	LastError       string
}

// SyncStatus is a snapshot of the sync orchestrator state.
type SyncStatus struct {
	IsRunning bool
	LastSync  *time.Time
	Stats     SyncStats
}

// OrderSyncResult reports a single pass over the remote order feed.
type OrderSyncResult struct {
	Synced int
	Errors int
}

// CleanupResult reports retention cleanup outcome.
type CleanupResult struct {
	Deleted         int64
	ProductsDeleted int64
}

// SyncResult combines order sync and cleanup of a completed run.
type SyncResult struct {
	RunID           string
	OrdersSynced    int
	Errors          int
	OrdersDeleted   int64
	ProductsDeleted int64
	Timestamp       time.Time
}
