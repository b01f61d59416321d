// ABOUTME: Per-source import bookkeeping shared by the stores and the importer
// ABOUTME: Mirrors the idle/syncing/error states shown in the import view
package models

import "time"

type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncError   SyncStatus = "error"
)

// SyncState is the last known import state for one contact source.
type SyncState struct {
	Source       string     `json:"source"`
	Status       SyncStatus `json:"status"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
