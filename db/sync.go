// ABOUTME: Database operations for the sync_state table
// ABOUTME: Tracks per-source import status so a failed import can be shown and retried
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/contactshq/models"
)

// SyncStateRepository records import status per contact source.
type SyncStateRepository struct {
	db *sql.DB
}

func NewSyncStateRepository(db *sql.DB) *SyncStateRepository {
	return &SyncStateRepository{db: db}
}

// SyncState retrieves the state for a source, or nil when it has never run.
func (r *SyncStateRepository) SyncState(ctx context.Context, source string) (*models.SyncState, error) {
	var state models.SyncState
	var status string
	var lastSyncTime sql.NullTime
	var errorMessage sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT service, status, last_sync_time, error_message, updated_at
		FROM sync_state
		WHERE service = ?
	`, source).Scan(&state.Source, &status, &lastSyncTime, &errorMessage, &state.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	state.Status = models.SyncStatus(status)
	if lastSyncTime.Valid {
		t := lastSyncTime.Time
		state.LastSyncTime = &t
	}
	state.ErrorMessage = nullString(errorMessage)
	return &state, nil
}

// SetSyncStatus records the status for a source. A successful idle status also
// stamps the last sync time.
func (r *SyncStateRepository) SetSyncStatus(ctx context.Context, source string, status models.SyncStatus, errorMsg *string) error {
	now := time.Now().UTC()
	var synced any
	if status == models.SyncIdle && errorMsg == nil {
		synced = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (service, status, last_sync_time, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			last_sync_time = COALESCE(excluded.last_sync_time, sync_state.last_sync_time),
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, source, string(status), synced, errorMsg, now, now)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// AllSyncStates returns every recorded source ordered by name.
func (r *SyncStateRepository) AllSyncStates(ctx context.Context) ([]models.SyncState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT service FROM sync_state ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}
	_ = rows.Close()

	states := make([]models.SyncState, 0, len(sources))
	for _, s := range sources {
		st, err := r.SyncState(ctx, s)
		if err != nil {
			return nil, err
		}
		if st != nil {
			states = append(states, *st)
		}
	}
	return states, nil
}
