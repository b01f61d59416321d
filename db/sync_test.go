package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactshq/models"
)

func TestSyncStateLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncStateRepository(setupTestDB(t))

	state, err := repo.SyncState(ctx, "vcard")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, repo.SetSyncStatus(ctx, "vcard", models.SyncSyncing, nil))
	state, err = repo.SyncState(ctx, "vcard")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncSyncing, state.Status)
	assert.Nil(t, state.LastSyncTime)

	require.NoError(t, repo.SetSyncStatus(ctx, "vcard", models.SyncIdle, nil))
	state, err = repo.SyncState(ctx, "vcard")
	require.NoError(t, err)
	require.NotNil(t, state.LastSyncTime)
	synced := *state.LastSyncTime

	msg := "enumeration failed"
	require.NoError(t, repo.SetSyncStatus(ctx, "vcard", models.SyncError, &msg))
	state, err = repo.SyncState(ctx, "vcard")
	require.NoError(t, err)
	assert.Equal(t, models.SyncError, state.Status)
	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, msg, *state.ErrorMessage)
	require.NotNil(t, state.LastSyncTime, "an error keeps the last good sync time")
	assert.True(t, synced.Equal(*state.LastSyncTime))
}

func TestAllSyncStates(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncStateRepository(setupTestDB(t))

	require.NoError(t, repo.SetSyncStatus(ctx, "vcard", models.SyncIdle, nil))
	require.NoError(t, repo.SetSyncStatus(ctx, "google", models.SyncSyncing, nil))

	states, err := repo.AllSyncStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "google", states[0].Source)
	assert.Equal(t, "vcard", states[1].Source)
}
