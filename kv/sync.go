// ABOUTME: Import status bookkeeping for the Badger store
// ABOUTME: One CBOR record per contact source under sync_state/<source>
package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/fxamacker/cbor/v2"

	"github.com/harperreed/contactshq/models"
)

func syncKey(source string) []byte {
	return []byte(syncPrefix + source)
}

// SyncState retrieves the state for a source, or nil when it has never run.
func (s *Store) SyncState(_ context.Context, source string) (*models.SyncState, error) {
	var state *models.SyncState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(syncKey(source))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var rec syncRecord
			if err := cbor.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("failed to decode sync state: %w", err)
			}
			state = rec.state(source)
			return nil
		})
	})
	return state, err
}

// SetSyncStatus records the status for a source. A successful idle status also
// stamps the last sync time.
func (s *Store) SetSyncStatus(_ context.Context, source string, status models.SyncStatus, errorMsg *string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var rec syncRecord
		item, err := txn.Get(syncKey(source))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error { return cbor.Unmarshal(val, &rec) }); err != nil {
				return fmt.Errorf("failed to decode sync state: %w", err)
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		now := nowUTC().UnixNano()
		rec.Status = string(status)
		rec.ErrorMessage = errorMsg
		rec.UpdatedAt = now
		if status == models.SyncIdle && errorMsg == nil {
			rec.LastSyncTime = now
		}

		data, err := encMode.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(syncKey(source), data)
	})
}

// AllSyncStates returns every recorded source ordered by name.
func (s *Store) AllSyncStates(_ context.Context) ([]models.SyncState, error) {
	var states []models.SyncState
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(syncPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			source := strings.TrimPrefix(string(it.Item().Key()), syncPrefix)
			err := it.Item().Value(func(val []byte) error {
				var rec syncRecord
				if err := cbor.Unmarshal(val, &rec); err != nil {
					return err
				}
				states = append(states, *rec.state(source))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	sort.Slice(states, func(i, j int) bool { return states[i].Source < states[j].Source })
	return states, err
}

func (rec syncRecord) state(source string) *models.SyncState {
	st := &models.SyncState{
		Source:       source,
		Status:       models.SyncStatus(rec.Status),
		ErrorMessage: rec.ErrorMessage,
		UpdatedAt:    fromUnixNano(rec.UpdatedAt),
	}
	if rec.LastSyncTime != 0 {
		t := fromUnixNano(rec.LastSyncTime)
		st.LastSyncTime = &t
	}
	return st
}
