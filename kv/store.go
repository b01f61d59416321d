// ABOUTME: Badger-backed person repository, an alternative to the SQLite store
// ABOUTME: People are CBOR records under person/<uuid> with an external-id index
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/models"
)

const (
	personPrefix   = "person/"
	externalPrefix = "external/"
	syncPrefix     = "sync_state/"
	sequenceKey    = "seq/person"
)

var ErrDuplicate = errors.New("duplicate record")

// Store keeps people and import state in a Badger database.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens (or creates) the store in dir. An empty dir opens an in-memory store.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	if logger != nil {
		opts = opts.WithLogger(badgerLogger{logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), 64)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sequence: %w", err)
	}
	return &Store{db: db, seq: seq}, nil
}

func (s *Store) Close() error {
	relErr := s.seq.Release()
	if err := s.db.Close(); err != nil {
		return err
	}
	return relErr
}

// IsTransient reports whether a write lost a transaction conflict and can be retried.
func IsTransient(err error) bool {
	return errors.Is(err, badger.ErrConflict)
}

func personKey(id uuid.UUID) []byte {
	return []byte(personPrefix + id.String())
}

func externalKey(externalID string) []byte {
	return []byte(externalPrefix + externalID)
}

func (s *Store) Insert(ctx context.Context, p *models.Person) error {
	return s.InsertBatch(ctx, []*models.Person{p})
}

// InsertBatch writes every person or none. A batch too large for one Badger
// transaction is committed in chunks, and committed chunks are deleted again
// when a later chunk fails.
func (s *Store) InsertBatch(_ context.Context, people []*models.Person) error {
	now := nowUTC()
	seqs := make([]uint64, len(people))
	for i, p := range people {
		seq, err := s.seq.Next()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		seqs[i] = seq
		p.CreatedAt = now
		p.UpdatedAt = now
	}

	for done := 0; done < len(people); {
		n, err := s.writeChunk(people[done:], seqs[done:])
		if err != nil {
			if rbErr := s.removePeople(people[:done]); rbErr != nil {
				return errors.Join(err, fmt.Errorf("failed to roll back partial batch: %w", rbErr))
			}
			return err
		}
		done += n
	}
	return nil
}

// writeChunk commits the longest prefix of people that fits in one transaction
// and reports its length.
func (s *Store) writeChunk(people []*models.Person, seqs []uint64) (int, error) {
	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	n := len(people)
	for i, p := range people {
		err := insertPerson(txn, p, seqs[i])
		if errors.Is(err, badger.ErrTxnTooBig) && i > 0 {
			// The failed person may be half written; replay the ones before it.
			txn.Discard()
			txn = s.db.NewTransaction(true)
			for j := 0; j < i; j++ {
				if err := insertPerson(txn, people[j], seqs[j]); err != nil {
					return 0, err
				}
			}
			n = i
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if err := txn.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func insertPerson(txn *badger.Txn, p *models.Person, seq uint64) error {
	if _, err := txn.Get(personKey(p.ID())); err == nil {
		return fmt.Errorf("%w: person %s", ErrDuplicate, p.ID())
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return putPerson(txn, p, seq, "")
}

func (s *Store) removePeople(people []*models.Person) error {
	if len(people) == 0 {
		return nil
	}
	wb := s.db.NewWriteBatch()
	for _, p := range people {
		if err := wb.Delete(personKey(p.ID())); err != nil {
			wb.Cancel()
			return err
		}
		if p.ExternalID == "" {
			continue
		}
		if err := wb.Delete(externalKey(p.ExternalID)); err != nil {
			wb.Cancel()
			return err
		}
	}
	return wb.Flush()
}

func (s *Store) Update(_ context.Context, p *models.Person) error {
	return s.db.Update(func(txn *badger.Txn) error {
		old, err := getRecord(txn, p.ID())
		if err != nil {
			return err
		}
		p.CreatedAt = fromUnixNano(old.CreatedAt)
		p.UpdatedAt = nowUTC()
		return putPerson(txn, p, old.Seq, old.ExternalID)
	})
}

func putPerson(txn *badger.Txn, p *models.Person, seq uint64, previousExternalID string) error {
	if p.ExternalID != previousExternalID {
		if p.ExternalID != "" {
			if _, err := txn.Get(externalKey(p.ExternalID)); err == nil {
				return fmt.Errorf("%w: external id %q", ErrDuplicate, p.ExternalID)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(externalKey(p.ExternalID), []byte(p.ID().String())); err != nil {
				return err
			}
		}
		if previousExternalID != "" {
			if err := txn.Delete(externalKey(previousExternalID)); err != nil {
				return err
			}
		}
	}

	data, err := encodePerson(p, seq)
	if err != nil {
		return err
	}
	return txn.Set(personKey(p.ID()), data)
}

func getRecord(txn *badger.Txn, id uuid.UUID) (*personRecord, error) {
	item, err := txn.Get(personKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, gateway.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec *personRecord
	err = item.Value(func(val []byte) error {
		rec, err = decodeRecord(val)
		return err
	})
	return rec, err
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*models.Person, error) {
	var p *models.Person
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		p, err = rec.person()
		return err
	})
	return p, err
}

// List returns every person in insertion order.
func (s *Store) List(_ context.Context) ([]*models.Person, error) {
	var recs []*personRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(personPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := decodeRecord(val)
				if err != nil {
					return fmt.Errorf("failed to decode %s: %w", it.Item().Key(), err)
				}
				recs = append(recs, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	people := make([]*models.Person, 0, len(recs))
	for _, rec := range recs {
		p, err := rec.person()
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		if rec.ExternalID != "" {
			if err := txn.Delete(externalKey(rec.ExternalID)); err != nil {
				return err
			}
		}
		return txn.Delete(personKey(id))
	})
}

// Flush syncs the value log to disk.
func (s *Store) Flush(context.Context) error {
	return s.db.Sync()
}

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.s.Debugf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(f, v...) }
