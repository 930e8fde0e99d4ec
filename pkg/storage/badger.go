// Package storage archives evaluation runs in BadgerDB.
//
// The archive is opt-in: the evaluator keeps no state between runs unless a
// storage directory is configured.
//
// Key Structure:
//   - Runs:        "run:" + 20-digit unix nanos + ":" + id -> JSON(RunRecord)
//   - ID index:    "id:" + id -> run key
//   - Input index: "fp:" + fingerprint -> run key of the latest run
//
// Run keys sort chronologically, so List walks them in reverse for newest-first.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orneryd/explaineval/pkg/eval"
)

var (
	prefixRun         = []byte("run:")
	prefixID          = []byte("id:")
	prefixFingerprint = []byte("fp:")
)

// Options configures a RunStore.
type Options struct {
	// Dir is the badger directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Logger receives badger's own messages. Nil silences them.
	Logger *zap.Logger
}

// RunStore is a badger-backed archive of RunRecords.
//
// Safe for concurrent use from multiple goroutines.
type RunStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) a run archive in dir.
func Open(dir string) (*RunStore, error) {
	return OpenWithOptions(Options{Dir: dir})
}

// OpenInMemory opens an archive that is lost on Close.
func OpenInMemory() (*RunStore, error) {
	return OpenWithOptions(Options{InMemory: true})
}

// OpenWithOptions opens a run archive.
func OpenWithOptions(opts Options) (*RunStore, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(&badgerLogger{opts.Logger.Sugar().Named("badger")})
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	// Runs are a few hundred bytes each; keep the footprint small.
	badgerOpts = badgerOpts.
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithBlockCacheSize(8 << 20).
		WithIndexCacheSize(4 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &RunStore{db: db}, nil
}

// NewRunRecord builds a record for result with a fresh ID.
func NewRunRecord(result *eval.EvalResult, fingerprint string) RunRecord {
	return RunRecord{
		ID:                 uuid.NewString(),
		Fingerprint:        fingerprint,
		PredictionsPath:    result.PredictionsPath,
		AnnotationsPath:    result.AnnotationsPath,
		MaxAt:              result.Curve.MaxAt,
		Timestamp:          result.Timestamp,
		Entities:           result.Entities,
		ExplainableItems:   result.ExplainableItems,
		UnexplainableItems: result.UnexplainableItems,
		Explainable:        result.Curve.Explainable,
		Total:              result.Curve.Total,
	}
}

// Save stores rec and updates the ID and fingerprint indexes.
// A zero Timestamp is set to now; an empty ID is assigned a UUID.
func (s *RunStore) Save(rec *RunRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStorageClosed
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	key := runKey(rec.Timestamp, rec.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		if err := txn.Set(indexKey(prefixID, rec.ID), key); err != nil {
			return err
		}
		if rec.Fingerprint != "" {
			return txn.Set(indexKey(prefixFingerprint, rec.Fingerprint), key)
		}
		return nil
	})
}

// Get returns the run with the given ID.
func (s *RunStore) Get(id string) (*RunRecord, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	return s.lookup(indexKey(prefixID, id))
}

// FindByFingerprint returns the latest run with the given input fingerprint.
func (s *RunStore) FindByFingerprint(fingerprint string) (*RunRecord, error) {
	if fingerprint == "" {
		return nil, ErrInvalidID
	}
	return s.lookup(indexKey(prefixFingerprint, fingerprint))
}

func (s *RunStore) lookup(index []byte) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStorageClosed
	}

	var rec RunRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(index)
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err = txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (s *RunStore) List(limit int) ([]*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStorageClosed
	}

	var runs []*RunRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefixRun
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(bytes.Clone(prefixRun), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefixRun); it.Next() {
			var rec RunRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("failed to decode run %s: %w", it.Item().Key(), err)
			}
			runs = append(runs, &rec)
			if limit > 0 && len(runs) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Close closes the underlying database. Further calls return ErrStorageClosed.
func (s *RunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func runKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixRun, ts.UnixNano(), id))
}

func indexKey(prefix []byte, id string) []byte {
	return append(bytes.Clone(prefix), id...)
}

// badgerLogger adapts zap to badger.Logger.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

// IsNotFound reports whether err means the run does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
