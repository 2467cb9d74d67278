// Package badger implements core.Storage on an embedded BadgerDB.
//
// Keys are laid out as "<namespace>/s/<key>" for string values and
// "<namespace>/i/<key>" for integer values, the latter stored as 8 bytes
// big-endian. Every write runs in its own transaction.
package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/dgraph-io/badger/v4"

	"github.com/aretw0/quicknote/pkg/core"
)

const (
	kindString = "s"
	kindInt    = "i"
)

// Config holds configuration for the BadgerDB storage.
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string
	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	ReadOnly   bool
	// Logger receives both adapter and BadgerDB internal logs. Nil is silent.
	Logger *slog.Logger
	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration
	// GCDiscardRatio defaults to 0.5.
	GCDiscardRatio float64
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Repository implements core.Storage on BadgerDB.
type Repository struct {
	config Config

	mu       sync.RWMutex
	db       *badger.DB
	stopGC   context.CancelFunc
	gcRuns   int
	closed   bool
	openedAt time.Time
}

// NewRepository creates a BadgerDB-backed storage.
// The database is opened by Initialize or by the first operation.
func NewRepository(config Config) *Repository {
	if config.GCDiscardRatio <= 0 || config.GCDiscardRatio >= 1 {
		config.GCDiscardRatio = 0.5
	}
	return &Repository{config: config}
}

// Initialize opens the database and starts value log GC.
func (r *Repository) Initialize(ctx context.Context) error {
	_, err := r.open(ctx)
	return err
}

func (r *Repository) open(ctx context.Context) (*badger.DB, error) {
	r.mu.RLock()
	db, closed := r.db, r.closed
	r.mu.RUnlock()
	if closed {
		return nil, errors.New("badger storage is closed")
	}
	if db != nil {
		return db, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("badger storage is closed")
	}
	if r.db != nil {
		return r.db, nil
	}

	var opts badger.Options
	if r.config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if r.config.Path == "" {
			return nil, errors.New("path is required for persistent database")
		}
		if !r.config.ReadOnly {
			if err := os.MkdirAll(r.config.Path, 0750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", r.config.Path, err)
			}
		}
		opts = badger.DefaultOptions(r.config.Path).WithReadOnly(r.config.ReadOnly)
	}
	opts = opts.WithSyncWrites(r.config.SyncWrites).WithNumVersionsToKeep(1)
	if r.config.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: r.config.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	r.db = db
	r.openedAt = time.Now()

	if r.config.GCInterval > 0 && !r.config.InMemory && !r.config.ReadOnly {
		gcCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		r.stopGC = cancel
		r.startGC(gcCtx, db)
	}
	return db, nil
}

// startGC runs value log GC until ctx is cancelled by Close.
func (r *Repository) startGC(ctx context.Context, db *badger.DB) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(r.config.GCInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				r.runGC(db)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		if r.config.Logger != nil {
			r.config.Logger.Error("badger gc panic", "error", err)
		}
	}))
}

func (r *Repository) runGC(db *badger.DB) {
	for {
		err := db.RunValueLogGC(r.config.GCDiscardRatio)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) && r.config.Logger != nil {
				r.config.Logger.Warn("badger gc failed", "error", err)
			}
			break
		}
	}
	r.mu.Lock()
	r.gcRuns++
	r.mu.Unlock()
}

// Close stops GC and closes the database. Further operations fail.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.stopGC != nil {
		r.stopGC()
	}
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func dbKey(ns core.Namespace, kind, key string) []byte {
	return []byte(string(ns) + "/" + kind + "/" + key)
}

// get returns the raw value of a key, or nil if it is absent.
func (r *Repository) get(ctx context.Context, k []byte) ([]byte, error) {
	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	var val []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", k, err)
	}
	return val, nil
}

func (r *Repository) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	db, err := r.open(ctx)
	if err != nil {
		return err
	}
	return db.Update(fn)
}

// GetString implements core.Storage.
func (r *Repository) GetString(ctx context.Context, ns core.Namespace, key, def string) (string, error) {
	val, err := r.get(ctx, dbKey(ns, kindString, key))
	if err != nil {
		return def, err
	}
	if val == nil {
		return def, nil
	}
	return string(val), nil
}

// GetInt64 implements core.Storage.
func (r *Repository) GetInt64(ctx context.Context, ns core.Namespace, key string, def int64) (int64, error) {
	val, err := r.get(ctx, dbKey(ns, kindInt, key))
	if err != nil {
		return def, err
	}
	if len(val) != 8 {
		if val != nil && r.config.Logger != nil {
			r.config.Logger.Warn("malformed integer value", "namespace", string(ns), "key", key)
		}
		return def, nil
	}
	return int64(binary.BigEndian.Uint64(val)), nil
}

// SetString implements core.Storage.
func (r *Repository) SetString(ctx context.Context, ns core.Namespace, key, value string) error {
	return r.update(ctx, func(txn *badger.Txn) error {
		return txn.Set(dbKey(ns, kindString, key), []byte(value))
	})
}

// SetInt64 implements core.Storage.
func (r *Repository) SetInt64(ctx context.Context, ns core.Namespace, key string, value int64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(value))
	return r.update(ctx, func(txn *badger.Txn) error {
		return txn.Set(dbKey(ns, kindInt, key), buf)
	})
}

// Delete implements core.Storage.
func (r *Repository) Delete(ctx context.Context, ns core.Namespace, keys ...string) error {
	return r.update(ctx, func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(dbKey(ns, kindString, k)); err != nil {
				return err
			}
			if err := txn.Delete(dbKey(ns, kindInt, k)); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ core.Storage = (*Repository)(nil)
