// Package storage provides the storage backend for foodweb.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for different data types
const (
	prefixSnapshot = "s:" // snapshot data
)

// BadgerBackend is a BadgerDB-backed storage implementation.
type BadgerBackend struct {
	db          *badger.DB
	initialized bool
	readOnly    bool
	mu          sync.RWMutex
	logger      *slog.Logger
}

// NewBadgerBackend creates a new BadgerDB backend. Badger's own log output is
// forwarded to logger; a nil logger uses slog.Default().
func NewBadgerBackend(logger *slog.Logger) *BadgerBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerBackend{logger: logger}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithLogger(badgerLogger{b.logger})

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	b.readOnly = readOnly
	b.logger.Debug("snapshot store opened", "path", path, "read_only", readOnly)
	return nil
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

// Put stores the snapshot, replacing any snapshot with the same name.
func (b *BadgerBackend) Put(ctx context.Context, snap Snapshot) error {
	if snap.Name == "" {
		return ErrEmptyName
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.writable(); err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.snapshotKey(snap.Name), data)
	})
	if err != nil {
		return fmt.Errorf("setting snapshot: %w", err)
	}
	return nil
}

// Get returns the named snapshot, or nil if it does not exist.
func (b *BadgerBackend) Get(ctx context.Context, name string) (*Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.initialized {
		return nil, ErrNotInitialized
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(b.snapshotKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}

	var snap Snapshot
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &snap)
	}); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}

	return &snap, nil
}

// List returns the names of all stored snapshots in lexical order.
func (b *BadgerBackend) List(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.initialized {
		return nil, ErrNotInitialized
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixSnapshot)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	// Badger iterates keys in byte order, which is the order we want.
	names := make([]string, 0)
	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := string(it.Item().Key())
		names = append(names, strings.TrimPrefix(key, prefixSnapshot))
	}

	return names, nil
}

// Delete removes the named snapshot. Returns true if it existed.
func (b *BadgerBackend) Delete(ctx context.Context, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.writable(); err != nil {
		return false, err
	}

	existed := false
	err := b.db.Update(func(txn *badger.Txn) error {
		key := b.snapshotKey(name)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("deleting snapshot: %w", err)
	}
	return existed, nil
}

// writable must be called with the lock held.
func (b *BadgerBackend) writable() error {
	if !b.initialized {
		return ErrNotInitialized
	}
	if b.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (b *BadgerBackend) snapshotKey(name string) []byte {
	return []byte(prefixSnapshot + name)
}

// badgerLogger forwards badger's printf-style logging to slog. Info messages
// are demoted to debug.
type badgerLogger struct {
	l *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.l.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.l.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}
