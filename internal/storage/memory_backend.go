// Package storage provides the storage backend for foodweb.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/Benny93/foodweb-go/internal/foodweb"
)

// MemoryBackend is an in-memory implementation of Backend for tests and
// one-shot runs.
type MemoryBackend struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	readOnly  bool
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		snapshots: make(map[string]Snapshot),
	}
}

// Initialize implements Backend. The path is ignored.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshots == nil {
		m.snapshots = make(map[string]Snapshot)
	}
	m.readOnly = readOnly
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = nil
	return nil
}

// Put implements Backend.
func (m *MemoryBackend) Put(ctx context.Context, snap Snapshot) error {
	if snap.Name == "" {
		return ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshots == nil {
		return ErrNotInitialized
	}
	if m.readOnly {
		return ErrReadOnly
	}
	m.snapshots[snap.Name] = cloneSnapshot(snap)
	return nil
}

// Get implements Backend.
func (m *MemoryBackend) Get(ctx context.Context, name string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshots == nil {
		return nil, ErrNotInitialized
	}

	snap, ok := m.snapshots[name]
	if !ok {
		return nil, nil
	}
	snap = cloneSnapshot(snap)
	return &snap, nil
}

// List implements Backend.
func (m *MemoryBackend) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshots == nil {
		return nil, ErrNotInitialized
	}

	names := make([]string, 0, len(m.snapshots))
	for name := range m.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshots == nil {
		return false, ErrNotInitialized
	}
	if m.readOnly {
		return false, ErrReadOnly
	}

	if _, ok := m.snapshots[name]; !ok {
		return false, nil
	}
	delete(m.snapshots, name)
	return true, nil
}

// Len returns the number of stored snapshots.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

func cloneSnapshot(s Snapshot) Snapshot {
	s.Dataset = s.Dataset.Clone()
	m := s.Metrics
	m.TopPredators = append([]string(nil), m.TopPredators...)
	m.BaseOrganisms = append([]string(nil), m.BaseOrganisms...)
	if m.Tiers != nil {
		tiers := make([]foodweb.TierMembers, len(m.Tiers))
		for i, tm := range m.Tiers {
			tm.Organisms = append([]string(nil), tm.Organisms...)
			tiers[i] = tm
		}
		m.Tiers = tiers
	}
	s.Metrics = m
	return s
}
