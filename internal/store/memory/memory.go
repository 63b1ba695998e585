// Package memory keeps the workspace snapshot in process memory.
// It is used for ephemeral runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// Store implements store.Persister without durable storage.
// Snapshots are copied on Save and Load so callers never share state with it.
type Store struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{}
}

// NewWith returns a store pre-populated with a copy of snap.
func NewWith(snap *store.Snapshot) (*Store, error) {
	s := New()
	if err := s.Save(context.Background(), snap); err != nil {
		return nil, err
	}
	s.saves = 0
	return s, nil
}

// Load returns a copy of the last saved snapshot.
func (s *Store) Load(_ context.Context) (*store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := store.NewSnapshot()
	if s.data == nil {
		return snap, nil
	}
	if err := json.Unmarshal(s.data, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Save stores a copy of snap.
func (s *Store) Save(_ context.Context, snap *store.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	s.data = data
	s.saves++
	s.mu.Unlock()
	return nil
}

// Saves reports how many times Save has been called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
