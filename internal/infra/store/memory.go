package store

import (
	"sync"

	"smartrouter/internal/domain"
)

// MemoryStore keeps the snapshot in memory. Fail* fields inject write errors.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot []byte
	marker   string

	// FailSnapshot makes WriteSnapshot return this error.
	FailSnapshot error
	// FailMarker makes WriteMarker with a non-empty fingerprint return this error.
	FailMarker error
	// FailInvalidate makes WriteMarker("") return this error.
	FailInvalidate error

	// Writes counts successful snapshot and marker writes.
	Writes int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ReadSnapshot() (*domain.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return decodeSnapshot(s.snapshot)
}

func (s *MemoryStore) WriteSnapshot(registry *domain.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSnapshot != nil {
		return s.FailSnapshot
	}
	data, err := encodeSnapshot(registry)
	if err != nil {
		return err
	}
	s.snapshot = data
	s.Writes++
	return nil
}

func (s *MemoryStore) ReadMarker() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marker, nil
}

func (s *MemoryStore) WriteMarker(fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fingerprint == "" && s.FailInvalidate != nil {
		return s.FailInvalidate
	}
	if fingerprint != "" && s.FailMarker != nil {
		return s.FailMarker
	}
	s.marker = fingerprint
	s.Writes++
	return nil
}

// WriteCount returns the number of successful writes.
func (s *MemoryStore) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Writes
}

// SetFailures replaces the injected errors.
func (s *MemoryStore) SetFailures(snapshot, marker, invalidate error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailSnapshot = snapshot
	s.FailMarker = marker
	s.FailInvalidate = invalidate
}

var _ domain.SnapshotStore = (*MemoryStore)(nil)
