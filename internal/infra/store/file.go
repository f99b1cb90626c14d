package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"smartrouter/internal/domain"
)

// FileStore keeps the snapshot as a JSON document and the marker as a text file next to it.
// Each write goes to a temporary file that is renamed into place.
type FileStore struct {
	mu         sync.Mutex
	snapshot   string
	markerPath string
}

// NewFileStore returns a store writing to snapshotPath and markerPath. An empty markerPath
// uses the snapshot path with a .hash extension.
func NewFileStore(snapshotPath, markerPath string) (*FileStore, error) {
	snapshotPath = strings.TrimSpace(snapshotPath)
	if snapshotPath == "" {
		return nil, errors.New("snapshot path is required")
	}
	markerPath = strings.TrimSpace(markerPath)
	if markerPath == "" {
		markerPath = strings.TrimSuffix(snapshotPath, filepath.Ext(snapshotPath)) + ".hash"
	}
	// Create the directories now so the first build does not touch the scanned tree
	// after its fingerprint was taken.
	for _, dir := range []string{filepath.Dir(snapshotPath), filepath.Dir(markerPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure store dir: %w", err)
		}
	}
	return &FileStore{snapshot: snapshotPath, markerPath: markerPath}, nil
}

// SnapshotPath returns the snapshot location.
func (s *FileStore) SnapshotPath() string { return s.snapshot }

// MarkerPath returns the marker location.
func (s *FileStore) MarkerPath() string { return s.markerPath }

func (s *FileStore) ReadSnapshot() (*domain.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.snapshot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return decodeSnapshot(data)
}

func (s *FileStore) WriteSnapshot(registry *domain.Registry) error {
	data, err := encodeSnapshot(registry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.snapshot, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) ReadMarker() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.markerPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read marker: %w", err)
	}
	return normalizeMarker(data), nil
}

func (s *FileStore) WriteMarker(fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fingerprint == "" {
		if err := os.Remove(s.markerPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove marker: %w", err)
		}
		return nil
	}
	if err := writeFileAtomic(s.markerPath, []byte(fingerprint+"\n")); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

var _ domain.SnapshotStore = (*FileStore)(nil)
