package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"smartrouter/internal/domain"
)

const (
	schemaVersion = 1

	registryBucketName = "registry"
	metaBucketName     = "meta"
	snapshotKey        = "snapshot"
	markerKey          = "marker"
	versionKey         = "version"
)

// BoltStore keeps the snapshot and marker under separate keys of one bbolt database.
// Each write is its own transaction; bbolt's file lock keeps other processes out.
type BoltStore struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

// OpenBoltStore opens or creates the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure store dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, path: trimmed}, nil
}

// Path returns the database location.
func (s *BoltStore) Path() string { return s.path }

func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *BoltStore) ReadSnapshot() (*domain.Registry, error) {
	var data []byte
	err := s.view(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(registryBucketName)).Get([]byte(snapshotKey))
		if raw != nil {
			data = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return decodeSnapshot(data)
}

func (s *BoltStore) WriteSnapshot(registry *domain.Registry) error {
	data, err := encodeSnapshot(registry)
	if err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(registryBucketName)).Put([]byte(snapshotKey), data); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) ReadMarker() (string, error) {
	var marker string
	err := s.view(func(tx *bolt.Tx) error {
		marker = normalizeMarker(tx.Bucket([]byte(registryBucketName)).Get([]byte(markerKey)))
		return nil
	})
	return marker, err
}

func (s *BoltStore) WriteMarker(fingerprint string) error {
	return s.update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(registryBucketName))
		if fingerprint == "" {
			if err := bucket.Delete([]byte(markerKey)); err != nil {
				return fmt.Errorf("remove marker: %w", err)
			}
			return nil
		}
		if err := bucket.Put([]byte(markerKey), []byte(fingerprint)); err != nil {
			return fmt.Errorf("write marker: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *BoltStore) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return s.db.Update(fn)
}

func ensureSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(registryBucketName)); err != nil {
			return fmt.Errorf("create registry bucket: %w", err)
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucketName))
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		current := readSchemaVersion(meta)
		switch {
		case current == 0:
			return writeSchemaVersion(meta, schemaVersion)
		case current > schemaVersion:
			return fmt.Errorf("unsupported registry store schema version %d", current)
		case current < schemaVersion:
			return fmt.Errorf("missing migration path from %d to %d", current, schemaVersion)
		default:
			return nil
		}
	})
}

func readSchemaVersion(meta *bolt.Bucket) int {
	raw := meta.Get([]byte(versionKey))
	if len(raw) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(raw))
}

func writeSchemaVersion(meta *bolt.Bucket, version int) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(version))
	return meta.Put([]byte(versionKey), buf)
}

var _ domain.SnapshotStore = (*BoltStore)(nil)
