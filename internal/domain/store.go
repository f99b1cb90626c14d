package domain

// SnapshotStore persists the registry snapshot and its fingerprint marker.
// The two are written separately; an empty marker means "no valid cache".
type SnapshotStore interface {
	// ReadSnapshot returns ErrSnapshotNotFound when nothing has been written yet.
	ReadSnapshot() (*Registry, error)
	WriteSnapshot(registry *Registry) error
	// ReadMarker returns "" with a nil error when no marker exists.
	ReadMarker() (string, error)
	// WriteMarker with an empty fingerprint removes the marker.
	WriteMarker(fingerprint string) error
}
