package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// PathStamp is one scanned path and its modification time.
type PathStamp struct {
	Path    string
	ModTime time.Time
}

type stampEntry struct {
	Path    string `json:"path"`
	ModTime int64  `json:"mtime"`
}

type fingerprintInput struct {
	Stamps []stampEntry `json:"stamps"`
	Inputs []string     `json:"inputs,omitempty"`
}

// ScanFingerprint hashes the scanned paths and their modification times, plus any
// build inputs that shape the registry without living in the scanned tree (the
// vocabulary, service descriptions, scan limits).
// Paths are sorted first, so the order stamps were collected in does not matter.
func ScanFingerprint(stamps []PathStamp, inputs ...string) (string, error) {
	entries := make([]stampEntry, 0, len(stamps))
	for _, stamp := range stamps {
		entries = append(entries, stampEntry{Path: stamp.Path, ModTime: stamp.ModTime.UnixNano()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Path == entries[j].Path {
			return entries[i].ModTime < entries[j].ModTime
		}
		return entries[i].Path < entries[j].Path
	})

	raw, err := json.Marshal(fingerprintInput{Stamps: entries, Inputs: inputs})
	if err != nil {
		return "", fmt.Errorf("marshal scan fingerprint: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// ContentDigest hashes value's JSON encoding. It identifies build inputs passed to
// ScanFingerprint.
func ContentDigest(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal content digest: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
