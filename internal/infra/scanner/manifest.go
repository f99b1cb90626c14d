package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type pluginManifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

var errManifestMissing = errors.New("plugin manifest not found")

// readManifest returns the provider identifier declared by a plugin manifest.
func readManifest(path string) (string, error) {
	if path == "" {
		return "", errManifestMissing
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read manifest: %w", err)
	}
	var manifest pluginManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("parse manifest: %w", err)
	}
	name := strings.TrimSpace(manifest.Name)
	if name == "" {
		return "", errors.New("manifest name is required")
	}
	return name, nil
}
