package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"smartrouter/internal/domain"
)

func encodeSnapshot(registry *domain.Registry) ([]byte, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeSnapshot(data []byte) (*domain.Registry, error) {
	var registry domain.Registry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if registry.FormatVersion != domain.RegistryFormatVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported format version %q", registry.FormatVersion)
	}
	if registry.CapabilityIndex == nil {
		registry.CapabilityIndex = map[domain.CapabilityTag][]domain.ToolUnit{}
	}
	return &registry, nil
}

func normalizeMarker(raw []byte) string {
	return strings.TrimSpace(string(raw))
}
