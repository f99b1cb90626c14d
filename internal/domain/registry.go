package domain

import (
	"sort"
	"time"
)

// CapabilityTag labels a kind of task, drawn from the capability vocabulary.
type CapabilityTag string

// Registry is the build artifact: every discovered unit indexed by inferred capability.
// A Registry returned from a build is read-only.
type Registry struct {
	FormatVersion   string                       `json:"formatVersion"`
	BuildID         string                       `json:"buildId"`
	BuiltAt         time.Time                    `json:"builtAt"`
	Fingerprint     string                       `json:"fingerprint"`
	CapabilityIndex map[CapabilityTag][]ToolUnit `json:"capabilityIndex"`
}

// RegistryStats summarises a registry for reminders and CLI output.
type RegistryStats struct {
	Capabilities int `json:"capabilities"`
	Tools        int `json:"tools"`
	UniqueUnits  int `json:"uniqueUnits"`
}

// Tags returns the indexed capability tags in ascending order.
func (r *Registry) Tags() []CapabilityTag {
	if r == nil {
		return nil
	}
	tags := make([]CapabilityTag, 0, len(r.CapabilityIndex))
	for tag := range r.CapabilityIndex {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Units returns the units indexed under tag in discovery order.
func (r *Registry) Units(tag CapabilityTag) []ToolUnit {
	if r == nil {
		return nil
	}
	return r.CapabilityIndex[tag]
}

// Stats counts capabilities, tag entries and distinct units.
func (r *Registry) Stats() RegistryStats {
	if r == nil {
		return RegistryStats{}
	}
	seen := make(map[UnitKey]struct{})
	stats := RegistryStats{Capabilities: len(r.CapabilityIndex)}
	for _, units := range r.CapabilityIndex {
		stats.Tools += len(units)
		for _, unit := range units {
			seen[unit.Key()] = struct{}{}
		}
	}
	stats.UniqueUnits = len(seen)
	return stats
}

// CandidatesFor returns the union of units indexed under tags, deduplicated by identity.
// Units keep the order of the first tag that lists them.
func (r *Registry) CandidatesFor(tags []CapabilityTag) []ToolUnit {
	if r == nil {
		return nil
	}
	seen := make(map[UnitKey]struct{})
	var out []ToolUnit
	for _, tag := range tags {
		for _, unit := range r.CapabilityIndex[tag] {
			key := unit.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, unit)
		}
	}
	return out
}
