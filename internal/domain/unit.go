package domain

import (
	"fmt"
	"strings"
)

// UnitKind classifies a discoverable tool unit.
type UnitKind string

const (
	// KindSkill is a SKILL.md bundle.
	KindSkill UnitKind = "skill"
	// KindAgent is an agent definition document.
	KindAgent UnitKind = "agent"
	// KindCommand is a slash command document.
	KindCommand UnitKind = "command"
	// KindWorkflow is a multi-step workflow document.
	KindWorkflow UnitKind = "workflow"
	// KindService is an MCP server declared in a service config.
	KindService UnitKind = "service"
)

// Origin records whether a unit was installed from a provider package or defined in the project.
type Origin string

const (
	// OriginLocal marks units defined under the project local root.
	OriginLocal Origin = "local"
	// OriginExternal marks units installed from a provider package.
	OriginExternal Origin = "external"
)

// LocalProviderID owns every unit found under the local root.
const LocalProviderID = "local"

// kindPrecedence orders kinds for the final ranking tie-breaks; lower wins.
var kindPrecedence = map[UnitKind]int{
	KindSkill:    0,
	KindAgent:    1,
	KindCommand:  2,
	KindWorkflow: 3,
	KindService:  4,
}

// Precedence returns the kind's rank among kinds. Unknown kinds sort last.
func (k UnitKind) Precedence() int {
	if p, ok := kindPrecedence[k]; ok {
		return p
	}
	return len(kindPrecedence)
}

// Valid reports whether k is a known kind.
func (k UnitKind) Valid() bool {
	_, ok := kindPrecedence[k]
	return ok
}

// ToolUnit is one discoverable capability provider.
type ToolUnit struct {
	ProviderID  string   `json:"providerId"`
	Kind        UnitKind `json:"kind"`
	EntryRef    string   `json:"entryRef"`
	Description string   `json:"description"`
	Origin      Origin   `json:"origin"`
}

// UnitKey is the identity of a ToolUnit.
type UnitKey struct {
	ProviderID string
	Kind       UnitKind
	EntryRef   string
}

// Key returns the unit identity.
func (u ToolUnit) Key() UnitKey {
	return UnitKey{ProviderID: u.ProviderID, Kind: u.Kind, EntryRef: u.EntryRef}
}

// Name returns a short display name: the entry file or directory stem.
func (u ToolUnit) Name() string {
	ref := strings.TrimSuffix(u.EntryRef, "/SKILL.md")
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		ref = ref[idx+1:]
	}
	ref = strings.TrimPrefix(ref, "mcp:")
	return strings.TrimSuffix(ref, ".md")
}

func (k UnitKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ProviderID, k.Kind, k.EntryRef)
}
