package domain

const (
	RegistryFormatVersion   = "1.0"
	DefaultRoutingMode      = RoutingAsk
	DefaultShowReasoning    = true
	DefaultMaxLocalDepth    = 5
	MaxDescriptionLength    = 100
	NoDescription           = "No description available"
	DefaultPhraseWeight     = 1
	DefaultTagCoverage      = 0
	DefaultStoreKind        = StoreKindFile
	DefaultExternalRootRel  = ".claude/plugins/cache"
	DefaultLocalRootRel     = ".claude"
	DefaultSnapshotRel      = ".claude/.cache/agent-registry.json"
	DefaultMarkerRel        = ".claude/.cache/agent-registry.hash"
	DefaultBoltRel          = ".claude/.cache/agent-registry.db"
	DefaultPreferencesRel   = ".claude/smart-router.local.md"
	DefaultProjectMCPConfig = ".mcp.json"
	DefaultConfigRel        = ".claude/smart-router.yaml"
	StoreKindFile           = "file"
	StoreKindBolt           = "bolt"
	EnvPrefix               = "SMART_ROUTER"
	EnvProjectDir           = "CLAUDE_PROJECT_DIR"
)
