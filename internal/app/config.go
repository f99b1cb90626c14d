package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"smartrouter/internal/domain"
)

// ConfigOptions locates the runtime config.
type ConfigOptions struct {
	// Path is an explicit config file. Empty tries <project>/.claude/smart-router.yaml.
	Path string
	// ProjectDir anchors relative paths. Empty uses the working directory.
	ProjectDir string
	// HomeDir expands "~". Empty uses os.UserHomeDir.
	HomeDir string
}

// Config is the resolved runtime configuration. All paths are absolute.
type Config struct {
	ProjectDir      string
	ConfigFile      string
	ExternalRoot    string
	LocalRoot       string
	ProjectServices string
	ServiceConfigs  []string
	Store           StoreConfig
	PreferencesPath string
	VocabularyPath  string
	// Services adds or overrides service descriptions by server name.
	Services      map[string]string
	Scoring       ScoringConfig
	MaxLocalDepth int
	// MetricsFile, when set, receives the Prometheus text exposition after each command.
	MetricsFile string
}

type StoreConfig struct {
	Kind       string
	Path       string
	MarkerPath string
}

type ScoringConfig struct {
	PhraseWeight      int
	TagCoverageWeight int
}

type rawConfig struct {
	ExternalRoot    string            `mapstructure:"externalRoot"`
	LocalRoot       string            `mapstructure:"localRoot"`
	ProjectServices string            `mapstructure:"projectServices"`
	ServiceConfigs  []string          `mapstructure:"serviceConfigs"`
	Store           rawStoreConfig    `mapstructure:"store"`
	PreferencesPath string            `mapstructure:"preferencesPath"`
	VocabularyPath  string            `mapstructure:"vocabularyPath"`
	Services        map[string]string `mapstructure:"services"`
	Scoring         rawScoringConfig  `mapstructure:"scoring"`
	MaxLocalDepth   int               `mapstructure:"maxLocalDepth"`
	MetricsFile     string            `mapstructure:"metricsFile"`
}

type rawStoreConfig struct {
	Kind       string `mapstructure:"kind"`
	Path       string `mapstructure:"path"`
	MarkerPath string `mapstructure:"markerPath"`
}

type rawScoringConfig struct {
	PhraseWeight      int `mapstructure:"phraseWeight"`
	TagCoverageWeight int `mapstructure:"tagCoverageWeight"`
}

func newRuntimeViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(domain.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setRuntimeDefaults(v)
	return v
}

// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setRuntimeDefaults(v *viper.Viper) {
	v.SetDefault("externalRoot", filepath.Join("~", domain.DefaultExternalRootRel))
	v.SetDefault("localRoot", domain.DefaultLocalRootRel)
	v.SetDefault("projectServices", domain.DefaultProjectMCPConfig)
	v.SetDefault("serviceConfigs", []string{})
	v.SetDefault("store.kind", domain.DefaultStoreKind)
	v.SetDefault("store.path", "")
	v.SetDefault("store.markerPath", "")
	v.SetDefault("preferencesPath", domain.DefaultPreferencesRel)
	v.SetDefault("vocabularyPath", "")
	v.SetDefault("services", map[string]string{})
	v.SetDefault("scoring.phraseWeight", domain.DefaultPhraseWeight)
	v.SetDefault("scoring.tagCoverageWeight", domain.DefaultTagCoverage)
	v.SetDefault("maxLocalDepth", domain.DefaultMaxLocalDepth)
	v.SetDefault("metricsFile", "")
}

// LoadConfig reads the runtime config, applies SMART_ROUTER_* overrides and resolves
// paths. A missing default config file is not an error; a missing explicit one is.
func LoadConfig(opts ConfigOptions) (Config, error) {
	project, err := resolveProjectDir(opts.ProjectDir)
	if err != nil {
		return Config{}, err
	}
	home := opts.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}

	v := newRuntimeViper()
	configFile := opts.Path
	explicit := configFile != ""
	if !explicit {
		configFile = filepath.Join(project, domain.DefaultConfigRel)
	}
	configFile = resolvePath(configFile, project, home)

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if ext := strings.TrimPrefix(filepath.Ext(configFile), "."); ext != "" && ext != "yml" {
			v.SetConfigType(ext)
		}
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		configFile = ""
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg, errs := normalizeConfig(raw, project, home)
	if len(errs) > 0 {
		return Config{}, domain.E(domain.CodeInvalidArgument, "load config", strings.Join(errs, "; "), nil)
	}
	cfg.ConfigFile = configFile
	return cfg, nil
}

func normalizeConfig(raw rawConfig, project, home string) (Config, []string) {
	var errs []string

	kind := strings.ToLower(strings.TrimSpace(raw.Store.Kind))
	if kind == "" {
		kind = domain.DefaultStoreKind
	}
	storePath := strings.TrimSpace(raw.Store.Path)
	markerPath := strings.TrimSpace(raw.Store.MarkerPath)
	switch kind {
	case domain.StoreKindFile:
		if storePath == "" {
			storePath = domain.DefaultSnapshotRel
		}
		if markerPath == "" && raw.Store.Path == "" {
			markerPath = domain.DefaultMarkerRel
		}
	case domain.StoreKindBolt:
		if storePath == "" {
			storePath = domain.DefaultBoltRel
		}
		if markerPath != "" {
			errs = append(errs, "store.markerPath: not used by the bolt store")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.kind: unknown store %q (want file or bolt)", raw.Store.Kind))
	}

	if raw.Scoring.PhraseWeight < 0 {
		errs = append(errs, "scoring.phraseWeight must be >= 0")
	}
	if raw.Scoring.TagCoverageWeight < 0 {
		errs = append(errs, "scoring.tagCoverageWeight must be >= 0")
	}
	if raw.Scoring.PhraseWeight == 0 && raw.Scoring.TagCoverageWeight == 0 {
		errs = append(errs, "scoring: at least one weight must be positive")
	}
	if raw.MaxLocalDepth < 1 {
		errs = append(errs, "maxLocalDepth must be >= 1")
	}

	var serviceConfigs []string
	for _, path := range raw.ServiceConfigs {
		if path = strings.TrimSpace(path); path != "" {
			serviceConfigs = append(serviceConfigs, resolvePath(path, project, home))
		}
	}

	var services map[string]string
	if len(raw.Services) > 0 {
		services = raw.Services
	}

	cfg := Config{
		ProjectDir:      project,
		ExternalRoot:    resolvePath(raw.ExternalRoot, project, home),
		LocalRoot:       resolvePath(raw.LocalRoot, project, home),
		ProjectServices: resolvePath(raw.ProjectServices, project, home),
		ServiceConfigs:  serviceConfigs,
		Store: StoreConfig{
			Kind:       kind,
			Path:       resolvePath(storePath, project, home),
			MarkerPath: resolvePath(markerPath, project, home),
		},
		PreferencesPath: resolvePath(raw.PreferencesPath, project, home),
		VocabularyPath:  resolvePath(raw.VocabularyPath, project, home),
		Services:        services,
		Scoring: ScoringConfig{
			PhraseWeight:      raw.Scoring.PhraseWeight,
			TagCoverageWeight: raw.Scoring.TagCoverageWeight,
		},
		MaxLocalDepth: raw.MaxLocalDepth,
		MetricsFile:   resolvePath(raw.MetricsFile, project, home),
	}
	return cfg, errs
}

func resolveProjectDir(dir string) (string, error) {
	if dir == "" {
		dir = os.Getenv(domain.EnvProjectDir)
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve project dir: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}

// resolvePath expands "~" against home and anchors relative paths at project.
// Empty stays empty.
func resolvePath(path, project, home string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "~" {
		return filepath.Clean(home)
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(project, path)
}
