package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"smartrouter/internal/domain"
	"smartrouter/internal/infra/describe"
)

// Format names the document syntax of a preferences file.
type Format string

const (
	FormatFrontmatter Format = "frontmatter"
	FormatYAML        Format = "yaml"
	FormatJSON        Format = "json"
	FormatTOML        Format = "toml"
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatFrontmatter, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported preferences format %q", filepath.Ext(path))
	}
}

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("prefs")}
}

// Load reads the preferences at path. It never fails: a missing file yields the defaults,
// and an unreadable or invalid one yields the defaults plus a preferences_invalid problem.
func (l *Loader) Load(path string) (domain.UserPreferences, []domain.Problem) {
	if path == "" {
		return domain.DefaultPreferences(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultPreferences(), nil
		}
		return l.invalid(path, fmt.Errorf("read preferences: %w", err))
	}
	format, err := FormatFor(path)
	if err != nil {
		return l.invalid(path, err)
	}
	prefs, err := l.Decode(data, format)
	if err != nil {
		return l.invalid(path, err)
	}
	return prefs, nil
}

func (l *Loader) invalid(path string, err error) (domain.UserPreferences, []domain.Problem) {
	l.logger.Warn("preferences ignored", zap.String("path", path), zap.Error(err))
	return domain.DefaultPreferences(), []domain.Problem{
		domain.Warn(domain.ProblemPreferencesInvalid, path, err.Error()),
	}
}

// Decode parses one preferences document. Validation errors are joined with "; ".
func (l *Loader) Decode(data []byte, format Format) (domain.UserPreferences, error) {
	raw, err := l.decodeRaw(data, format)
	if err != nil {
		return domain.DefaultPreferences(), err
	}
	prefs := normalizePreferences(raw)
	if errs := validatePreferences(prefs); len(errs) > 0 {
		return domain.DefaultPreferences(), errors.New(strings.Join(errs, "; "))
	}
	for _, id := range prefs.PriorityOrder {
		if prefs.Excluded(id) {
			l.logger.Warn("provider is both prioritized and excluded; exclusion wins", zap.String("provider", id))
		}
	}
	return prefs, nil
}

func (l *Loader) decodeRaw(data []byte, format Format) (rawPreferences, error) {
	v := newPreferencesViper()
	switch format {
	case FormatTOML:
		v.SetConfigType("toml")
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return rawPreferences{}, fmt.Errorf("parse preferences: %w", err)
		}
	case FormatFrontmatter, FormatYAML, FormatJSON:
		if format == FormatFrontmatter {
			front, _, ok := describe.SplitFrontmatter(string(data))
			if !ok {
				return defaultRaw(), nil
			}
			data = []byte(front)
		}
		expanded, missing, err := expandEnv(data)
		if err != nil {
			return rawPreferences{}, err
		}
		if len(missing) > 0 {
			l.logger.Warn("missing environment variables in preferences", zap.Strings("missing", missing))
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return rawPreferences{}, fmt.Errorf("parse preferences: %w", err)
		}
	default:
		return rawPreferences{}, fmt.Errorf("unsupported preferences format %q", format)
	}

	var raw rawPreferences
	if err := v.Unmarshal(&raw); err != nil {
		return rawPreferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return raw, nil
}

func defaultRaw() rawPreferences {
	return rawPreferences{
		RoutingMode:   string(domain.DefaultRoutingMode),
		ShowReasoning: domain.DefaultShowReasoning,
	}
}

func newPreferencesViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("routing_mode", string(domain.DefaultRoutingMode))
	v.SetDefault("show_reasoning", domain.DefaultShowReasoning)
	return v
}
