package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"smartrouter/internal/domain"
)

// ServiceEntry is one MCP server declared in a service config.
type ServiceEntry struct {
	Name string
	// Command is the launch command followed by its arguments, for stdio servers.
	Command []string
	// URL is the endpoint of remote servers.
	URL string
}

// ReadServiceConfig parses an MCP config file. TOML files use the mcp_servers table (and
// the legacy mcp.servers table); everything else is JSON with an mcpServers object.
// Project .mcp.json files may also list servers at the top level.
func ReadServiceConfig(path string) ([]ServiceEntry, []domain.Problem) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []domain.Problem{domain.Warn(domain.ProblemServiceConfigInvalid, path, err.Error())}
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return readTOMLServices(path, data)
	}
	return readJSONServices(path, data)
}

func readJSONServices(path string, data []byte) ([]ServiceEntry, []domain.Problem) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, []domain.Problem{domain.Warn(domain.ProblemServiceConfigInvalid, path, fmt.Sprintf("parse json: %v", err))}
	}
	rawServers, present := payload["mcpServers"]
	if !present {
		if filepath.Base(path) != domain.DefaultProjectMCPConfig {
			return nil, nil
		}
		return parseServers(path, payload, nil)
	}
	servers, ok := rawServers.(map[string]any)
	if !ok {
		return nil, []domain.Problem{domain.Warn(domain.ProblemServiceConfigInvalid, path, "mcpServers must be an object map")}
	}
	return parseServers(path, servers, nil)
}

func readTOMLServices(path string, data []byte) ([]ServiceEntry, []domain.Problem) {
	var payload map[string]any
	if err := toml.Unmarshal(data, &payload); err != nil {
		return nil, []domain.Problem{domain.Warn(domain.ProblemServiceConfigInvalid, path, fmt.Sprintf("parse toml: %v", err))}
	}
	primary := readTable(payload, "mcp_servers")
	legacy := readTable(payload, "mcp", "servers")

	entries, problems := parseServers(path, primary, nil)
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		seen[entry.Name] = struct{}{}
	}
	legacyEntries, legacyProblems := parseServers(path, legacy, seen)
	return append(entries, legacyEntries...), append(problems, legacyProblems...)
}

func readTable(payload map[string]any, path ...string) map[string]any {
	current := payload
	for i, key := range path {
		value, ok := current[key]
		if !ok {
			return nil
		}
		next, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		if i == len(path)-1 {
			return next
		}
		current = next
	}
	return nil
}

// parseServers converts a server map into entries sorted by name. Names in skip are
// reported as duplicates.
func parseServers(path string, servers map[string]any, skip map[string]struct{}) ([]ServiceEntry, []domain.Problem) {
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var entries []ServiceEntry
	var problems []domain.Problem
	for _, name := range names {
		where := path + "#" + name
		if _, dup := skip[name]; dup {
			problems = append(problems, domain.Warn(domain.ProblemServiceConfigInvalid, where, "legacy mcp.servers entry ignored because mcp_servers already defines it"))
			continue
		}
		table, ok := servers[name].(map[string]any)
		if !ok {
			problems = append(problems, domain.Warn(domain.ProblemServiceConfigInvalid, where, "entry must be an object"))
			continue
		}
		entry, err := parseServer(name, table)
		if err != nil {
			problems = append(problems, domain.Warn(domain.ProblemServiceConfigInvalid, where, err.Error()))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, problems
}

func parseServer(name string, table map[string]any) (ServiceEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ServiceEntry{}, errors.New("server name is required")
	}
	entry := ServiceEntry{Name: name}

	command, ok := readOptionalString(table, "command")
	if !ok {
		return ServiceEntry{}, errors.New("command must be a string")
	}
	args, ok := readOptionalStringSlice(table, "args")
	if !ok {
		return ServiceEntry{}, errors.New("args must be an array of strings")
	}
	for _, key := range []string{"url", "endpoint", "httpUrl"} {
		url, ok := readOptionalString(table, key)
		if !ok {
			return ServiceEntry{}, fmt.Errorf("%s must be a string", key)
		}
		if url != "" {
			entry.URL = url
			break
		}
	}
	if command == "" && entry.URL == "" {
		return ServiceEntry{}, errors.New("command or url is required")
	}
	if command != "" {
		entry.Command = append([]string{command}, args...)
	}
	return entry, nil
}

func readOptionalString(entry map[string]any, key string) (string, bool) {
	value, ok := entry[key]
	if !ok {
		return "", true
	}
	s, ok := value.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func readOptionalStringSlice(entry map[string]any, key string) ([]string, bool) {
	value, ok := entry[key]
	if !ok {
		return nil, true
	}
	switch raw := value.(type) {
	case []string:
		return append([]string(nil), raw...), true
	case []any:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
