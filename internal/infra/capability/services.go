package capability

import (
	"strings"

	"smartrouter/internal/domain"
)

// serviceDescriptions seeds descriptions for well-known MCP services. Inference runs on
// these texts, so every tag a service receives is still derived from its description.
var serviceDescriptions = map[string]string{
	"github":              "GitHub repository access for pull request review, issues and git commits",
	"gitlab":              "GitLab merge request review, issues and git repository access",
	"git":                 "Local git history, commit and branch operations",
	"playwright":          "Browser automation for end-to-end testing of web frontend pages",
	"puppeteer":           "Headless browser automation for e2e testing and frontend screenshots",
	"postgres":            "PostgreSQL database schema inspection and SQL query execution",
	"sqlite":              "SQLite database access with SQL query execution",
	"mysql":               "MySQL database schema inspection and SQL query execution",
	"context7":            "Up-to-date library docs and API reference lookup",
	"sentry":              "Error monitoring with stack trace and crash triage for debugging",
	"fetch":               "Web page fetching for research",
	"brave-search":        "Web search for research questions",
	"memory":              "Knowledge graph memory for planning and research notes",
	"sequential-thinking": "Step-by-step reasoning to plan tasks and brainstorm ideas",
	"docker":              "Docker container management for deploy workflows",
	"kubernetes":          "Kubernetes cluster management for deploy and infrastructure operations",
	"figma":               "Figma design access for frontend user interface work",
	"linear":              "Issue tracking for roadmap and milestone planning",
}

// ServiceLookup describes MCP services by identifier.
type ServiceLookup struct {
	known map[string]string
}

// NewServiceLookup returns a lookup seeded with the built-in service table plus extra.
func NewServiceLookup(extra map[string]string) *ServiceLookup {
	known := make(map[string]string, len(serviceDescriptions)+len(extra))
	for id, desc := range serviceDescriptions {
		known[id] = desc
	}
	for id, desc := range extra {
		id = normalizeServiceID(id)
		if id == "" || strings.TrimSpace(desc) == "" {
			continue
		}
		known[id] = strings.TrimSpace(desc)
	}
	return &ServiceLookup{known: known}
}

// Digest identifies the description table, built-in and configured entries alike.
func (l *ServiceLookup) Digest() string {
	digest, err := domain.ContentDigest(l.known)
	if err != nil {
		return ""
	}
	return digest
}

// Describe returns the description for a service. Known identifiers use the seeded text;
// unknown ones fall back to a description built from the name and launch command, and
// known is false.
func (l *ServiceLookup) Describe(name string, command []string) (desc string, known bool) {
	id := normalizeServiceID(name)
	if desc, ok := l.known[id]; ok {
		return desc, true
	}
	for _, token := range command {
		if candidate := serviceIDFromPackage(token); candidate != "" {
			if desc, ok := l.known[candidate]; ok {
				return desc, true
			}
		}
	}
	parts := []string{"MCP service " + strings.TrimSpace(name)}
	if len(command) > 0 {
		parts = append(parts, strings.Join(command, " "))
	}
	return strings.Join(parts, ": "), false
}

func normalizeServiceID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.TrimPrefix(id, "mcp-server-")
	id = strings.TrimPrefix(id, "server-")
	id = strings.TrimSuffix(id, "-mcp")
	id = strings.TrimSuffix(id, "-mcp-server")
	return id
}

// serviceIDFromPackage extracts an identifier from launcher args such as
// "@modelcontextprotocol/server-github" or "mcp-server-sqlite".
func serviceIDFromPackage(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if strings.HasPrefix(token, "-") {
		return ""
	}
	if idx := strings.LastIndex(token, "/"); idx >= 0 {
		token = token[idx+1:]
	}
	if idx := strings.Index(token, "@"); idx > 0 {
		token = token[:idx]
	}
	if !strings.Contains(token, "mcp") && !strings.HasPrefix(token, "server-") {
		return ""
	}
	return normalizeServiceID(token)
}
