package describe

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// SplitFrontmatter separates a leading "---" delimited block from the document body.
// ok is false when the document has no closed frontmatter block.
func SplitFrontmatter(raw string) (front string, body string, ok bool) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	if !strings.HasPrefix(raw, "---\n") {
		return "", raw, false
	}
	lines := strings.Split(raw, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end <= 0 {
		return "", raw, false
	}
	front = strings.Join(lines[1:end], "\n")
	if end+1 < len(lines) {
		body = strings.Join(lines[end+1:], "\n")
	}
	return front, body, true
}

type frontmatter struct {
	Description string `yaml:"description"`
}

// frontmatterDescription reads the description field. Documents that are not valid YAML
// (unquoted colons are common in hand-written agents) fall back to a line scan.
func frontmatterDescription(front string) string {
	var meta frontmatter
	if err := yaml.Unmarshal([]byte(front), &meta); err == nil {
		return cleanValue(meta.Description)
	}
	for _, line := range strings.Split(front, "\n") {
		trimmed := strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(trimmed, "description:"); ok {
			return cleanValue(value)
		}
	}
	return ""
}

func cleanValue(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			value = value[1 : len(value)-1]
		}
	}
	value = strings.ReplaceAll(value, `\"`, `"`)
	value = strings.ReplaceAll(value, `\'`, `'`)
	return strings.TrimSpace(value)
}
