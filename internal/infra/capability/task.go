package capability

import "strings"

// taskKeywords gate the prompt hook: prompts without any of them are conversation, not work.
var taskKeywords = []string{
	"test", "testing", "brainstorm", "review", "debug", "build", "design",
	"implement", "create", "develop", "code", "refactor", "fix", "analyze",
	"check", "verify", "validate", "investigate", "explore", "plan",
	"architect", "structure", "organize", "game", "unity", "unreal", "godot",
	"help me", "need to", "want to", "how do i", "show me",
}

// IsTaskRequest reports whether text reads like a request for work.
func IsTaskRequest(text string) bool {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return false
	}
	for _, keyword := range taskKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
