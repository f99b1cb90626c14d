package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"smartrouter/internal/domain"
	"smartrouter/internal/infra/capability"
	"smartrouter/internal/infra/router"
)

// HookInput is the prompt-submit event read from stdin.
type HookInput struct {
	Prompt string `json:"prompt"`
}

const reminderTemplate = `🎯 **Smart Router Early Reminder**

Before I start working on this task, let me check Smart Router first.

**Why check Smart Router:**
- Registry has %d capabilities and %d tools available
- I might not know about all your installed tools
- Smart Router can show me the best options for this task

**I should:**
1. Use the 'smart-router' skill to see available tools
2. Let it rank options based on context and your preferences
3. Then proceed with the best tool
%s
Let me check Smart Router first...`

// Hook returns the reminder for a prompt-submit event, or "" when nothing applies: the
// input is unreadable, the prompt is empty or not task related, or no registry has been
// built yet. It never scans and never fails, so a broken setup cannot block the prompt.
func (a *Application) Hook(r io.Reader) string {
	var input HookInput
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		a.logger.Debug("hook input unreadable", zap.Error(err))
		return ""
	}
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" || !capability.IsTaskRequest(prompt) {
		return ""
	}
	registry, err := a.store.ReadSnapshot()
	if err != nil {
		a.logger.Debug("hook skipped: no registry", zap.Error(err))
		return ""
	}

	preferences, _ := a.Preferences()
	decision := a.decider.Decide(domain.DecisionRequest{
		Request:     prompt,
		Registry:    registry,
		Preferences: preferences,
	})
	return Reminder(registry.Stats(), decision)
}

// Reminder renders the early reminder. When the decision found candidates, the top
// ones are listed after the checklist.
func Reminder(stats domain.RegistryStats, decision domain.Decision) string {
	return fmt.Sprintf(reminderTemplate, stats.Capabilities, stats.Tools, topCandidates(decision, 3))
}

func topCandidates(decision domain.Decision, limit int) string {
	if len(decision.Ranked) == 0 {
		return ""
	}
	var b strings.Builder
	tags := make([]string, 0, len(decision.Tags))
	for _, tag := range decision.Tags {
		tags = append(tags, string(tag))
	}
	fmt.Fprintf(&b, "\n**Likely matches (%s):**\n", strings.Join(tags, ", "))
	for i, r := range decision.Ranked {
		if i == limit {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", router.Label(r.Unit), r.Unit.Kind)
	}
	return b.String()
}
