// Package bullets turns a resume profile into achievement bullets: it builds the
// generation prompt, parses model output, and substitutes template bullets when
// generation fails.
package bullets

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/types"
)

const (
	promptFile = "bullets.json"
	promptKey  = "generate-bullets"

	contextSeparator = " | "
	untitledProject  = "Untitled"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// BuildPrompt builds the generation prompt for profile and role.
// Only non-empty profile fields are included, as "Field: value" parts.
func BuildPrompt(profile types.Profile, role string) (string, error) {
	prompt, err := prompts.Render(promptFile, promptKey, map[string]string{
		"Role":    types.RoleOrDefault(role),
		"Context": profileContext(profile),
	})
	if err != nil {
		return "", err
	}
	return normalizeWhitespace(prompt), nil
}

func profileContext(profile types.Profile) string {
	var parts []string
	if profile.Summary != "" {
		parts = append(parts, "Summary: "+profile.Summary)
	}
	if profile.Education != "" {
		parts = append(parts, "Education: "+profile.Education)
	}
	if len(profile.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(profile.Skills, ", "))
	}
	for _, p := range profile.Projects {
		title := p.Title
		if title == "" {
			title = untitledProject
		}
		parts = append(parts, fmt.Sprintf("Project: %s - %s", title, p.Description))
	}
	return strings.Join(parts, contextSeparator)
}

func normalizeWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}
