package bullets

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

const (
	fallbackMaxSkills      = 5
	fallbackMaxProjects    = 3
	fallbackMaxDescription = 120
	fallbackProjectTitle   = "Project"
)

// Fallback builds deterministic template bullets from the profile:
// a skills sentence, then one sentence per project (at most 3), and a generic
// sentence about the role only when nothing else was produced.
// The result holds between 1 and MaxBullets entries.
func Fallback(profile types.Profile, role string) []string {
	var bullets []string

	skills := strings.Join(profile.Skills[:min(len(profile.Skills), fallbackMaxSkills)], ", ")
	if skills != "" {
		bullets = append(bullets, fmt.Sprintf(
			"Proficient in %s, applied knowledge to academic projects and coursework.", skills))
	}

	for _, p := range profile.Projects[:min(len(profile.Projects), fallbackMaxProjects)] {
		title := p.Title
		if title == "" {
			title = fallbackProjectTitle
		}
		bullets = append(bullets, fmt.Sprintf("%s: %s.", title, truncateRunes(p.Description, fallbackMaxDescription)))
	}

	if len(bullets) == 0 {
		bullets = append(bullets, fmt.Sprintf(
			"Motivated candidate targeting %s with strong academic background.",
			types.RoleOrDefault(role)))
	}

	return capBullets(bullets)
}

func capBullets(bullets []string) []string {
	if len(bullets) > types.MaxBullets {
		return bullets[:types.MaxBullets]
	}
	return bullets
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
