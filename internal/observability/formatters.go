// Package observability provides logging setup and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// PrintProfile outputs the candidate profile the bullets are built from.
func (p *Printer) PrintProfile(profile types.Profile, role string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Role:      %s\n", types.RoleOrDefault(role)))
	if profile.Education != "" {
		sb.WriteString(fmt.Sprintf("Education: %s\n", profile.Education))
	}
	if len(profile.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills:    %s\n", strings.Join(profile.Skills, ", ")))
	}

	if len(profile.Projects) > 0 {
		sb.WriteString("\nProjects:\n")
		count := min(len(profile.Projects), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", profile.Projects[i].Title))
		}
		if len(profile.Projects) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Projects)-maxItemsToShow))
		}
	}

	p.printBox("CANDIDATE PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBullets outputs generated bullets, noting when the fallback was used.
func (p *Printer) PrintBullets(result types.GenerationResult) {
	if len(result.Bullets) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source: %s\n", result.Source))
	if result.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason: %s\n", result.Reason))
	}
	sb.WriteString("\n")

	for i, bullet := range result.Bullets {
		sb.WriteString(fmt.Sprintf("• %s", truncate(bullet, boxWidth-6)))
		if i < len(result.Bullets)-1 {
			sb.WriteString("\n")
		}
	}

	title := "GENERATED BULLETS"
	if result.Source == types.SourceFallback {
		title = "FALLBACK BULLETS"
	}
	p.printBox(title, sb.String())
}

// PrintScore outputs the keyword match score and the keyword breakdown.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintScore(result types.ScoreResult) {
	if !result.HasScore() {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO KEYWORD SCORE (no job description)")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score: %.1f / 100\n", *result.Score))

	if len(result.MatchedKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("\nMatched: %s\n", strings.Join(result.MatchedKeywords, ", ")))
	}
	if len(result.MissingKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("Missing: %s\n", strings.Join(result.MissingKeywords, ", ")))
	}

	p.printBox("KEYWORD MATCH", strings.TrimSuffix(sb.String(), "\n"))
}
