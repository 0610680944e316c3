// Package ingestion turns pasted or linked job postings into clean plain text.
package ingestion

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/resume-builder/internal/fetch"
)

var (
	innerSpaceRe   = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRunRe = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes line endings and whitespace while keeping line structure.
// Runs of blank lines collapse to a single blank line.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLineRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine trims a line and collapses inner spacing.
// Bullet markers keep a two-space indent when the source line was indented.
func cleanLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}
	trimmed = innerSpaceRe.ReplaceAllString(trimmed, " ")

	if isBulletLine(trimmed) && len(line) > len(strings.TrimLeft(line, " \t")) {
		return "  " + trimmed
	}
	return trimmed
}

func isBulletLine(line string) bool {
	for _, marker := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

// StripHTML returns the visible text of s when it contains markup and s unchanged otherwise.
func StripHTML(s string) (string, error) {
	if !fetch.LooksLikeHTML(s) {
		return s, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find("p, li, br, h1, h2, h3, h4, h5, h6, div, tr").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})
	doc.Find("li").Each(func(_ int, sel *goquery.Selection) {
		sel.PrependHtml("- ")
	})

	return doc.Text(), nil
}

// ReadFile reads a job description from disk and cleans it.
func ReadFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %w", err)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	text, err := StripHTML(string(content))
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}
