package bullets

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Marker is the label the prompt ends with; models often echo the prompt back.
const Marker = "Bullets:"

const (
	// sentenceMinLen is the length an unmarked line must exceed to be taken as a bullet.
	sentenceMinLen = 20
	// sentenceMaxCollected stops accepting unmarked lines once this many lines were collected.
	sentenceMaxCollected = 6
	// bulletMinLen is the length a bullet must exceed to survive the final cleanup.
	bulletMinLen = 10
)

var (
	numberedRe     = regexp.MustCompile(`^\d+\.`)
	markerPrefixRe = regexp.MustCompile(`^[-*\d.\s]+`)

	// lineBreaks maps every line boundary to "\n". "\r\n" is listed before "\r".
	lineBreaks = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\v", "\n",
		"\f", "\n",
		"\x1c", "\n",
		"\x1d", "\n",
		"\x1e", "\n",
		"\u0085", "\n",
		"\u2028", "\n",
		"\u2029", "\n",
	)
)

// splitLines splits text on any line boundary: LF, CR, CRLF, VT, FF, the
// file/group/record separators, NEL and the Unicode line and paragraph separators.
func splitLines(text string) []string {
	return strings.Split(lineBreaks.Replace(text), "\n")
}

// AfterMarker returns the text following the last occurrence of Marker,
// or text unchanged if the marker does not occur.
func AfterMarker(text string) string {
	if idx := strings.LastIndex(text, Marker); idx >= 0 {
		return text[idx+len(Marker):]
	}
	return text
}

// ExtractBullets parses free-form model output into bullets.
//
// Lines starting with "-", "*" or "<n>." are bullets with the marker stripped.
// Unmarked lines are accepted as bullets when they look like a sentence (longer
// than 20 characters) and fewer than 6 lines have been collected. This heuristic
// is best-effort: long prose without markers is accepted too.
// Bullets of 10 characters or fewer are dropped; the rest end with a period.
func ExtractBullets(text string) []string {
	var lines []string
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isMarked(line) {
			lines = append(lines, strings.TrimSpace(markerPrefixRe.ReplaceAllString(line, "")))
			continue
		}
		if utf8.RuneCountInString(line) > sentenceMinLen && len(lines) < sentenceMaxCollected {
			lines = append(lines, line)
		}
	}

	var bullets []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if utf8.RuneCountInString(l) <= bulletMinLen {
			continue
		}
		if !strings.HasSuffix(l, ".") {
			l += "."
		}
		bullets = append(bullets, l)
	}
	return bullets
}

// ParseOutput applies AfterMarker then ExtractBullets to raw model output.
func ParseOutput(text string) []string {
	return ExtractBullets(AfterMarker(text))
}

func isMarked(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || numberedRe.MatchString(line)
}
