package rendering

import (
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

// Document is everything shown in a preview or written to a PDF.
type Document struct {
	Name      string
	Email     string
	Summary   string
	Education string
	Skills    []string
	Projects  []types.Project
	Bullets   []string

	// Score is nil when no keyword score was computed.
	Score           *float64
	MatchedKeywords []string
	MissingKeywords []string
}

// EducationLines splits Education on newlines, one entry per line.
func (d Document) EducationLines() []string {
	if d.Education == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(d.Education, "\r\n", "\n"), "\n")
}

// DownloadFilename is the attachment name for a resume PDF:
// the name with spaces replaced by underscores, or "resume".
func DownloadFilename(name string) string {
	if name == "" {
		return "resume.pdf"
	}
	return strings.ReplaceAll(name, " ", "_") + ".pdf"
}
