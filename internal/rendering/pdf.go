package rendering

import (
	"bytes"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont       = "Helvetica"
	lineHeight    = 6.0
	titleHeight   = 8.0
	sectionGap    = 2.0
	afterHeadGap  = 4.0
	pdfCreatorTag = "resume-builder"
)

// RenderPDF lays out doc on A4 pages and returns the PDF bytes.
// Text is translated to cp1252 for the core Helvetica font.
func RenderPDF(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreator(pdfCreatorTag, true)
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetModificationDate(time.Unix(0, 0).UTC())
	pdf.SetCatalogSort(true)
	if doc.Name != "" {
		pdf.SetTitle(doc.Name, true)
		pdf.SetAuthor(doc.Name, true)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	title := doc.Name
	if title == "" {
		title = "Name"
	}
	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, titleHeight, tr(title), "", 1, "", false, 0, "")

	if doc.Email != "" {
		pdf.SetFont(pdfFont, "", 10)
		pdf.CellFormat(0, lineHeight, tr(doc.Email), "", 1, "", false, 0, "")
	}
	pdf.Ln(afterHeadGap)

	section := func(heading string, lines []string, gap bool) {
		pdf.SetFont(pdfFont, "B", 11)
		pdf.CellFormat(0, lineHeight, tr(heading), "", 1, "", false, 0, "")
		pdf.SetFont(pdfFont, "", 10)
		for _, line := range lines {
			pdf.MultiCell(0, lineHeight, tr(line), "", "", false)
		}
		if gap {
			pdf.Ln(sectionGap)
		}
	}

	if doc.Summary != "" {
		section("Summary", []string{doc.Summary}, true)
	}
	if lines := doc.EducationLines(); len(lines) > 0 {
		section("Education", lines, true)
	}
	if len(doc.Skills) > 0 {
		section("Skills", []string{strings.Join(doc.Skills, ", ")}, true)
	}
	if len(doc.Projects) > 0 {
		lines := make([]string, 0, len(doc.Projects))
		for _, p := range doc.Projects {
			lines = append(lines, projectLine(p.Title, p.Description))
		}
		section("Projects", lines, true)
	}
	if len(doc.Bullets) > 0 {
		lines := make([]string, 0, len(doc.Bullets))
		for _, b := range doc.Bullets {
			lines = append(lines, "• "+b)
		}
		section("Experience / Achievements", lines, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Message: "failed to write PDF", Cause: err}
	}
	return buf.Bytes(), nil
}

// projectLine formats a project as "Title — Description".
func projectLine(title, description string) string {
	if title == "" {
		title = "Project"
	}
	return title + " — " + description
}
