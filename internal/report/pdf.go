package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont            = "Helvetica"
	pdfMargin          = 15.0
	pdfTitleSize       = 16.0
	pdfBodySize        = 9.0
	pdfTitleLineHeight = 9.0
	pdfLineHeight      = 5.0
	pdfCellSeparator   = " | "
	generatedLayout    = "2006-01-02 15:04"
)

// PDFEncoder lays the table out as wrapped text lines on A4 pages.
type PDFEncoder struct {
	Now      func() time.Time
	Location *time.Location
}

func (PDFEncoder) ContentType() string { return "application/pdf" }
func (PDFEncoder) Extension() string   { return "pdf" }

func (e PDFEncoder) Encode(t Table) ([]byte, error) {
	doc, err := e.render(t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e PDFEncoder) generatedAt() time.Time {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	t := now()
	if e.Location != nil {
		t = t.In(e.Location)
	}
	return t
}

func (e PDFEncoder) render(t Table) (*fpdf.Fpdf, error) {
	generatedAt := e.generatedAt()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(false, pdfMargin)
	doc.SetCreationDate(generatedAt)
	doc.SetCatalogSort(true)
	doc.SetTitle(t.Title, true)
	doc.AddPage()

	pageW, pageH := doc.GetPageSize()
	w := &pdfWriter{
		doc:    doc,
		tr:     doc.UnicodeTranslatorFromDescriptor(""),
		y:      pdfMargin,
		width:  pageW - 2*pdfMargin,
		bottom: pageH - pdfMargin,
	}

	w.write(t.Title, "B", pdfTitleSize, pdfTitleLineHeight)
	for _, record := range t.Records() {
		w.write(strings.Join(record, pdfCellSeparator), "", pdfBodySize, pdfLineHeight)
	}
	w.write("", "", pdfBodySize, pdfLineHeight)
	w.write("Generated on "+generatedAt.Format(generatedLayout), "I", pdfBodySize, pdfLineHeight)

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return doc, nil
}

type pdfWriter struct {
	doc    *fpdf.Fpdf
	tr     func(string) string
	y      float64
	width  float64
	bottom float64
}

// write prints text as one or more wrapped lines, starting a new page
// whenever the next line would cross the bottom margin.
func (w *pdfWriter) write(text, style string, size, lineHeight float64) {
	w.doc.SetFont(pdfFont, style, size)
	for _, line := range wrapText(w.tr(text), w.width, w.doc.GetStringWidth) {
		if w.y+lineHeight > w.bottom {
			w.doc.AddPage()
			w.y = pdfMargin
		}
		w.y += lineHeight
		if line != "" {
			w.doc.Text(pdfMargin, w.y, line)
		}
	}
}

// wrapText greedily packs words into lines no wider than maxWidth. A single
// word wider than maxWidth gets a line of its own. It always returns at least
// one line.
func wrapText(text string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
