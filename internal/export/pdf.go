package export

import (
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"

	"github.com/gubarz/cmtscan/internal/scan"
)

const (
	pdfLineHeight = 6.0
	pdfMargin     = 15.0
)

// pdfWidths returns column widths in mm for landscape A4
func pdfWidths(showContext bool) []float64 {
	if showContext {
		return []float64{28, 70, 90, 60, 14} // Type, Comment, Context, File, Line
	}
	return []float64{28, 120, 105, 14} // Type, Comment, File, Line
}

// asciiSafe replaces characters the core PDF fonts cannot encode
func asciiSafe(s string) string {
	s = strings.ReplaceAll(s, "→", ">")
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if r > unicode.MaxASCII || (r < 0x20 && r != '\n') {
			return '?'
		}
		return r
	}, s)
}

// pdfRow returns the cells of one annotation for the PDF table
func pdfRow(a scan.Annotation, showContext bool) []string {
	row := []string{a.Marker.Label, a.Body}
	if showContext {
		row = append(row, strings.ReplaceAll(a.Context, "\n", " | "))
	}
	row = append(row, a.File, line(a))
	for i := range row {
		row[i] = asciiSafe(row[i])
	}
	return row
}

// writePDF renders the annotation table to path
func writePDF(path string, rows []scan.Annotation, opts Options) error {
	return buildPDF(rows, opts).OutputFileAndClose(path)
}

// buildPDF lays out a landscape table with wrapped cells of equal row height.
// The header repeats on every page.
func buildPDF(rows []scan.Annotation, opts Options) *fpdf.Fpdf {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetFillColor(240, 240, 240)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, Title, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	header := []string{"Type", "Comment", "File", "Line"}
	if opts.ShowContext {
		header = []string{"Type", "Comment", "Context", "File", "Line"}
	}
	table := &pdfTable{pdf: pdf, widths: pdfWidths(opts.ShowContext), header: header}
	table.drawHeader()

	for _, a := range rows {
		table.row(pdfRow(a, opts.ShowContext))
	}
	return pdf
}

// pdfTable draws rows of wrapped cells and breaks pages between or inside them
type pdfTable struct {
	pdf       *fpdf.Fpdf
	widths    []float64
	header    []string
	freshPage bool // nothing but the header drawn on the current page
}

// wrap splits each cell to its column width and returns the row height in lines
func (t *pdfTable) wrap(cells []string) ([][]string, int) {
	lines := make([][]string, len(cells))
	rowLines := 1
	for i, cell := range cells {
		for _, part := range t.pdf.SplitLines([]byte(cell), t.widths[i]-2) {
			lines[i] = append(lines[i], string(part))
		}
		rowLines = max(rowLines, len(lines[i]))
	}
	return lines, rowLines
}

// linesLeft is the number of text lines that fit above the bottom margin
func (t *pdfTable) linesLeft() int {
	_, pageHeight := t.pdf.GetPageSize()
	return int((pageHeight - pdfMargin - t.pdf.GetY()) / pdfLineHeight)
}

func (t *pdfTable) drawHeader() {
	t.pdf.SetFont("Arial", "B", 10)
	lines, n := t.wrap(t.header)
	t.draw(lines, 0, n, true)
	t.pdf.SetFont("Arial", "", 10)
	t.freshPage = true
}

func (t *pdfTable) newPage() {
	t.pdf.AddPage()
	t.drawHeader()
}

// row draws one record. A row that does not fit starts a new page; a row
// taller than a whole page continues over as many pages as it needs.
func (t *pdfTable) row(cells []string) {
	lines, total := t.wrap(cells)
	if total > t.linesLeft() && !t.freshPage {
		t.newPage()
	}
	for start := 0; start < total; {
		n := min(total-start, t.linesLeft())
		if n < 1 {
			t.newPage()
			n = max(1, min(total-start, t.linesLeft()))
		}
		t.draw(lines, start, start+n, false)
		start += n
		if start < total {
			t.newPage()
		}
	}
	t.freshPage = false
}

// draw renders lines [from, to) of every cell side by side in bordered boxes
func (t *pdfTable) draw(lines [][]string, from, to int, fill bool) {
	x, y := pdfMargin, t.pdf.GetY()
	height := float64(to-from) * pdfLineHeight
	for i, width := range t.widths {
		t.pdf.Rect(x, y, width, height, rectStyle(fill))
		for j := from; j < to && j < len(lines[i]); j++ {
			t.pdf.SetXY(x+1, y+float64(j-from)*pdfLineHeight)
			t.pdf.CellFormat(width-2, pdfLineHeight, lines[i][j], "", 0, "L", false, 0, "")
		}
		x += width
	}
	t.pdf.SetXY(pdfMargin, y+height)
}

func rectStyle(fill bool) string {
	if fill {
		return "FD"
	}
	return "D"
}
