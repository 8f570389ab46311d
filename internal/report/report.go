// Package report renders the studio's tabular PDF reports.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Gold is the studio brand colour used on table headers (#C2A537).
var Gold = [3]int{0xC2, 0xA5, 0x37}

type Align string

const (
	Left   Align = "L"
	Center Align = "C"
	Right  Align = "R"
)

type Column struct {
	Header string
	Width  float64
	Align  Align
}

// Summary is a label/value line printed above the table.
type Summary struct {
	Label string
	Value string
}

type Table struct {
	Title       string
	Subtitle    string
	Landscape   bool
	Summary     []Summary
	Columns     []Column
	Rows        [][]string
	Footer      []string
	GeneratedAt time.Time
}

const (
	rowHeight  = 7.0
	fontFamily = "Helvetica"
)

// Render draws t and returns the PDF bytes.
func Render(t Table) ([]byte, error) {
	orientation := "P"
	if t.Landscape {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(tr(t.Title), false)
	pdf.SetCreator("JM Fitness Studio", false)

	generated := t.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Gerado em %s", generated.Format("02/01/2006 15:04"))), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	header := func() {
		pdf.SetFont(fontFamily, "B", 9)
		pdf.SetFillColor(Gold[0], Gold[1], Gold[2])
		pdf.SetTextColor(255, 255, 255)
		for _, c := range t.Columns {
			pdf.CellFormat(c.Width, rowHeight+1, tr(c.Header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	pdf.SetTextColor(Gold[0], Gold[1], Gold[2])
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "C", false, 0, "")
	if t.Subtitle != "" {
		pdf.SetFont(fontFamily, "", 11)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 7, tr(t.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	if len(t.Summary) > 0 {
		pdf.SetTextColor(0, 0, 0)
		for _, s := range t.Summary {
			pdf.SetFont(fontFamily, "B", 10)
			pdf.CellFormat(60, 6, tr(s.Label), "", 0, "L", false, 0, "")
			pdf.SetFont(fontFamily, "", 10)
			pdf.CellFormat(0, 6, tr(s.Value), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	header()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(0, 0, 0)
	for i, row := range t.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
			pdf.SetFont(fontFamily, "", 9)
			pdf.SetTextColor(0, 0, 0)
		}
		if i%2 == 1 {
			pdf.SetFillColor(245, 240, 225)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		for j, c := range t.Columns {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			pdf.CellFormat(c.Width, rowHeight, tr(cell), "1", 0, string(c.Align), true, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(t.Footer) > 0 {
		pdf.SetFont(fontFamily, "B", 9)
		pdf.SetFillColor(Gold[0], Gold[1], Gold[2])
		pdf.SetTextColor(255, 255, 255)
		for j, c := range t.Columns {
			cell := ""
			if j < len(t.Footer) {
				cell = t.Footer[j]
			}
			pdf.CellFormat(c.Width, rowHeight, tr(cell), "1", 0, string(c.Align), true, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render %q: %w", t.Title, err)
	}
	return buf.Bytes(), nil
}
