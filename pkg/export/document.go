package export

import (
	"fmt"
	"io"

	"handover/models"

	"codeberg.org/go-pdf/fpdf"
)

// DocumentDateLayout is the short locale date (M/D/YYYY).
const DocumentDateLayout = "1/2/2006"

// DocumentHeader mirrors the history table columns.
var DocumentHeader = []string{"Date", "Account Number", "Name", "Recipient"}

var columnWidths = []float64{35, 55, 55, 45}

const rowHeight = 8.0

// documentRows maps each record to exactly the four visible columns.
func documentRows(records []models.HandoverRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date.Format(DocumentDateLayout),
			r.AccountNumber,
			r.Name,
			r.Recipient,
		})
	}
	return rows
}

// Document writes an A4 table of the records in the order given. The header
// row is repeated when the table runs onto another page.
func Document(w io.Writer, records []models.HandoverRecord) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Handover Documents", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(41, 128, 185)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range DocumentHeader {
			pdf.CellFormat(columnWidths[i], rowHeight, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(245, 245, 245)
	})
	pdf.AddPage()
	for i, row := range documentRows(records) {
		fill := i%2 == 1
		for j, cell := range row {
			pdf.CellFormat(columnWidths[j], rowHeight, fit(pdf, tr(cell), columnWidths[j]-2), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// fit shortens s until it fits width in the current font.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > width {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}
