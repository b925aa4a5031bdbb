package export

import (
	"fmt"
	"io"
	"time"

	"handover/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Handover Documents"

// maxCellChars is the xlsx limit on the length of one cell.
const maxCellChars = 32767

// SpreadsheetHeader follows the record's field names.
var SpreadsheetHeader = []string{
	"id", "date", "accountNumber", "name",
	"documentIndex1", "documentIndex2", "documentIndex3", "documentIndex4",
	"information", "recipient", "photoProof", "createdAt",
}

func spreadsheetRow(r models.HandoverRecord) []string {
	return []string{
		r.ID,
		r.Date.Format(models.DateLayout),
		r.AccountNumber,
		r.Name,
		r.DocumentIndex1,
		r.DocumentIndex2,
		r.DocumentIndex3,
		r.DocumentIndex4,
		r.Information,
		r.Recipient,
		clip(r.PhotoProof),
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// clip truncates a cell to the xlsx limit. Captured photos are usually
// longer than a cell can hold.
func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxCellChars {
		return s
	}
	return string(r[:maxCellChars])
}

// Spreadsheet writes one sheet with a header row and one row per record, in
// the order given.
func Spreadsheet(w io.Writer, records []models.HandoverRecord) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := setRow(f, 1, SpreadsheetHeader); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, i+2, spreadsheetRow(r)); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	return nil
}
