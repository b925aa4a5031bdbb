// Package history builds the read-only history table shown under the form.
package history

import "handover/models"

// DateLayout is dd/MM/yyyy.
const DateLayout = "02/01/2006"

// Columns are the visible table headers, in order.
var Columns = []string{"Date", "Account Number", "Name", "Recipient"}

type Row struct {
	Date          string
	AccountNumber string
	Name          string
	Recipient     string
}

// Cells returns the row in column order.
func (r Row) Cells() []string {
	return []string{r.Date, r.AccountNumber, r.Name, r.Recipient}
}

type Table struct {
	Loading bool
	Columns []string
	Rows    []Row
}

// Render maps records to table rows in the order given. Sorting is the
// fetch's job. While loading the table has no rows.
func Render(records []models.HandoverRecord, loading bool) Table {
	t := Table{Loading: loading, Columns: Columns}
	if loading {
		return t
	}
	t.Rows = make([]Row, 0, len(records))
	for _, r := range records {
		t.Rows = append(t.Rows, Row{
			Date:          r.Date.Format(DateLayout),
			AccountNumber: r.AccountNumber,
			Name:          r.Name,
			Recipient:     r.Recipient,
		})
	}
	return t
}
