package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"handover/pkg/store"
)

// MonthBounds returns the UTC [start, end) range of month (YYYY-MM).
func MonthBounds(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// RunReport writes a month-bounded summary of handovers created in month
// (YYYY-MM) and optionally lists the matching rows.
func RunReport(ctx context.Context, w io.Writer, s store.Store, month string, list bool) error {
	start, end, err := MonthBounds(month)
	if err != nil {
		return err
	}
	rows, err := s.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("fetch rows failed: %w", err)
	}

	recipients := map[string]int{}
	var cnt, withPhoto int
	var listed []string
	// rows are newest first; walk backwards so the listing reads oldest first
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		created := r.CreatedAt.UTC()
		if created.Before(start) || !created.Before(end) {
			continue
		}
		cnt++
		recipients[r.Recipient]++
		if r.PhotoProof != "" {
			withPhoto++
		}
		if list {
			listed = append(listed, fmt.Sprintf("%s|%s|%s|%s|%s|%s", r.ID, r.Date.Format("2006-01-02"), r.AccountNumber, r.Name, r.Recipient, created.Format(time.RFC3339)))
		}
	}

	fmt.Fprintf(w, "Report for month=%s (UTC):\n", month)
	fmt.Fprintf(w, "  records=%d with_photo=%d recipients=%d\n", cnt, withPhoto, len(recipients))
	for _, line := range listed {
		fmt.Fprintln(w, line)
	}
	return nil
}
