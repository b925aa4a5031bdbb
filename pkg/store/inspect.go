package store

import (
	"context"
	"fmt"

	"handover/models"
)

// Inspector is implemented by stores that can report the columns their
// handover table actually has.
type Inspector interface {
	TableColumns(ctx context.Context) ([]string, error)
}

// MissingColumns returns the expected columns absent from have, in
// models.Columns order.
func MissingColumns(have []string) []string {
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[c] = true
	}
	var missing []string
	for _, c := range models.Columns {
		if !set[c.Name] {
			missing = append(missing, c.Name)
		}
	}
	return missing
}

func (p *Postgres) TableColumns(ctx context.Context) ([]string, error) {
	var cols []string
	err := p.db.WithContext(ctx).Raw(`
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position`, models.TableName).Scan(&cols).Error
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	return cols, nil
}

func (m *MySQL) TableColumns(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, models.TableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return cols, nil
}
