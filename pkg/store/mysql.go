package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"handover/models"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

const recordColumns = "id, date, account_number, name, document_index1, document_index2, document_index3, document_index4, information, recipient, photo_proof, created_at"

// MySQL stores rows in a MySQL table through database/sql.
type MySQL struct {
	db *sql.DB
}

// OpenMySQL connects to mysql://user@host:port/dbname using key as the
// password when the URL has none.
func OpenMySQL(ctx context.Context, u *url.URL, key string, migrate bool) (*MySQL, error) {
	dsn, err := mysqlDSN(u, key)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	m := &MySQL{db: db}
	if migrate {
		if err := m.InitTables(ctx); err != nil {
			log.Printf("migration warning (%s): %v", models.TableName, err)
		}
	}
	return m, nil
}

func mysqlDSN(u *url.URL, key string) (string, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if !strings.Contains(cfg.Addr, ":") {
		cfg.Addr += ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if cfg.DBName == "" {
		return "", fmt.Errorf("mysql url %q: database name missing", u.Redacted())
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			cfg.Passwd = pw
		}
	}
	if cfg.Passwd == "" {
		cfg.Passwd = key
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// InitTables creates handover_documents if it does not exist.
func (m *MySQL) InitTables(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS handover_documents (
			id CHAR(36) PRIMARY KEY,
			date DATE NOT NULL,
			account_number TEXT NOT NULL,
			name TEXT NOT NULL,
			document_index1 TEXT NOT NULL,
			document_index2 TEXT NOT NULL,
			document_index3 TEXT NOT NULL,
			document_index4 TEXT NOT NULL,
			information TEXT NOT NULL,
			recipient TEXT NOT NULL,
			photo_proof LONGTEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_handover_documents_created_at (created_at)
		)
	`)
	if err != nil {
		return fmt.Errorf("create table %s: %w", models.TableName, err)
	}
	return nil
}

func (m *MySQL) Migrate(ctx context.Context) error { return m.InitTables(ctx) }

func (m *MySQL) InsertRecord(ctx context.Context, rec models.HandoverRecord) (models.HandoverRecord, error) {
	rec = stamp(rec, uuid.NewString(), time.Now())
	_, err := m.db.ExecContext(ctx,
		"INSERT INTO handover_documents ("+recordColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Date.Format(models.DateLayout), rec.AccountNumber, rec.Name,
		rec.DocumentIndex1, rec.DocumentIndex2, rec.DocumentIndex3, rec.DocumentIndex4,
		rec.Information, rec.Recipient, rec.PhotoProof, rec.CreatedAt.UTC())
	if err != nil {
		return models.HandoverRecord{}, fmt.Errorf("insert handover: %w", err)
	}
	return rec, nil
}

func (m *MySQL) ListRecords(ctx context.Context) ([]models.HandoverRecord, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT "+recordColumns+" FROM handover_documents ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list handovers: %w", err)
	}
	defer rows.Close()
	var out []models.HandoverRecord
	for rows.Next() {
		var r models.HandoverRecord
		if err := rows.Scan(&r.ID, &r.Date, &r.AccountNumber, &r.Name,
			&r.DocumentIndex1, &r.DocumentIndex2, &r.DocumentIndex3, &r.DocumentIndex4,
			&r.Information, &r.Recipient, &r.PhotoProof, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan handover: %w", err)
		}
		// DATE columns scan as midnight in cfg.Loc
		r.Date = models.CalendarDate(r.Date)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list handovers: %w", err)
	}
	return out, nil
}

func (m *MySQL) Close() error { return m.db.Close() }
