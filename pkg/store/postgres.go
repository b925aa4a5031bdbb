package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"handover/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Postgres stores rows in a Postgres table through gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn. With migrate set it creates the table and the
// created_at index; permission errors are logged and ignored so a read-only
// role can still serve requests.
func OpenPostgres(ctx context.Context, dsn string, migrate bool) (*Postgres, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	p := &Postgres{db: gdb}
	if migrate {
		if err := p.Migrate(ctx); err != nil {
			log.Printf("migration warning (%s): %v", models.TableName, err)
		}
	}
	return p, nil
}

// NewPostgres wraps an existing gorm handle.
func NewPostgres(gdb *gorm.DB) *Postgres {
	return &Postgres{db: gdb}
}

// Migrate creates handover_documents and its created_at index if missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	db := p.db.WithContext(ctx)
	if err := db.AutoMigrate(&models.HandoverRecord{}); err != nil {
		return err
	}
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_handover_documents_created_at ON handover_documents(created_at DESC)`).Error
}

func (p *Postgres) InsertRecord(ctx context.Context, rec models.HandoverRecord) (models.HandoverRecord, error) {
	rec = stamp(rec, uuid.NewString(), time.Now())
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.HandoverRecord{}, fmt.Errorf("insert handover: %w", err)
	}
	return rec, nil
}

func (p *Postgres) ListRecords(ctx context.Context) ([]models.HandoverRecord, error) {
	var rows []models.HandoverRecord
	if err := p.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list handovers: %w", err)
	}
	for i := range rows {
		rows[i].Date = models.CalendarDate(rows[i].Date)
	}
	return rows, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
