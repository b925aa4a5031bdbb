package store

import (
	"context"
	"sync"
	"time"

	"handover/models"

	"github.com/google/uuid"
)

// Memory keeps rows in process. Used for local development and tests.
type Memory struct {
	mu   sync.RWMutex
	rows []models.HandoverRecord
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) InsertRecord(ctx context.Context, rec models.HandoverRecord) (models.HandoverRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.HandoverRecord{}, err
	}
	rec = stamp(rec, uuid.NewString(), m.now())
	m.mu.Lock()
	m.rows = append(m.rows, rec)
	m.mu.Unlock()
	return rec, nil
}

func (m *Memory) ListRecords(ctx context.Context) ([]models.HandoverRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]models.HandoverRecord, len(m.rows))
	copy(out, m.rows)
	m.mu.RUnlock()
	newestFirst(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }
