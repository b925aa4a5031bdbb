package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"handover/models"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte(models.TableName)

// Bolt keeps rows in an embedded bbolt file, keyed by insertion sequence.
type Bolt struct {
	db  *bolt.DB
	now func() time.Time
}

func OpenBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt store: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("bolt store: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db, now: time.Now}, nil
}

func (b *Bolt) InsertRecord(ctx context.Context, rec models.HandoverRecord) (models.HandoverRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.HandoverRecord{}, err
	}
	rec = stamp(rec, uuid.NewString(), b.now())
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(boltBucket)
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		val, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bkt.Put(key, val)
	})
	if err != nil {
		return models.HandoverRecord{}, fmt.Errorf("insert handover: %w", err)
	}
	return rec, nil
}

func (b *Bolt) ListRecords(ctx context.Context) ([]models.HandoverRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []models.HandoverRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).ForEach(func(_, v []byte) error {
			var r models.HandoverRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			r.Date = models.CalendarDate(r.Date)
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list handovers: %w", err)
	}
	newestFirst(out)
	return out, nil
}

func (b *Bolt) Close() error { return b.db.Close() }
