// Package store holds the remote store clients for handover records. Every
// backend supports exactly two operations: insert one row and list all rows
// newest first.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"handover/models"
	"handover/pkg/config"
)

// Store is the remote store collaborator.
type Store interface {
	// InsertRecord stores rec as a new row and returns it with its ID set.
	InsertRecord(ctx context.Context, rec models.HandoverRecord) (models.HandoverRecord, error)
	// ListRecords returns every row ordered by creation time, newest first.
	ListRecords(ctx context.Context) ([]models.HandoverRecord, error)
	Close() error
}

var (
	ErrNotConfigured     = errors.New("store is not configured")
	ErrUnsupportedScheme = errors.New("unsupported store url scheme")
)

// Open connects to the store named by cfg.StoreURL. The scheme picks the
// backend: http(s) for a hosted REST endpoint, postgres, mysql, bolt for an
// embedded file and memory for an in-process store.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(cfg.StoreURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewREST(cfg.StoreURL, cfg.StoreKey, cfg.RequestTimeout), nil
	case "postgres", "postgresql":
		return OpenPostgres(ctx, withPassword(u, cfg.StoreKey), cfg.AutoMigrate)
	case "mysql":
		return OpenMySQL(ctx, u, cfg.StoreKey, cfg.AutoMigrate)
	case "bolt":
		return OpenBolt(boltPath(u))
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// withPassword returns u as a DSN with key as the password unless u already
// carries one.
func withPassword(u *url.URL, key string) string {
	c := *u
	if key != "" {
		if c.User == nil {
			c.User = url.UserPassword("postgres", key)
		} else if _, set := c.User.Password(); !set {
			c.User = url.UserPassword(c.User.Username(), key)
		}
	}
	return c.String()
}

// boltPath maps bolt:///var/lib/h.db and bolt://./h.db to file paths.
func boltPath(u *url.URL) string {
	if u.Host != "" {
		return u.Host + u.Path
	}
	return u.Path
}

// stamp fills the fields a store is responsible for.
func stamp(rec models.HandoverRecord, id string, now time.Time) models.HandoverRecord {
	rec.ID = id
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	return rec
}

// newestFirst sorts rows by CreatedAt descending. rows must be in insertion
// order; ties keep the later insert first.
func newestFirst(rows []models.HandoverRecord) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
}
