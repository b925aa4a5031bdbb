package main

import (
	"context"
	"fmt"
	"log"

	"handover/models"
	"handover/pkg/config"
	"handover/pkg/store"
)

// unavailableStore answers every call with the error that kept the real
// store from opening, so the pages still render and show the fixed messages.
type unavailableStore struct{ err error }

func (u unavailableStore) InsertRecord(context.Context, models.HandoverRecord) (models.HandoverRecord, error) {
	return models.HandoverRecord{}, u.err
}

func (u unavailableStore) ListRecords(context.Context) ([]models.HandoverRecord, error) {
	return nil, u.err
}

func (u unavailableStore) Close() error { return nil }

// openStore connects to the configured store. It returns nil when the
// configuration check fails; connection errors yield an unavailableStore.
func openStore(ctx context.Context, cfg config.Config) store.Store {
	if !cfg.Configured() {
		log.Printf("store not configured; serving setup instructions")
		return nil
	}
	s, err := store.Open(ctx, cfg)
	if err != nil {
		log.Printf("failed to open store: %v", err)
		return unavailableStore{err: fmt.Errorf("store unavailable: %w", err)}
	}
	return s
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// runMigrate creates the handover table on SQL stores. Other stores need no
// schema and only get a connection check.
func runMigrate(ctx context.Context, cfg config.Config) error {
	if !cfg.Configured() {
		return fmt.Errorf("%s and %s must be set", config.EnvStoreURL, config.EnvStoreKey)
	}
	cfg.AutoMigrate = false
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	if m, ok := s.(migrator); ok {
		return m.Migrate(ctx)
	}
	log.Printf("store %T has no schema to migrate", s)
	return nil
}
