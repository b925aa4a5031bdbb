package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"handover/models"
	"handover/pkg/config"
	"handover/pkg/store"
)

// runInspect prints the columns of the handover table and fails when any
// expected column is missing.
func runInspect(ctx context.Context, w io.Writer, cfg config.Config) error {
	if !cfg.Configured() {
		return fmt.Errorf("%s and %s must be set", config.EnvStoreURL, config.EnvStoreKey)
	}
	cfg.AutoMigrate = false
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return inspectStore(ctx, w, s)
}

func inspectStore(ctx context.Context, w io.Writer, s store.Store) error {
	in, ok := s.(store.Inspector)
	if !ok {
		fmt.Fprintf(w, "store %T has no table to inspect\n", s)
		return nil
	}
	cols, err := in.TableColumns(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Columns of %s:\n", models.TableName)
	for _, c := range cols {
		fmt.Fprintf(w, "- %s\n", c)
	}
	if missing := store.MissingColumns(cols); len(missing) > 0 {
		return fmt.Errorf("missing columns: %s (run `handover migrate`)", strings.Join(missing, ", "))
	}
	return nil
}
