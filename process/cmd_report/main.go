package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"handover/pkg/config"
	"handover/pkg/store"
	"handover/process/report"
)

func main() {
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
	envFile := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if !cfg.Configured() {
		fmt.Fprintf(os.Stderr, "%s / %s not set; export them and retry\n", config.EnvStoreURL, config.EnvStoreKey)
		os.Exit(2)
	}
	cfg.AutoMigrate = false

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	s, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer s.Close()

	if err := report.RunReport(ctx, os.Stdout, s, *month, *list); err != nil {
		log.Fatal(err)
	}
}
