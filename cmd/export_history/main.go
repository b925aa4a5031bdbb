package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"handover/pkg/config"
	"handover/pkg/export"
	"handover/pkg/store"
)

func main() {
	format := flag.String("format", "xlsx", "export format: xlsx or pdf")
	out := flag.String("out", "", "output file (default handover-documents.<format>)")
	envFile := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	write := export.Spreadsheet
	name := export.SpreadsheetFilename
	switch *format {
	case "xlsx":
	case "pdf":
		write, name = export.Document, export.DocumentFilename
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q (want xlsx or pdf)\n", *format)
		os.Exit(2)
	}
	if *out != "" {
		name = *out
	}

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

	rows, err := s.ListRecords(ctx)
	if err != nil {
		log.Fatalf("fetch history: %v", err)
	}
	f, err := os.Create(name)
	if err != nil {
		log.Fatalf("create %s: %v", name, err)
	}
	if err := write(f, rows); err != nil {
		f.Close()
		log.Fatalf("export: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("close %s: %v", name, err)
	}
	fmt.Printf("wrote %d records to %s\n", len(rows), name)
}
