package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"handover/pkg/config"

	"github.com/gin-gonic/gin"
)

func main() {
	envFile := os.Getenv("HANDOVER_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// `handover migrate` creates the table and exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(context.Background(), cfg); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		fmt.Println("migration completed")
		return
	}
	if len(os.Args) > 1 && os.Args[1] == "inspect" {
		if err := runInspect(context.Background(), os.Stdout, cfg); err != nil {
			log.Fatalf("inspect: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cfg)
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	defer srv.close()

	r := gin.Default()
	setupRoutes(r, srv)

	go func() {
		if err := config.Watch(ctx, cfg.EnvFile, srv.reload); err != nil {
			log.Printf("config watch stopped: %v", err)
		}
	}()
	go srv.sessions.run(ctx, time.Minute)

	httpSrv := &http.Server{Addr: cfg.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("handover listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
