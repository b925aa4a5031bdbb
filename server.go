package main

import (
	"context"
	"html/template"
	"log"
	"sync"

	"handover/pkg/capture"
	"handover/pkg/config"
	"handover/pkg/handover"
	"handover/pkg/store"
	"handover/web"
)

// server holds the current configuration and store. Both are replaced
// together when the .env file changes.
type server struct {
	tmpl     *template.Template
	sessions *sessionRegistry

	mu    sync.RWMutex
	cfg   config.Config
	store store.Store
}

func newServer(ctx context.Context, cfg config.Config) (*server, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	return &server{
		tmpl:     tmpl,
		sessions: newSessionRegistry(cfg.SessionTTL),
		cfg:      cfg,
		store:    openStore(ctx, cfg),
	}, nil
}

// newServerWithStore is used by tests to inject a store.
func newServerWithStore(cfg config.Config, s store.Store) (*server, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	return &server{tmpl: tmpl, sessions: newSessionRegistry(cfg.SessionTTL), cfg: cfg, store: s}, nil
}

func (s *server) current() (config.Config, store.Store) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.store
}

// reload swaps in a store for cfg and drops every session, since sessions
// hold controllers bound to the old store.
func (s *server) reload(cfg config.Config) {
	old, _ := s.current()
	if old.StoreURL == cfg.StoreURL && old.StoreKey == cfg.StoreKey {
		return
	}
	if cfg.Addr != old.Addr {
		log.Printf("listen address change to %s needs a restart", cfg.Addr)
		cfg.Addr = old.Addr
	}
	next := openStore(context.Background(), cfg)
	s.mu.Lock()
	prev := s.store
	s.cfg, s.store = cfg, next
	s.mu.Unlock()
	s.sessions.reset()
	if prev != nil {
		if err := prev.Close(); err != nil {
			log.Printf("closing previous store: %v", err)
		}
	}
	log.Printf("configuration reloaded (configured=%v)", cfg.Configured())
}

func (s *server) newSession() *session {
	cfg, st := s.current()
	ctrl := handover.New(st, cfg.Configured() && st != nil)
	relay := capture.NewRelay(cfg.PhotoMaxWidth)
	return &session{
		ctrl:    ctrl,
		camera:  relay,
		capture: capture.NewControl(relay, ctrl.SetPhoto),
	}
}

func (s *server) close() {
	s.sessions.reset()
	_, st := s.current()
	if st != nil {
		if err := st.Close(); err != nil {
			log.Printf("closing store: %v", err)
		}
	}
}
