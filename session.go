package main

import (
	"context"
	"log"
	"sync"
	"time"

	"handover/pkg/capture"
	"handover/pkg/handover"

	"github.com/google/uuid"
)

const sessionCookie = "handover_session"

// session is one browser's form: the controller, its capture control and the
// relay camera the page pushes frames into.
type session struct {
	ctrl    *handover.Controller
	camera  *capture.Relay
	capture *capture.Control

	lastSeen time.Time
}

// sessionRegistry maps cookie ids to sessions and drops idle ones.
type sessionRegistry struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*session
	now   func() time.Time
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{ttl: ttl, items: map[string]*session{}, now: time.Now}
}

// lookup returns the live session for id, creating a new one (with a new id)
// when id is unknown or expired.
func (r *sessionRegistry) lookup(id string, create func() *session) (string, *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if s, ok := r.items[id]; ok && now.Sub(s.lastSeen) <= r.ttl {
		s.lastSeen = now
		return id, s
	}
	s := create()
	s.lastSeen = now
	id = uuid.NewString()
	r.items[id] = s
	return id, s
}

// sweep drops sessions idle for longer than the ttl and returns how many.
func (r *sessionRegistry) sweep() int {
	r.mu.Lock()
	var stale []*session
	now := r.now()
	for id, s := range r.items {
		if now.Sub(s.lastSeen) > r.ttl {
			stale = append(stale, s)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.capture.Cancel()
	}
	return len(stale)
}

// reset drops every session, e.g. after the store changed.
func (r *sessionRegistry) reset() {
	r.mu.Lock()
	old := r.items
	r.items = map[string]*session{}
	r.mu.Unlock()
	for _, s := range old {
		s.capture.Cancel()
	}
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// run sweeps every interval until ctx is done.
func (r *sessionRegistry) run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.sweep(); n > 0 {
				log.Printf("dropped %d idle sessions", n)
			}
		}
	}
}
