package capture

import (
	"log"
	"sync"
)

// Relay is a Camera fed by the browser: the page grabs a frame from its live
// preview and pushes it here, and the next Snapshot consumes it.
type Relay struct {
	maxWidth int

	mu    sync.Mutex
	frame string
	live  *relayStream
}

func NewRelay(maxWidth int) *Relay {
	return &Relay{maxWidth: maxWidth}
}

// Open starts a new stream; any frame pushed before it is dropped.
func (r *Relay) Open() (Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = ""
	s := &relayStream{relay: r}
	r.live = s
	return s, nil
}

// Push offers a frame to the live stream. Frames pushed while no stream is
// open are discarded.
func (r *Relay) Push(dataURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live == nil {
		return
	}
	r.frame = dataURL
}

type relayStream struct {
	relay *Relay
}

func (s *relayStream) Snapshot() (string, bool) {
	r := s.relay
	r.mu.Lock()
	if r.live != s || r.frame == "" {
		r.mu.Unlock()
		return "", false
	}
	frame := r.frame
	r.frame = ""
	r.mu.Unlock()

	out, err := NormalizeFrame(frame, r.maxWidth)
	if err != nil {
		log.Printf("capture: frame dropped: %v", err)
		return "", false
	}
	return out, true
}

func (s *relayStream) Close() error {
	r := s.relay
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live == s {
		r.live = nil
		r.frame = ""
	}
	return nil
}
