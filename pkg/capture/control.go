// Package capture implements the single-shot photo capture control and the
// camera it reads frames from.
package capture

import (
	"log"
	"sync"
)

// Stream is a live camera stream.
type Stream interface {
	// Snapshot returns one still frame as a data URL, or false when no frame
	// is available yet.
	Snapshot() (string, bool)
	Close() error
}

// Camera opens streams.
type Camera interface {
	Open() (Stream, error)
}

type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Control is a two-state capture control. The stream it holds while open is
// released on every transition back to Closed.
type Control struct {
	cam       Camera
	onCapture func(string)

	mu     sync.Mutex
	stream Stream
}

// NewControl returns a closed control that hands captured frames to onCapture.
func NewControl(cam Camera, onCapture func(string)) *Control {
	return &Control{cam: cam, onCapture: onCapture}
}

func (c *Control) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return Open
	}
	return Closed
}

// Open starts the preview. Opening an open control does nothing.
func (c *Control) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return nil
	}
	s, err := c.cam.Open()
	if err != nil {
		return err
	}
	c.stream = s
	return nil
}

// Cancel closes the preview without capturing.
func (c *Control) Cancel() {
	c.mu.Lock()
	s := c.stream
	c.stream = nil
	c.mu.Unlock()
	release(s)
}

// Capture takes one frame. When a frame is available the stream is released,
// the control closes and the callback receives the frame. Otherwise nothing
// changes and Capture reports false.
func (c *Control) Capture() bool {
	c.mu.Lock()
	s := c.stream
	if s == nil {
		c.mu.Unlock()
		return false
	}
	frame, ok := s.Snapshot()
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.stream = nil
	c.mu.Unlock()
	release(s)
	if c.onCapture != nil {
		c.onCapture(frame)
	}
	return true
}

func release(s Stream) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		log.Printf("capture: closing stream: %v", err)
	}
}
