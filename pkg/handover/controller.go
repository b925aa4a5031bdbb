// Package handover holds the main form controller: form state, the loaded
// history snapshot, submission and the export actions.
package handover

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"handover/models"
	"handover/pkg/export"
	"handover/pkg/store"
)

// User-facing error messages. Failure details only go to the log.
const (
	MsgLoadFailed = "Failed to load handover history. Please try again later."
	MsgSaveFailed = "Failed to save document. Please try again."
)

var ErrUnknownField = errors.New("unknown form field")

// Field names a form input, using the record's JSON names.
type Field string

const (
	AccountNumber  Field = "accountNumber"
	Name           Field = "name"
	DocumentIndex1 Field = "documentIndex1"
	DocumentIndex2 Field = "documentIndex2"
	DocumentIndex3 Field = "documentIndex3"
	DocumentIndex4 Field = "documentIndex4"
	Recipient      Field = "recipient"
	Information    Field = "information"
	PhotoProof     Field = "photoProof"
)

// Fields lists the text inputs in form order. PhotoProof is set through the
// capture control, not typed.
var Fields = []Field{AccountNumber, Name, DocumentIndex1, DocumentIndex2, DocumentIndex3, DocumentIndex4, Recipient, Information}

// Form is the not yet persisted record.
type Form struct {
	AccountNumber  string
	Name           string
	DocumentIndex1 string
	DocumentIndex2 string
	DocumentIndex3 string
	DocumentIndex4 string
	Recipient      string
	Information    string
	PhotoProof     string
}

func (f *Form) field(name Field) (*string, bool) {
	switch name {
	case AccountNumber:
		return &f.AccountNumber, true
	case Name:
		return &f.Name, true
	case DocumentIndex1:
		return &f.DocumentIndex1, true
	case DocumentIndex2:
		return &f.DocumentIndex2, true
	case DocumentIndex3:
		return &f.DocumentIndex3, true
	case DocumentIndex4:
		return &f.DocumentIndex4, true
	case Recipient:
		return &f.Recipient, true
	case Information:
		return &f.Information, true
	case PhotoProof:
		return &f.PhotoProof, true
	}
	return nil, false
}

// Get returns the value of one field, or "" for unknown names.
func (f Form) Get(name Field) string {
	if p, ok := f.field(name); ok {
		return *p
	}
	return ""
}

// View is a copy of the controller state for rendering.
type View struct {
	Configured bool
	Form       Form
	Date       time.Time
	History    []models.HandoverRecord
	Loading    bool
	Error      string
}

// Controller owns the state of one form. It is safe for concurrent use;
// store calls run without the state lock, so of two overlapping fetches the
// one that finishes last sets the history.
type Controller struct {
	store      store.Store
	configured bool
	now        func() time.Time

	mu      sync.Mutex
	form    Form
	date    time.Time
	history []models.HandoverRecord
	loading bool
	err     string
}

type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller. When configured is false the controller never
// touches s, which may be nil.
func New(s store.Store, configured bool, opts ...Option) *Controller {
	c := &Controller{store: s, configured: configured, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	c.date = today(c.now())
	return c
}

func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (c *Controller) Configured() bool { return c.configured }

// Initialize loads the history unless the store is not configured, in which
// case it does nothing.
func (c *Controller) Initialize(ctx context.Context) {
	if !c.configured {
		return
	}
	c.Refresh(ctx)
}

// Refresh replaces the history with a fresh full fetch. On failure the last
// known history stays and the load message is set.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	c.err = ""
	c.mu.Unlock()

	rows, err := c.store.ListRecords(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		log.Printf("error fetching history: %v", err)
		c.err = MsgLoadFailed
		return
	}
	if rows == nil {
		rows = []models.HandoverRecord{}
	}
	c.history = rows
}

// Submit inserts the current form as one record. On success the form resets
// and the history is fetched again; on failure the form is kept as it was
// and the save message is set.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	c.err = ""
	f := c.form
	rec := models.HandoverRecord{
		Date:           c.date,
		AccountNumber:  f.AccountNumber,
		Name:           f.Name,
		DocumentIndex1: f.DocumentIndex1,
		DocumentIndex2: f.DocumentIndex2,
		DocumentIndex3: f.DocumentIndex3,
		DocumentIndex4: f.DocumentIndex4,
		Information:    f.Information,
		Recipient:      f.Recipient,
		PhotoProof:     f.PhotoProof,
		CreatedAt:      c.now(),
	}
	c.mu.Unlock()

	if _, err := c.store.InsertRecord(ctx, rec); err != nil {
		log.Printf("error saving document: %v", err)
		c.mu.Lock()
		c.err = MsgSaveFailed
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.form = Form{}
	c.date = today(c.now())
	c.mu.Unlock()
	c.Refresh(ctx)
	return nil
}

// SetField replaces one field and leaves the others alone.
func (c *Controller) SetField(name Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.form.field(name)
	if !ok {
		return ErrUnknownField
	}
	*p = value
	return nil
}

// SetDate selects the record date. A zero time means today.
func (c *Controller) SetDate(d time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.IsZero() {
		d = c.now()
	}
	c.date = today(d)
}

// SetPhoto stores a captured frame; it is the capture control callback.
func (c *Controller) SetPhoto(dataURL string) {
	c.mu.Lock()
	c.form.PhotoProof = dataURL
	c.mu.Unlock()
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Configured: c.configured,
		Form:       c.form,
		Date:       c.date,
		History:    append([]models.HandoverRecord(nil), c.history...),
		Loading:    c.loading,
		Error:      c.err,
	}
}

func (c *Controller) snapshot() []models.HandoverRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.HandoverRecord(nil), c.history...)
}

// ExportSpreadsheet writes the loaded history; it never fetches.
func (c *Controller) ExportSpreadsheet(w io.Writer) error {
	return export.Spreadsheet(w, c.snapshot())
}

// ExportDocument writes the loaded history as a PDF table; it never fetches.
func (c *Controller) ExportDocument(w io.Writer) error {
	return export.Document(w, c.snapshot())
}
