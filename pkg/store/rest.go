package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"handover/models"
)

// REST talks to a hosted PostgREST endpoint (the Supabase REST API). The key
// is sent both as apikey and as the bearer token.
type REST struct {
	base   string
	key    string
	client *http.Client
}

func NewREST(baseURL, key string, timeout time.Duration) *REST {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &REST{
		base:   strings.TrimRight(baseURL, "/") + "/rest/v1/" + models.TableName,
		key:    key,
		client: &http.Client{Timeout: timeout},
	}
}

// restRow is the wire shape: snake_case columns, id and created_at left to
// the server when empty.
type restRow struct {
	ID             string   `json:"id,omitempty"`
	Date           restDate `json:"date"`
	AccountNumber  string   `json:"account_number"`
	Name           string   `json:"name"`
	DocumentIndex1 string   `json:"document_index1"`
	DocumentIndex2 string   `json:"document_index2"`
	DocumentIndex3 string   `json:"document_index3"`
	DocumentIndex4 string   `json:"document_index4"`
	Information    string   `json:"information"`
	Recipient      string   `json:"recipient"`
	PhotoProof     string   `json:"photo_proof"`
	CreatedAt      restTime `json:"created_at"`
}

// restTime accepts timestamps with and without a zone; PostgREST sends
// "timestamp" columns without one.
type restTime struct{ time.Time }

var restTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t restTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *restTime) UnmarshalJSON(b []byte) error {
	v, err := parseRESTTime(b)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

// parseRESTTime maps null and "" to the zero time. Any other non-string
// value is an error.
func parseRESTTime(b []byte) (time.Time, error) {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return time.Time{}, fmt.Errorf("timestamp must be a string, got %s", b)
	}
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range restTimeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// restDate is the record date. It is sent as YYYY-MM-DD and read back as
// the calendar day the server returns, whether the column is a date or a
// timestamp.
type restDate struct{ time.Time }

func (d restDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(models.DateLayout))
}

func (d *restDate) UnmarshalJSON(b []byte) error {
	v, err := parseRESTTime(b)
	if err != nil {
		return err
	}
	d.Time = models.CalendarDate(v)
	return nil
}

func toRow(r models.HandoverRecord) restRow {
	return restRow{
		ID:             r.ID,
		Date:           restDate{r.Date},
		AccountNumber:  r.AccountNumber,
		Name:           r.Name,
		DocumentIndex1: r.DocumentIndex1,
		DocumentIndex2: r.DocumentIndex2,
		DocumentIndex3: r.DocumentIndex3,
		DocumentIndex4: r.DocumentIndex4,
		Information:    r.Information,
		Recipient:      r.Recipient,
		PhotoProof:     r.PhotoProof,
		CreatedAt:      restTime{r.CreatedAt},
	}
}

func (w restRow) record() models.HandoverRecord {
	return models.HandoverRecord{
		ID:             w.ID,
		Date:           w.Date.Time,
		AccountNumber:  w.AccountNumber,
		Name:           w.Name,
		DocumentIndex1: w.DocumentIndex1,
		DocumentIndex2: w.DocumentIndex2,
		DocumentIndex3: w.DocumentIndex3,
		DocumentIndex4: w.DocumentIndex4,
		Information:    w.Information,
		Recipient:      w.Recipient,
		PhotoProof:     w.PhotoProof,
		CreatedAt:      w.CreatedAt.Time,
	}
}

// APIError is a non-2xx answer from the REST endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store returned %d: %s", e.Status, e.Message)
}

func (r *REST) InsertRecord(ctx context.Context, rec models.HandoverRecord) (models.HandoverRecord, error) {
	rec.ID = ""
	body, err := json.Marshal([]restRow{toRow(rec)})
	if err != nil {
		return models.HandoverRecord{}, err
	}
	req, err := r.newRequest(ctx, http.MethodPost, r.base, bytes.NewReader(body))
	if err != nil {
		return models.HandoverRecord{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	var rows []restRow
	if err := r.do(req, &rows); err != nil {
		return models.HandoverRecord{}, fmt.Errorf("insert handover: %w", err)
	}
	if len(rows) == 0 {
		return models.HandoverRecord{}, fmt.Errorf("insert handover: empty representation")
	}
	return rows[0].record(), nil
}

func (r *REST) ListRecords(ctx context.Context) ([]models.HandoverRecord, error) {
	req, err := r.newRequest(ctx, http.MethodGet, r.base+"?select=*&order=created_at.desc", nil)
	if err != nil {
		return nil, err
	}
	var rows []restRow
	if err := r.do(req, &rows); err != nil {
		return nil, fmt.Errorf("list handovers: %w", err)
	}
	out := make([]models.HandoverRecord, 0, len(rows))
	for _, w := range rows {
		out = append(out, w.record())
	}
	return out, nil
}

func (r *REST) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func (r *REST) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", r.key)
	req.Header.Set("Authorization", "Bearer "+r.key)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (r *REST) do(req *http.Request, out any) error {
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
