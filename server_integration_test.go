package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"handover/models"
	"handover/pkg/config"
	"handover/pkg/export"
	"handover/pkg/handover"
	"handover/pkg/store"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// countingStore wraps a store and counts calls so tests can assert that no
// network call happened.
type countingStore struct {
	store.Store
	mu        sync.Mutex
	lists     int
	inserts   int
	insertErr error
	listErr   error
}

func (c *countingStore) InsertRecord(ctx context.Context, r models.HandoverRecord) (models.HandoverRecord, error) {
	c.mu.Lock()
	c.inserts++
	err := c.insertErr
	c.mu.Unlock()
	if err != nil {
		return models.HandoverRecord{}, err
	}
	return c.Store.InsertRecord(ctx, r)
}

func (c *countingStore) ListRecords(ctx context.Context) ([]models.HandoverRecord, error) {
	c.mu.Lock()
	c.lists++
	err := c.listErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Store.ListRecords(ctx)
}

// client keeps the session cookie between requests like a browser.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (cl *client) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}
	rec := httptest.NewRecorder()
	cl.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie {
			cl.cookie = ck
		}
	}
	return rec
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(http.MethodGet, path, nil, "")
}

func (cl *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	return cl.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func setupTestServer(t *testing.T, cfg config.Config, st store.Store) (*server, *client) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := newServerWithStore(cfg, st)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	r := gin.New()
	setupRoutes(r, srv)
	return srv, &client{t: t, h: r}
}

func configured() config.Config {
	cfg := config.Default()
	cfg.StoreURL, cfg.StoreKey = "memory://", "test"
	return cfg
}

func TestUnconfiguredShowsSetupOnly(t *testing.T) {
	cs := &countingStore{Store: store.NewMemory()}
	cfg := config.Default()
	cfg.StoreURL, cfg.StoreKey = config.PlaceholderURL, config.PlaceholderKey
	_, cl := setupTestServer(t, cfg, cs)

	resp := cl.get("/")
	if resp.Code != http.StatusOK {
		t.Fatalf("status %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "Setup Required") || !strings.Contains(body, "document_index4") {
		t.Fatalf("setup page missing content: %s", body)
	}
	if strings.Contains(body, "<form") {
		t.Fatal("setup page must not render the form")
	}
	cl.post("/submit", url.Values{"name": {"x"}})
	if cs.lists != 0 || cs.inserts != 0 {
		t.Fatalf("store touched: lists=%d inserts=%d", cs.lists, cs.inserts)
	}
	if resp := cl.get("/api/handovers"); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("api status %d", resp.Code)
	}
}

func TestFullFlow(t *testing.T) {
	cs := &countingStore{Store: store.NewMemory()}
	_, cl := setupTestServer(t, configured(), cs)

	// 1. Load the form
	resp := cl.get("/")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "Minutes of Handover") {
		t.Fatalf("index failed status=%d", resp.Code)
	}
	if cl.cookie == nil {
		t.Fatal("no session cookie issued")
	}

	// 2. Submit a record
	form := url.Values{
		"date":          {"2024-02-29"},
		"accountNumber": {"ACC-77"},
		"name":          {"Grace"},
		"recipient":     {"Archive"},
		"information":   {"boxes 1-3"},
	}
	resp = cl.post("/submit", form)
	body := resp.Body.String()
	if !strings.Contains(body, "29/02/2024") || !strings.Contains(body, "ACC-77") {
		t.Fatalf("history row missing after submit: %s", body)
	}
	if strings.Contains(body, `value="Grace"`) {
		t.Fatal("form should be reset after a successful submit")
	}

	// 3. Submit an empty record
	cl.post("/submit", url.Values{})
	if cs.inserts != 2 {
		t.Fatalf("inserts = %d", cs.inserts)
	}

	// 4. API view matches, newest first
	resp = cl.get("/api/handovers")
	var rows []models.HandoverRecord
	if err := json.Unmarshal(resp.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || rows[1].AccountNumber != "ACC-77" || rows[0].AccountNumber != "" {
		t.Fatalf("rows = %+v", rows)
	}

	// 5. Exports
	lists := cs.lists
	resp = cl.get("/export/xlsx")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Header().Get("Content-Disposition"), export.SpreadsheetFilename) {
		t.Fatalf("xlsx status=%d disposition=%q", resp.Code, resp.Header().Get("Content-Disposition"))
	}
	f, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	sheetRows, _ := f.GetRows(export.SheetName)
	f.Close()
	if len(sheetRows) != 3 {
		t.Fatalf("xlsx rows = %d", len(sheetRows))
	}
	resp = cl.get("/export/pdf")
	if resp.Code != http.StatusOK || !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("pdf status=%d", resp.Code)
	}
	if !strings.Contains(resp.Header().Get("Content-Disposition"), export.DocumentFilename) {
		t.Fatal("pdf download name missing")
	}
	if cs.lists != lists {
		t.Fatal("exports must not fetch")
	}
}

func TestSubmitFailureKeepsFormValues(t *testing.T) {
	cs := &countingStore{Store: store.NewMemory(), insertErr: errors.New("db down")}
	_, cl := setupTestServer(t, configured(), cs)
	cl.get("/")
	lists := cs.lists

	resp := cl.post("/submit", url.Values{"name": {"Linus"}, "date": {"2021-06-15"}})
	body := resp.Body.String()
	if !strings.Contains(body, handover.MsgSaveFailed) {
		t.Fatalf("save message missing: %s", body)
	}
	if !strings.Contains(body, `value="Linus"`) || !strings.Contains(body, `value="2021-06-15"`) {
		t.Fatal("form values lost after failed submit")
	}
	if cs.lists != lists {
		t.Fatal("failed submit must not re-fetch")
	}
}

func TestFetchFailureShowsMessage(t *testing.T) {
	cs := &countingStore{Store: store.NewMemory(), listErr: errors.New("timeout")}
	_, cl := setupTestServer(t, configured(), cs)
	body := cl.get("/").Body.String()
	if !strings.Contains(body, handover.MsgLoadFailed) {
		t.Fatalf("load message missing: %s", body)
	}
	if strings.Contains(body, "Loading") {
		t.Fatal("loading indicator should be cleared")
	}
}

func frameDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(32, 24, color.NRGBA{0, 120, 200, 255}), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCaptureFlow(t *testing.T) {
	cs := &countingStore{Store: store.NewMemory()}
	_, cl := setupTestServer(t, configured(), cs)
	cl.get("/")

	body := cl.post("/capture/open", url.Values{"name": {"Ada"}}).Body.String()
	if !strings.Contains(body, "Capture Photo") {
		t.Fatal("preview not open")
	}
	if !strings.Contains(body, `value="Ada"`) {
		t.Fatal("field edits lost when opening the camera")
	}

	// no frame: stays open, no photo
	body = cl.post("/capture", url.Values{"frame": {""}}).Body.String()
	if !strings.Contains(body, "Capture Photo") || strings.Contains(body, `alt="Proof"`) {
		t.Fatal("capture without frame must leave preview open")
	}

	body = cl.post("/capture", url.Values{"frame": {frameDataURL(t)}}).Body.String()
	if strings.Contains(body, "Capture Photo") {
		t.Fatal("preview should close after capture")
	}
	if !strings.Contains(body, `alt="Proof"`) || !strings.Contains(body, "data:image/jpeg;base64,") {
		t.Fatal("captured photo not shown")
	}

	cl.post("/submit", url.Values{})
	rows, _ := cs.Store.ListRecords(context.Background())
	if len(rows) != 1 || !strings.HasPrefix(rows[0].PhotoProof, "data:image/jpeg;base64,") || rows[0].Name != "Ada" {
		t.Fatalf("stored = %+v", rows)
	}

	// cancel path
	cl.post("/capture/open", url.Values{})
	body = cl.post("/capture/cancel", url.Values{}).Body.String()
	if strings.Contains(body, "Capture Photo") {
		t.Fatal("cancel should close the preview")
	}
}

func TestAPICreate(t *testing.T) {
	cs := &countingStore{Store: store.NewMemory()}
	_, cl := setupTestServer(t, configured(), cs)
	payload, _ := json.Marshal(map[string]any{"accountNumber": "A1", "name": "N", "id": "client-id"})
	resp := cl.do(http.MethodPost, "/api/handovers", bytes.NewReader(payload), "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("status %d body=%s", resp.Code, resp.Body.String())
	}
	var rec models.HandoverRecord
	json.Unmarshal(resp.Body.Bytes(), &rec)
	if rec.ID == "" || rec.ID == "client-id" || rec.CreatedAt.IsZero() || rec.Date.IsZero() {
		t.Fatalf("record = %+v", rec)
	}

	cs.insertErr = errors.New("nope")
	resp = cl.do(http.MethodPost, "/api/handovers", bytes.NewReader(payload), "application/json")
	if resp.Code != http.StatusBadGateway || !strings.Contains(resp.Body.String(), handover.MsgSaveFailed) {
		t.Fatalf("failure status %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestReloadSwitchesToForm(t *testing.T) {
	srv, cl := setupTestServer(t, config.Default(), nil)
	if body := cl.get("/").Body.String(); !strings.Contains(body, "Setup Required") {
		t.Fatal("expected setup page")
	}
	srv.reload(configured())
	if body := cl.get("/").Body.String(); !strings.Contains(body, "Minutes of Handover") {
		t.Fatal("expected form after reload")
	}
}

func TestSessionsExpire(t *testing.T) {
	reg := newSessionRegistry(0)
	srv, _ := newServerWithStore(configured(), store.NewMemory())
	id, _ := reg.lookup("", srv.newSession)
	if reg.len() != 1 {
		t.Fatal("session not stored")
	}
	reg.now = func() time.Time { return time.Now().Add(time.Second) }
	if n := reg.sweep(); n != 1 || reg.len() != 0 {
		t.Fatalf("swept %d, left %d", n, reg.len())
	}
	if id2, _ := reg.lookup(id, srv.newSession); id2 == id {
		t.Fatal("expired id must not be reused")
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	cfg := config.Default()
	cfg.StoreURL, cfg.StoreKey = os.Getenv("DB_DSN"), "unused"
	if err := runMigrate(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
}
