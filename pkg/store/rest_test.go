package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"handover/models"
)

// fakePostgREST mimics the two endpoints the REST store uses.
type fakePostgREST struct {
	mu   sync.Mutex
	rows []map[string]any
	seq  int
	fail bool
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("apikey") != "anon" || r.Header.Get("Authorization") != "Bearer anon" {
		http.Error(w, `{"message":"no api key"}`, http.StatusUnauthorized)
		return
	}
	if r.URL.Path != "/rest/v1/handover_documents" {
		http.NotFound(w, r)
		return
	}
	if f.fail {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPost:
		var in []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, row := range in {
			if _, ok := row["id"]; ok {
				http.Error(w, `{"message":"id must be server assigned"}`, http.StatusBadRequest)
				return
			}
			f.seq++
			row["id"] = time.Now().Format("150405") + "-" + string(rune('a'+f.seq))
			// the date goes out as a plain day and comes back as a UTC timestamptz
			if s, ok := row["date"].(string); ok {
				d, err := time.Parse("2006-01-02", s)
				if err != nil {
					http.Error(w, `{"message":"date must be YYYY-MM-DD"}`, http.StatusBadRequest)
					return
				}
				row["date"] = d.Format("2006-01-02T15:04:05+00:00")
			}
			f.rows = append(f.rows, row)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	case http.MethodGet:
		if r.URL.Query().Get("order") != "created_at.desc" {
			http.Error(w, "order missing", http.StatusBadRequest)
			return
		}
		out := append([]map[string]any(nil), f.rows...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i]["created_at"].(string) > out[j]["created_at"].(string)
		})
		json.NewEncoder(w).Encode(out)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestRESTStore(t *testing.T) {
	srv := httptest.NewServer(&fakePostgREST{})
	defer srv.Close()
	exerciseStore(t, NewREST(srv.URL, "anon", time.Second))
}

func TestRESTStoreErrors(t *testing.T) {
	fake := &fakePostgREST{fail: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	s := NewREST(srv.URL+"/", "anon", time.Second)
	_, err := s.ListRecords(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("list err = %v", err)
	}
	if _, err := s.InsertRecord(context.Background(), sample("x", time.Now())); !errors.As(err, &apiErr) {
		t.Fatalf("insert err = %v", err)
	}

	bad := NewREST(srv.URL, "wrong", time.Second)
	if _, err := bad.ListRecords(context.Background()); !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("bad key err = %v", err)
	}
}

func TestRESTTimeLayouts(t *testing.T) {
	for _, in := range []string{
		`"2024-03-01T10:20:30.123456+00:00"`,
		`"2024-03-01T10:20:30"`,
		`"2024-03-01 10:20:30+00"`,
		`"2024-03-01"`,
	} {
		var rt restTime
		if err := json.Unmarshal([]byte(in), &rt); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if rt.Year() != 2024 || rt.Month() != time.March || rt.Day() != 1 {
			t.Fatalf("%s parsed as %v", in, rt.Time)
		}
	}
	var rt restTime
	if err := json.Unmarshal([]byte(`null`), &rt); err != nil || !rt.IsZero() {
		t.Fatalf("null: %v %v", err, rt.Time)
	}
}

func TestRESTTimeRejectsNonStrings(t *testing.T) {
	for _, in := range []string{`20240601`, `{}`, `true`, `["2024-06-01"]`} {
		var rt restTime
		if err := json.Unmarshal([]byte(in), &rt); err == nil {
			t.Errorf("restTime %s: expected error", in)
		}
		var rd restDate
		if err := json.Unmarshal([]byte(in), &rd); err == nil {
			t.Errorf("restDate %s: expected error", in)
		}
	}
}

func TestRESTListFailsOnMalformedDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"a","date":20240601,"created_at":"2024-06-01T10:00:00+00:00"}]`))
	}))
	defer srv.Close()
	rows, err := NewREST(srv.URL, "anon", time.Second).ListRecords(context.Background())
	if err == nil {
		t.Fatalf("expected decode error, got rows %+v", rows)
	}
}

func TestRESTDateGoesOutAsDay(t *testing.T) {
	withLocal(t, time.FixedZone("WIB", 7*3600))
	b, err := json.Marshal(toRow(models.HandoverRecord{Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"date":"2024-06-01"`) {
		t.Fatalf("row = %s", b)
	}
}
