package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ishan19r/apt-hunt/config"
	"github.com/ishan19r/apt-hunt/events"
	"github.com/ishan19r/apt-hunt/models"
	"github.com/ishan19r/apt-hunt/services"
	"github.com/ishan19r/apt-hunt/storage"
	"github.com/ishan19r/apt-hunt/utils"
)

// deadFetcher fails every fetch; good enough to exercise trigger plumbing.
type deadFetcher struct{}

func (deadFetcher) Fetch(context.Context, string, []string, time.Duration) (string, error) {
	return "", errors.New("offline")
}

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()

	store, err := storage.NewJSONStore(filepath.Join(t.TempDir(), "tracker.json"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	logger := utils.NewLogger()
	bus := events.NewBus(64)
	crawler := services.NewCrawler(deadFetcher{}, store, bus, logger, services.CrawlerOptions{
		FetchTimeout: time.Second,
	})

	srv := New(store, crawler, nil, services.NewRunner(), bus, logger,
		config.DefaultCriteria(), config.DefaultProfile(), config.DefaultBudget())
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestAddAndListApartments(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/apartments", map[string]interface{}{
		"address": "305 E 105th St #2B",
		"rent":    2650,
		"url":     "/rental/1",
		"no_fee":  true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add: status %d body %s", rec.Code, rec.Body)
	}

	var added models.ScoredListing
	if err := json.Unmarshal(rec.Body.Bytes(), &added); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if added.URL != "https://streeteasy.com/rental/1" {
		t.Errorf("canonical url: got %q", added.URL)
	}
	if !added.PassesBudgetRule {
		t.Error("2650 should pass the 40x rule")
	}
	if added.Score <= 0 {
		t.Errorf("score should be positive, got %d", added.Score)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/apartments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var listed []models.ScoredListing
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("listed: got %d, want 1", len(listed))
	}
}

func TestAddApartmentRequiresURL(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/apartments", map[string]interface{}{
		"address": "No identity", "rent": 2600,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestToggleSelectAndDelete(t *testing.T) {
	srv, store := newTestServer(t)
	l, _ := store.Append(models.Listing{URL: "https://streeteasy.com/rental/1", Rent: 2600})

	rec := doRequest(t, srv, http.MethodPost, "/api/apartments/1/select", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status %d", rec.Code)
	}
	var toggled models.ScoredListing
	json.Unmarshal(rec.Body.Bytes(), &toggled)
	if !toggled.Selected {
		t.Error("toggle should select")
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/apartments/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if _, err := store.Get(l.ID); err != storage.ErrNotFound {
		t.Error("listing should be gone")
	}
}

func TestToggleSelectMissingID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/apartments/42/select", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestInquiryPreview(t *testing.T) {
	srv, store := newTestServer(t)
	store.Append(models.Listing{URL: "https://streeteasy.com/rental/1", Address: "305 E 105th St", BrokerName: "John"})

	rec := doRequest(t, srv, http.MethodGet, "/api/inquiry/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: status %d", rec.Code)
	}
	var out struct {
		Message string `json:"message"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Message == "" {
		t.Fatal("message should not be empty")
	}
	if !bytes.Contains([]byte(out.Message), []byte("305 E 105th St")) {
		t.Error("message should mention the address")
	}
}

func TestSchedulePreview(t *testing.T) {
	srv, store := newTestServer(t)
	store.Append(models.Listing{URL: "https://streeteasy.com/rental/1", Address: "305 E 105th St", BrokerName: "John"})

	rec := doRequest(t, srv, http.MethodGet, "/api/inquiry/1/schedule?method=facetime", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule: status %d", rec.Code)
	}
	var out struct {
		Message string `json:"message"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if !bytes.Contains([]byte(out.Message), []byte("FaceTime")) {
		t.Errorf("facetime variant expected, got %q", out.Message)
	}
	if !bytes.Contains([]byte(out.Message), []byte("Hi John,")) {
		t.Errorf("greeting should name the broker, got %q", out.Message)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/inquiry/1/schedule", nil)
	json.Unmarshal(rec.Body.Bytes(), &out)
	if bytes.Contains([]byte(out.Message), []byte("FaceTime")) {
		t.Errorf("default should be the in-person variant, got %q", out.Message)
	}
}

func TestNegotiationPreview(t *testing.T) {
	srv, store := newTestServer(t)
	store.Append(models.Listing{URL: "https://streeteasy.com/rental/1", Address: "305 E 105th St", Rent: 2700})

	// No target: default to $100 under asking.
	rec := doRequest(t, srv, http.MethodGet, "/api/inquiry/1/negotiate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("negotiate: status %d", rec.Code)
	}
	var out struct {
		Message string `json:"message"`
		Target  int    `json:"target"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Target != 2600 {
		t.Errorf("default target: got %d, want 2600", out.Target)
	}
	if !bytes.Contains([]byte(out.Message), []byte("$2,600")) {
		t.Errorf("message should quote the target rent, got %q", out.Message)
	}
	// No broker on record falls back to a generic greeting.
	if !bytes.Contains([]byte(out.Message), []byte("Hi there,")) {
		t.Errorf("greeting fallback expected, got %q", out.Message)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/inquiry/1/negotiate?target=2500", nil)
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Target != 2500 {
		t.Errorf("explicit target: got %d, want 2500", out.Target)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/inquiry/1/negotiate?target=-5", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative target: got %d, want 400", rec.Code)
	}
}

func TestCriteriaUpdateBuildsNewSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)

	before := srv.snapshot()
	rec := doRequest(t, srv, http.MethodPut, "/api/criteria", map[string]interface{}{
		"min_rent": 2500,
		"max_rent": 3000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d", rec.Code)
	}

	after := srv.snapshot()
	if after.MinRent != 2500 || after.MaxRent != 3000 {
		t.Errorf("updated criteria: %+v", after)
	}
	// Untouched fields carry over from the previous snapshot.
	if after.Income != before.Income {
		t.Errorf("income should persist: got %d, want %d", after.Income, before.Income)
	}
}

func TestScrapeRejectedWhileBusy(t *testing.T) {
	srv, _ := newTestServer(t)

	srv.runner.TryAcquire(services.PipelineCrawl)
	defer srv.runner.Release(services.PipelineCrawl)

	rec := doRequest(t, srv, http.MethodPost, "/api/scrape", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}
}

func TestInquiriesRejectedWhileBusy(t *testing.T) {
	srv, _ := newTestServer(t)

	srv.runner.TryAcquire(services.PipelineInquiry)
	defer srv.runner.Release(services.PipelineInquiry)

	rec := doRequest(t, srv, http.MethodPost, "/api/inquiries", map[string]interface{}{
		"apartment_ids": []int{1},
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}
}
