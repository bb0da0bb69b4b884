package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/llm"
	"github.com/quillback/logbook/internal/observe"
	"github.com/quillback/logbook/internal/refine"
	"github.com/quillback/logbook/internal/store"
)

const weekText = `MONDAY
Fixed hydraulic pump leak on unit 4
TUESDAY
Replaced the intake bearings and flushed the coolant loop`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewStore(store.StoreConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := NewServer(Config{Store: st, Logger: quietLogger()})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, st
}

func postAnnotation(t *testing.T, url, text string) extractResponse {
	t.Helper()
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Fatalf("expected ok, got %q", body)
	}
}

func TestExtractEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/extractions?source=week12.png", "application/json",
		strings.NewReader(`{"text": "MONDAY\nFixed hydraulic pump leak on unit 4"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		t.Fatalf("expected 201 for a new extraction, got %d", resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !out.Success {
		t.Error("expected success")
	}
	if out.ID == 0 {
		t.Error("expected a persisted id")
	}
	if out.Duplicate {
		t.Error("first extraction should not be a duplicate")
	}
	if got := out.Activities[extract.Monday]; !strings.Contains(got, "hydraulic pump") {
		t.Errorf("monday activity missing, got %q", got)
	}
}

func TestExtractEndpoint_Duplicate(t *testing.T) {
	ts, _ := newTestServer(t)

	first := postAnnotation(t, ts.URL+"/v1/extractions", weekText)
	second := postAnnotation(t, ts.URL+"/v1/extractions", weekText)

	if !second.Duplicate {
		t.Error("identical payload should be reported as duplicate")
	}
	if second.ID != first.ID {
		t.Errorf("duplicate should return existing id %d, got %d", first.ID, second.ID)
	}
}

func TestExtractEndpoint_BadBody(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/extractions", "application/json",
		strings.NewReader(`{"text": `))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out["error"] == "" {
		t.Error("expected an error message")
	}
}

// fakeRefineProvider returns a fixed repaired-activities payload.
type fakeRefineProvider struct{}

func (f *fakeRefineProvider) Complete(ctx context.Context, prompt string, opts llm.CompletionOpts) (string, error) {
	return `{"monday": "Fixed hydraulic pump leak on unit 4 (repaired)"}`, nil
}

func (f *fakeRefineProvider) Name() string { return "fake" }

func TestExtractEndpoint_Refine(t *testing.T) {
	st, err := store.NewStore(store.StoreConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	srv := NewServer(Config{
		Store:   st,
		Refiner: refine.NewRefiner(&fakeRefineProvider{}),
		Logger:  quietLogger(),
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	out := postAnnotation(t, ts.URL+"/v1/extractions?refine=true", weekText)
	if !strings.Contains(out.Activities[extract.Monday], "(repaired)") {
		t.Errorf("refinement not applied, got %q", out.Activities[extract.Monday])
	}

	// Without refine=true the raw extraction comes back.
	plain := postAnnotation(t, ts.URL+"/v1/extractions", weekText+"\nextra")
	if strings.Contains(plain.Activities[extract.Monday], "(repaired)") {
		t.Error("refinement should be opt-in")
	}

	// The flag may also ride inside the annotation body.
	body, err := json.Marshal(map[string]any{"text": weekText, "refine": true})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+"/v1/extractions", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var flagged extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&flagged); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !strings.Contains(flagged.Activities[extract.Monday], "(repaired)") {
		t.Errorf("body refine flag ignored, got %q", flagged.Activities[extract.Monday])
	}
}

func TestGetExtraction(t *testing.T) {
	ts, _ := newTestServer(t)
	saved := postAnnotation(t, ts.URL+"/v1/extractions", weekText)

	resp, err := http.Get(ts.URL + "/v1/extractions/" + strconv.FormatInt(saved.ID, 10))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got store.Extraction
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.ID != saved.ID {
		t.Errorf("expected id %d, got %d", saved.ID, got.ID)
	}
	if len(got.Activities) != 2 {
		t.Errorf("expected 2 activities, got %d", len(got.Activities))
	}
}

func TestGetExtraction_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/extractions/9999")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 for unknown id, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/v1/extractions/abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400 for non-numeric id, got %d", resp.StatusCode)
	}
}

func TestListExtractions(t *testing.T) {
	ts, _ := newTestServer(t)
	postAnnotation(t, ts.URL+"/v1/extractions", weekText)
	postAnnotation(t, ts.URL+"/v1/extractions", weekText+"\nWEDNESDAY\nInspected the conveyor belt rollers")

	resp, err := http.Get(ts.URL + "/v1/extractions?limit=1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Extractions []*store.Extraction `json:"extractions"`
		Count       int                 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out.Count != 1 || len(out.Extractions) != 1 {
		t.Fatalf("expected 1 extraction, got count=%d len=%d", out.Count, len(out.Extractions))
	}
}

func TestDeleteExtraction(t *testing.T) {
	ts, _ := newTestServer(t)
	saved := postAnnotation(t, ts.URL+"/v1/extractions", weekText)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/extractions/"+strconv.FormatInt(saved.ID, 10), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// Second delete finds nothing.
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	postAnnotation(t, ts.URL+"/v1/extractions", weekText)

	resp, err := http.Get(ts.URL + "/v1/search?q=hydraulic")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Query string             `json:"query"`
		Hits  []*store.SearchHit `json:"hits"`
		Count int                `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("expected 1 hit, got %d", out.Count)
	}
	if out.Hits[0].Day != "monday" {
		t.Errorf("expected monday hit, got %s", out.Hits[0].Day)
	}
}

func TestSearchEndpoint_MissingQuery(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/search")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400 for missing q, got %d", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	postAnnotation(t, ts.URL+"/v1/extractions", weekText)

	resp, err := http.Get(ts.URL + "/v1/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var stats observe.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if stats.TotalExtractions != 1 {
		t.Errorf("expected 1 extraction in stats, got %d", stats.TotalExtractions)
	}
	if stats.TotalActivities != 2 {
		t.Errorf("expected 2 activities in stats, got %d", stats.TotalActivities)
	}
}

func TestStorelessServer(t *testing.T) {
	srv := NewServer(Config{Logger: quietLogger()})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	// Extraction still works, nothing persists.
	out := postAnnotation(t, ts.URL+"/v1/extractions", weekText)
	if !out.Success {
		t.Error("expected extraction to succeed without a store")
	}
	if out.ID != 0 {
		t.Errorf("storeless extraction should have no id, got %d", out.ID)
	}

	// History endpoints refuse.
	resp, err := http.Get(ts.URL + "/v1/extractions")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503 without store, got %d", resp.StatusCode)
	}
}
