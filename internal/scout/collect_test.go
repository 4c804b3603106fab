package scout

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/vtmatome/scout/internal/scout/store"
)

// Fake Data API: one search hit (UC123) plus channel details that pass
// the heuristic filter.
func fakeYouTube(t *testing.T, searchCalls *int) *httptest.Server {
	t.Helper()
	created := time.Now().UTC().AddDate(0, 0, -10).Format(time.RFC3339)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			*searchCalls++
			w.Write([]byte(`{"items":[{"snippet":{"channelId":"UC123","title":"ねこみや らて【新人VTuber】","description":"初配信！","publishedAt":"` + created + `","thumbnails":{"medium":{"url":"https://example.com/t.jpg"}}}}]}`))
		case "/channels":
			w.Write([]byte(`{"items":[{"id":"UC123","snippet":{"title":"ねこみや らて","description":"新人VTuberのらてです","publishedAt":"` + created + `","thumbnails":{"medium":{"url":"https://example.com/t.jpg"}}},"statistics":{"subscriberCount":"50","hiddenSubscriberCount":false,"videoCount":"5","viewCount":"400"}}]}`))
		case "/videos":
			w.Write([]byte(`{"items":[]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func collectTestConfig(srv *httptest.Server) {
	Init(Config{
		SearchQueries: []string{"VTuberデビュー"},
		Filter: FilterConfig{
			MaxSubscribers:    1000,
			MaxChannelAgeDays: 90,
			MinVideos:         3,
			VTuberKeywords:    DefaultVTuberKeywords,
		},
		MaxSearchResult: 10,
		HTTPClient:      srv.Client(),
		HTTPTimeout:     5 * time.Second,
	})
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "candidates.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestCollectDiscoversAndMerges(t *testing.T) {
	var searches int
	srv := fakeYouTube(t, &searches)
	defer srv.Close()
	collectTestConfig(srv)
	st := newTestStore(t)

	client := &Client{
		apiKey: "k", baseURL: srv.URL, httpc: srv.Client(),
		budget: NewBudget(10000), limiter: rate.NewLimiter(rate.Inf, 1),
	}

	sum, err := Collect(t.Context(), client, st)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if sum.Discovered != 1 {
		t.Fatalf("discovered = %d, want 1", sum.Discovered)
	}
	if sum.QuotaSpent != CostSearch+CostChannelsList {
		t.Errorf("quota spent = %d, want %d", sum.QuotaSpent, CostSearch+CostChannelsList)
	}

	c, found, err := st.Get("UC123")
	if err != nil || !found {
		t.Fatalf("candidate missing after collect: found=%v err=%v", found, err)
	}
	if c.Status != store.StatusDiscovered {
		t.Errorf("status = %s, want discovered", c.Status)
	}
	if len(c.SourceQueries) != 1 || c.SourceQueries[0] != "VTuberデビュー" {
		t.Errorf("source queries = %v", c.SourceQueries)
	}

	// Second pass with identical data: unchanged, no duplicates.
	sum2, err := Collect(t.Context(), client, st)
	if err != nil {
		t.Fatalf("second Collect: %v", err)
	}
	if sum2.Discovered != 0 || sum2.Unchanged != 1 {
		t.Errorf("second pass: discovered=%d unchanged=%d, want 0/1", sum2.Discovered, sum2.Unchanged)
	}
}

func TestCollectStopsSearchesOnQuotaExhaustion(t *testing.T) {
	var searches int
	srv := fakeYouTube(t, &searches)
	defer srv.Close()
	collectTestConfig(srv)
	cfg.SearchQueries = []string{"a", "b", "c"}
	st := newTestStore(t)

	// Enough for exactly one search and nothing else.
	client := &Client{
		apiKey: "k", baseURL: srv.URL, httpc: srv.Client(),
		budget: NewBudget(CostSearch), limiter: rate.NewLimiter(rate.Inf, 1),
	}

	if _, err := Collect(t.Context(), client, st); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if searches != 1 {
		t.Errorf("issued %d searches, want 1 (stop after quota)", searches)
	}
	if client.Budget().Spent() > CostSearch {
		t.Errorf("overspent: %d units", client.Budget().Spent())
	}
}

// Full lifecycle: discovery → review → approval → export, with the
// text-generation collaborator unavailable (fallback blurb path).
func TestEndToEndApproval(t *testing.T) {
	var searches int
	srv := fakeYouTube(t, &searches)
	defer srv.Close()
	collectTestConfig(srv)
	st := newTestStore(t)

	client := &Client{
		apiKey: "k", baseURL: srv.URL, httpc: srv.Client(),
		budget: NewBudget(10000), limiter: rate.NewLimiter(rate.Inf, 1),
	}

	if _, err := Collect(t.Context(), client, st); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if err := st.PromoteToReview("UC123"); err != nil {
		t.Fatalf("PromoteToReview: %v", err)
	}

	c, _, _ := st.Get("UC123")
	meta := ChannelMetadata{ChannelID: c.ChannelID, Title: c.Title, Description: c.Description, SubscriberCount: c.SubscriberCount}
	blurb := GenerateBlurb(t.Context(), meta, nil)
	if err := st.Decide("UC123", store.OutcomeApprove, blurb, nil); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	path := filepath.Join(t.TempDir(), "approved.json")
	if err := st.ExportApproved(path); err != nil {
		t.Fatalf("ExportApproved: %v", err)
	}
	entries, err := store.LoadApproved(path)
	if err != nil {
		t.Fatalf("LoadApproved: %v", err)
	}
	entry, ok := entries["UC123"]
	if !ok {
		t.Fatal("UC123 missing from approved store")
	}
	if entry.Blurb == "" {
		t.Error("approved entry must carry a non-empty blurb even without an LLM")
	}
	if entry.ApprovedAt.IsZero() {
		t.Error("approved entry must carry approved_at")
	}
}
