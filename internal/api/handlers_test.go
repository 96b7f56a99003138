// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/arclight-social/feedcore/internal/content"
	"github.com/arclight-social/feedcore/internal/feed"
	"github.com/arclight-social/feedcore/internal/feed/profile"
	"github.com/arclight-social/feedcore/internal/feed/session"
	"github.com/arclight-social/feedcore/internal/ingest"
)

type testStack struct {
	router   http.Handler
	sessions *session.Manager
	source   *content.MemorySource
}

func newTestStack(t *testing.T, cfg RouterConfig) *testStack {
	t.Helper()

	ranker, err := feed.NewRanker(nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRanker: %v", err)
	}

	variants := feed.NewVariantSet(feed.DefaultWeights(), nil)
	store := profile.NewBreakerStore(profile.NewMemoryStore(), variants, profile.DefaultBreakerConfig(), zerolog.Nop())
	sessions := session.NewManager(ranker, store, 10, time.Hour, zerolog.Nop())

	bus, err := ingest.NewBus(ingest.DefaultBusConfig(), sessions, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	source := content.NewMemorySource()
	now := time.Now()
	source.Upsert(
		feed.Item{ID: "item-1", AuthorID: "author-1", CreatedAt: now, Tags: []string{"music"}},
		feed.Item{ID: "item-2", AuthorID: "author-2", CreatedAt: now.Add(-time.Hour), Tags: []string{"food"}},
		feed.Item{ID: "item-3", AuthorID: "author-3", CreatedAt: now.Add(-2*time.Hour), Tags: []string{"travel"}},
	)

	handler := NewHandler(sessions, store, source, bus)
	items := NewItemsHandler(source)

	return &testStack{
		router:   NewRouter(cfg, handler, items),
		sessions: sessions,
		source:   source,
	}
}

func doRequest(t *testing.T, router http.Handler, method, path string, body []byte) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response envelope: %v (body: %s)", err, rec.Body.String())
	}
	return rec, resp
}

func TestGetFeed(t *testing.T) {
	stack := newTestStack(t, RouterConfig{})

	rec, resp := doRequest(t, stack.router, http.MethodGet, "/api/v1/feed/u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !resp.Success {
		t.Fatalf("success = false: %+v", resp.Error)
	}
	if resp.Meta == nil || resp.Meta.RequestID == "" {
		t.Error("response meta missing a request ID")
	}

	var page session.Page
	raw, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 3 {
		t.Errorf("page = total %d, %d items, want 3", page.Total, len(page.Items))
	}
	if page.Variant == "" {
		t.Error("page has no variant")
	}
	for _, it := range page.Items {
		if len(it.Reasons) == 0 {
			t.Errorf("item %s has no explanation", it.Item.ID)
		}
	}
}

func TestLoadMore(t *testing.T) {
	stack := newTestStack(t, RouterConfig{})

	// Rank first, then page past the end of the 3-item pool.
	doRequest(t, stack.router, http.MethodGet, "/api/v1/feed/u1", nil)
	rec, resp := doRequest(t, stack.router, http.MethodPost, "/api/v1/feed/u1/more", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, success = %v", rec.Code, resp.Success)
	}

	var page session.Page
	raw, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("exhausted page = %+v", page)
	}
}

func TestPostEngagement(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
		wantValue  bool
	}{
		{
			"like is recorded",
			`{"item_id":"item-1","type":"like"}`,
			http.StatusAccepted, "recorded", true,
		},
		{
			"long view is recorded",
			`{"item_id":"item-1","type":"view","duration_ms":4000}`,
			http.StatusAccepted, "recorded", true,
		},
		{
			"short glance is discarded",
			`{"item_id":"item-1","type":"view","duration_ms":200}`,
			http.StatusAccepted, "recorded", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := newTestStack(t, RouterConfig{})

			rec, resp := doRequest(t, stack.router, http.MethodPost, "/api/v1/feed/u1/engagement", []byte(tt.body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			data, ok := resp.Data.(map[string]interface{})
			if !ok {
				t.Fatalf("data = %T", resp.Data)
			}
			if got := data[tt.wantField]; got != tt.wantValue {
				t.Errorf("%s = %v, want %v", tt.wantField, got, tt.wantValue)
			}
		})
	}

	t.Run("rejects bad input", func(t *testing.T) {
		stack := newTestStack(t, RouterConfig{})

		bad := []string{
			`not json`,
			`{"type":"like"}`,
			`{"item_id":"item-1","type":"teleport"}`,
		}
		for _, body := range bad {
			rec, resp := doRequest(t, stack.router, http.MethodPost, "/api/v1/feed/u1/engagement", []byte(body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %q: status = %d, want 400", body, rec.Code)
			}
			if resp.Error == nil || resp.Error.Code != ErrCodeBadRequest {
				t.Errorf("body %q: error = %+v", body, resp.Error)
			}
		}
	})
}

func TestNotInterested(t *testing.T) {
	stack := newTestStack(t, RouterConfig{})

	doRequest(t, stack.router, http.MethodGet, "/api/v1/feed/u1", nil)
	rec, resp := doRequest(t, stack.router, http.MethodPost, "/api/v1/feed/u1/not-interested/item-2", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d", rec.Code)
	}

	// The negative signal is queued on the session for the next flush.
	if got := stack.sessions.Get("u1").Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}
}

func TestProfileEndpoints(t *testing.T) {
	stack := newTestStack(t, RouterConfig{})

	rec, resp := doRequest(t, stack.router, http.MethodGet, "/api/v1/profile/u1", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("GET profile status = %d", rec.Code)
	}

	var p feed.UserProfile
	raw, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if p.UserID != "u1" || p.Variant == "" {
		t.Errorf("profile = %+v", p)
	}

	rec, resp = doRequest(t, stack.router, http.MethodDelete, "/api/v1/profile/u1", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Errorf("DELETE profile status = %d", rec.Code)
	}
}

func TestItemsEndpoints(t *testing.T) {
	stack := newTestStack(t, RouterConfig{})

	body := `[
		{"id":"new-1","author_id":"author-9","tags":["music","live"]},
		{"id":"","author_id":"ignored"},
		{"id":"new-2","author_id":"author-9"}
	]`
	rec, resp := doRequest(t, stack.router, http.MethodPost, "/api/v1/items", []byte(body))
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("upsert status = %d, body = %s", rec.Code, rec.Body.String())
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T", resp.Data)
	}
	if got := data["accepted"]; got != float64(2) {
		t.Errorf("accepted = %v, want 2 (empty ID skipped)", got)
	}

	rec, _ = doRequest(t, stack.router, http.MethodGet, "/api/v1/items/tags", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("tags status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "live") {
		t.Errorf("tags response missing new tag: %s", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	stack := newTestStack(t, RouterConfig{})

	rec, resp := doRequest(t, stack.router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d", rec.Code)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T", resp.Data)
	}
	if data["status"] != "ok" {
		t.Errorf("status = %v", data["status"])
	}
	if data["profile_store"] != "closed" {
		t.Errorf("profile_store = %v, want closed breaker", data["profile_store"])
	}
}

func TestRequestIDPropagation(t *testing.T) {
	stack := newTestStack(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "trace-me-123")
	rec := httptest.NewRecorder()
	stack.router.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Meta == nil || resp.Meta.RequestID != "trace-me-123" {
		t.Errorf("request ID not propagated: %+v", resp.Meta)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "trace-me-123" {
		t.Errorf("response header X-Request-ID = %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	stack := newTestStack(t, RouterConfig{RateLimitPerSecond: 1, RateLimitBurst: 1})

	rec, _ := doRequest(t, stack.router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	stack.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After")
	}
}
