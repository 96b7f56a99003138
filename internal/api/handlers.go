// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/arclight-social/feedcore/internal/content"
	"github.com/arclight-social/feedcore/internal/feed"
	"github.com/arclight-social/feedcore/internal/feed/profile"
	"github.com/arclight-social/feedcore/internal/feed/session"
	"github.com/arclight-social/feedcore/internal/ingest"
)

// rankTimeout bounds a single ranking request.
const rankTimeout = 10 * time.Second

// Handler serves the feed endpoints.
type Handler struct {
	sessions *session.Manager
	store    *profile.BreakerStore
	source   content.Source
	bus      *ingest.Bus
}

// NewHandler creates the feed API handler.
func NewHandler(sessions *session.Manager, store *profile.BreakerStore, source content.Source, bus *ingest.Bus) *Handler {
	return &Handler{
		sessions: sessions,
		store:    store,
		source:   source,
		bus:      bus,
	}
}

// GetFeed handles GET /api/v1/feed/{userID}.
// Re-ranks the current pool for the viewer and returns the first page.
// Query: variant (optional weight variant override).
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "missing user ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), rankTimeout)
	defer cancel()

	pool, err := h.source.Pool(ctx, userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to load item pool", err)
		return
	}
	if pool == nil {
		pool = []feed.Item{}
	}

	page := h.sessions.Get(userID).Rank(ctx, pool, r.URL.Query().Get("variant"))
	respondJSON(w, r, http.StatusOK, page, start)
}

// LoadMore handles POST /api/v1/feed/{userID}/more.
// Advances pagination over the cached ordering.
func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	page := h.sessions.Get(userID).LoadMore()
	respondJSON(w, r, http.StatusOK, page, start)
}

// engagementRequest is the body for POST engagement.
type engagementRequest struct {
	ItemID     string `json:"item_id"`
	Type       string `json:"type"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// engagementTypes maps wire names to engagement types.
var engagementTypes = map[string]feed.EngagementType{
	"view":           feed.EngagementView,
	"like":           feed.EngagementLike,
	"comment":        feed.EngagementComment,
	"share":          feed.EngagementShare,
	"save":           feed.EngagementSave,
	"not_interested": feed.EngagementNotInterested,
}

// PostEngagement handles POST /api/v1/feed/{userID}/engagement.
// Publishes the event onto the ingest bus; short view glances below the
// meaningful-engagement floor are discarded here.
func (h *Handler) PostEngagement(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	var req engagementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body", err)
		return
	}
	if req.ItemID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "missing item_id", nil)
		return
	}

	engagementType, ok := engagementTypes[req.Type]
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "unknown engagement type", nil)
		return
	}

	duration := time.Duration(req.DurationMs) * time.Millisecond
	if engagementType == feed.EngagementView && duration < session.MinViewDuration {
		// Discarded, not queued.
		respondJSON(w, r, http.StatusAccepted, map[string]bool{"recorded": false}, start)
		return
	}

	err := h.bus.Publish("api", feed.EngagementEvent{
		UserID:   userID,
		ItemID:   req.ItemID,
		Type:     engagementType,
		Duration: duration,
	})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to record engagement", err)
		return
	}

	respondJSON(w, r, http.StatusAccepted, map[string]bool{"recorded": true}, start)
}

// NotInterested handles POST /api/v1/feed/{userID}/not-interested/{itemID}.
// Queues a strong negative signal and removes the item from the current
// ordering ahead of the next re-rank.
func (h *Handler) NotInterested(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "missing item ID", nil)
		return
	}

	h.sessions.Get(userID).MarkNotInterested(itemID)
	respondJSON(w, r, http.StatusOK, map[string]bool{"removed": true}, start)
}

// GetProfile handles GET /api/v1/profile/{userID}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	p := h.store.GetOrDefault(r.Context(), userID)
	respondJSON(w, r, http.StatusOK, p, start)
}

// ResetProfile handles DELETE /api/v1/profile/{userID}.
// The explicit reset is the only wholesale profile overwrite.
func (h *Handler) ResetProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	if err := h.store.Delete(r.Context(), userID); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to reset profile", err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]bool{"reset": true}, start)
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondJSON(w, r, http.StatusOK, map[string]string{
		"status":        "ok",
		"profile_store": h.store.State(),
	}, start)
}
