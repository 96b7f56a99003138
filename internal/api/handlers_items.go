// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/arclight-social/feedcore/internal/content"
	"github.com/arclight-social/feedcore/internal/feed"
)

// ItemsHandler serves the content-pool admin endpoints. Only available
// when the content source is the built-in in-memory one; deployments
// backed by an external content service route item writes there instead.
type ItemsHandler struct {
	source *content.MemorySource
}

// NewItemsHandler creates the content admin handler.
func NewItemsHandler(source *content.MemorySource) *ItemsHandler {
	return &ItemsHandler{source: source}
}

// UpsertItems handles POST /api/v1/items.
// Body: a JSON array of items to insert or replace.
func (h *ItemsHandler) UpsertItems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var items []feed.Item
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body", err)
		return
	}

	accepted := 0
	for i := range items {
		if items[i].ID == "" {
			continue
		}
		h.source.Upsert(items[i])
		accepted++
	}

	respondJSON(w, r, http.StatusOK, map[string]int{
		"accepted": accepted,
		"total":    h.source.Len(),
	}, start)
}

// ListTags handles GET /api/v1/items/tags.
func (h *ItemsHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondJSON(w, r, http.StatusOK, h.source.Tags(), start)
}
