// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

// Package session bridges a changing item pool and an evolving profile
// into a continuously consumable, paginated, explainable feed.
//
// A Session buffers high-frequency engagement observations in a
// concurrent queue and folds them into the profile in periodic batches,
// decoupling UI event rate from profile-update cost. The flush timer is
// driven by the Manager, which runs as a supervised service; tearing the
// manager down flushes every session a final time.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arclight-social/feedcore/internal/feed"
	"github.com/arclight-social/feedcore/internal/feed/profile"
	"github.com/arclight-social/feedcore/internal/metrics"
)

// MinViewDuration is the meaningful-engagement floor: shorter glances are
// discarded, not queued.
const MinViewDuration = 500 * time.Millisecond

// DefaultPageSize is the page length when none is configured.
const DefaultPageSize = 20

// Page is one paginated slice of the ranked feed.
type Page struct {
	// Items is the slice of ranked items for this page.
	Items []feed.ScoredItem `json:"items"`

	// Offset is the index of the first item within the full ordering.
	Offset int `json:"offset"`

	// Total is the length of the full cached ordering.
	Total int `json:"total"`

	// HasMore reports whether further pages remain.
	HasMore bool `json:"has_more"`

	// Variant is the weight variant the ordering was ranked with.
	Variant string `json:"variant"`
}

// Session is the per-viewer feed session. Safe for concurrent use: the
// cached ordering and page cursor are guarded together so pagination
// always reads a consistent pair, and the engagement queue supports
// concurrent append with atomic drain.
type Session struct {
	userID string
	ranker *feed.Ranker
	store  *profile.BreakerStore
	logger zerolog.Logger

	pageSize int

	// mu guards the cached ordering, cursor, item index and snapshots.
	mu        sync.Mutex
	ordering  []feed.ScoredItem
	cursor    int
	variant   string
	items     map[string]feed.Item
	snapshots map[string]feed.EngagementSnapshot

	// queueMu guards the pending engagement events.
	queueMu sync.Mutex
	queue   []feed.EngagementEvent

	// viewMu guards in-flight view timers keyed by item ID.
	viewMu     sync.Mutex
	viewStarts map[string]time.Time

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a session for one viewer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(userID string, ranker *feed.Ranker, store *profile.BreakerStore, pageSize int, logger zerolog.Logger) *Session {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Session{
		userID:     userID,
		ranker:     ranker,
		store:      store,
		logger:     logger.With().Str("component", "session").Str("user_id", userID).Logger(),
		pageSize:   pageSize,
		items:      make(map[string]feed.Item),
		snapshots:  make(map[string]feed.EngagementSnapshot),
		viewStarts: make(map[string]time.Time),
		now:        time.Now,
	}
}

// UserID returns the viewer this session belongs to.
func (s *Session) UserID() string {
	return s.userID
}

// Rank re-ranks the item pool against the viewer's current profile,
// replaces the cached ordering and atomically resets pagination to the
// first page.
//
// An empty variant uses the profile's assigned variant.
func (s *Session) Rank(ctx context.Context, pool []feed.Item, variant string) Page {
	p := s.store.GetOrDefault(ctx, s.userID)
	if variant == "" {
		variant = p.Variant
	}

	s.mu.Lock()
	snapshots := make(map[string]feed.EngagementSnapshot, len(s.snapshots))
	for id, snap := range s.snapshots {
		snapshots[id] = snap
	}
	s.mu.Unlock()

	start := s.now()
	ranked := s.ranker.Rank(ctx, pool, p, feed.RankOptions{
		Variant:   variant,
		Snapshots: snapshots,
	})
	if len(ranked) > 0 {
		variant = ranked[0].Variant
	}
	metrics.RecordRank(variant, len(ranked), s.now().Sub(start))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ordering = ranked
	s.variant = variant
	s.items = make(map[string]feed.Item, len(pool))
	for i := range pool {
		s.items[pool[i].ID] = pool[i]
	}

	s.cursor = s.pageSize
	if s.cursor > len(ranked) {
		s.cursor = len(ranked)
	}

	return s.pageLocked(0, s.cursor)
}

// LoadMore advances the page cursor and returns the next page-sized
// slice of the cached ordering. A no-op returning an empty page when no
// further pages remain.
func (s *Session) LoadMore() Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.ordering) {
		return Page{Offset: s.cursor, Total: len(s.ordering), Variant: s.variant}
	}

	start := s.cursor
	end := start + s.pageSize
	if end > len(s.ordering) {
		end = len(s.ordering)
	}
	s.cursor = end

	return s.pageLocked(start, end)
}

// pageLocked builds a Page from the cached ordering. Caller holds mu.
func (s *Session) pageLocked(start, end int) Page {
	items := make([]feed.ScoredItem, end-start)
	copy(items, s.ordering[start:end])

	return Page{
		Items:   items,
		Offset:  start,
		Total:   len(s.ordering),
		HasMore: end < len(s.ordering),
		Variant: s.variant,
	}
}

// TrackViewStart records that an item became visible.
func (s *Session) TrackViewStart(itemID string) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.viewStarts[itemID] = s.now()
}

// TrackViewEnd computes the elapsed view duration and, if it exceeds the
// meaningful-engagement floor, enqueues a view event. Shorter glances are
// discarded. Unmatched ends are ignored.
func (s *Session) TrackViewEnd(itemID string) {
	s.viewMu.Lock()
	start, ok := s.viewStarts[itemID]
	delete(s.viewStarts, itemID)
	s.viewMu.Unlock()

	if !ok {
		return
	}

	elapsed := s.now().Sub(start)
	if elapsed < MinViewDuration {
		return
	}

	s.enqueue(feed.EngagementEvent{
		UserID:   s.userID,
		ItemID:   itemID,
		Type:     feed.EngagementView,
		Duration: elapsed,
	})
}

// TrackEngagement enqueues a non-view engagement event immediately and
// refreshes the historical-snapshot entry for the item so future
// viral-growth comparisons have a baseline.
func (s *Session) TrackEngagement(itemID string, engagementType feed.EngagementType) {
	s.enqueue(feed.EngagementEvent{
		UserID: s.userID,
		ItemID: itemID,
		Type:   engagementType,
	})
}

// MarkNotInterested enqueues a strong negative event and immediately
// removes the item from the cached ordering, optimistically ahead of the
// next full re-rank so it cannot resurface via LoadMore.
func (s *Session) MarkNotInterested(itemID string) {
	s.enqueue(feed.EngagementEvent{
		UserID: s.userID,
		ItemID: itemID,
		Type:   feed.EngagementNotInterested,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.ordering {
		if s.ordering[i].Item.ID != itemID {
			continue
		}
		s.ordering = append(s.ordering[:i], s.ordering[i+1:]...)
		if i < s.cursor {
			s.cursor--
		}
		break
	}
}

// Enqueue adds an externally observed engagement event to the pending
// queue. Used by the ingest pipeline; events from unrelated users are
// rejected.
func (s *Session) Enqueue(event feed.EngagementEvent) error {
	if event.UserID != "" && event.UserID != s.userID {
		return fmt.Errorf("event user %q does not match session user %q", event.UserID, s.userID)
	}
	event.UserID = s.userID
	s.enqueue(event)
	return nil
}

// enqueue appends an event, filling in timestamp and item context the
// profile update path needs.
func (s *Session) enqueue(event feed.EngagementEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	s.mu.Lock()
	if item, ok := s.items[event.ItemID]; ok {
		if event.AuthorID == "" {
			event.AuthorID = item.AuthorID
		}
		if event.Tags == nil {
			event.Tags = item.Tags
		}

		// Positive non-view engagement refreshes the viral baseline.
		switch event.Type {
		case feed.EngagementLike, feed.EngagementComment, feed.EngagementShare, feed.EngagementSave:
			s.snapshots[event.ItemID] = feed.EngagementSnapshot{
				EngagementCount: item.Engagement.Total(),
				ObservedAt:      s.now(),
			}
		}
	}
	s.mu.Unlock()

	s.queueMu.Lock()
	s.queue = append(s.queue, event)
	s.queueMu.Unlock()
}

// Pending returns the number of queued engagement events.
func (s *Session) Pending() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.queue)
}

// Flush drains the queued engagement events atomically and folds them
// into the profile one at a time in arrival order, then persists the
// result. Returns the number of events applied.
func (s *Session) Flush(ctx context.Context) (int, error) {
	s.queueMu.Lock()
	batch := s.queue
	s.queue = nil
	s.queueMu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}

	p := s.store.GetOrDefault(ctx, s.userID)
	for _, event := range batch {
		p = profile.ApplyEngagement(p, event)
	}

	if err := s.store.Put(ctx, p); err != nil {
		// Requeue at the front so arrival order survives a retry.
		s.queueMu.Lock()
		s.queue = append(batch, s.queue...)
		s.queueMu.Unlock()
		return 0, fmt.Errorf("persist profile: %w", err)
	}

	s.logger.Debug().Int("events", len(batch)).Msg("flushed engagement batch")
	return len(batch), nil
}
