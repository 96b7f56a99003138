// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

// Package content defines the external content source contract and an
// in-memory implementation. The ranker only requires each item to carry
// an id, timestamp, author, tag set and engagement counters; missing
// fields degrade to the scorer's documented neutral defaults.
package content

import (
	"context"
	"sort"
	"sync"

	"github.com/arclight-social/feedcore/internal/feed"
)

// Source supplies the raw item pool for ranking passes.
type Source interface {
	// Pool returns the current candidate items for a viewer.
	Pool(ctx context.Context, userID string) ([]feed.Item, error)
}

// MemorySource is a concurrency-safe in-memory Source. Items are value
// snapshots; Upsert replaces the stored copy wholesale, matching the
// rule that engagement counters are external ground truth.
type MemorySource struct {
	mu    sync.RWMutex
	items map[string]feed.Item
	order []string
}

// NewMemorySource creates an empty in-memory content source.
func NewMemorySource() *MemorySource {
	return &MemorySource{items: make(map[string]feed.Item)}
}

// Upsert inserts or replaces items by ID.
func (s *MemorySource) Upsert(items ...feed.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if _, exists := s.items[item.ID]; !exists {
			s.order = append(s.order, item.ID)
		}
		s.items[item.ID] = item
	}
}

// Remove deletes items by ID.
func (s *MemorySource) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, exists := s.items[id]; !exists {
			continue
		}
		delete(s.items, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Pool returns all items in stable insertion order. The same pool is
// served to every viewer; personalization happens in the ranker.
func (s *MemorySource) Pool(_ context.Context, _ string) ([]feed.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool := make([]feed.Item, 0, len(s.items))
	for _, id := range s.order {
		pool = append(pool, s.items[id])
	}
	return pool, nil
}

// Len returns the number of stored items.
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Tags returns the distinct tags across the pool, sorted. Useful for
// seeding interest pickers in the presentation layer.
func (s *MemorySource) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, item := range s.items {
		for _, tag := range item.Tags {
			seen[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
