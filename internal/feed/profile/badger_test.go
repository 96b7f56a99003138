// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/arclight-social/feedcore/internal/feed"
)

func newBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewBadgerStore(db)
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newBadgerStore(t)

	p := NewDefault("u1", nil)
	p.AuthorAffinities["author-1"] = 33.5
	p.TopicInterests["music"] = 77
	p.EngagementHistory = []feed.HistoryEntry{{
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		ItemID:    "item-1",
		Type:      feed.EngagementLike,
	}}

	if err := s.Put(ctx, p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AuthorAffinities["author-1"] != 33.5 {
		t.Errorf("affinity = %v, want 33.5", got.AuthorAffinities["author-1"])
	}
	if got.TopicInterests["music"] != 77 {
		t.Errorf("interest = %v, want 77", got.TopicInterests["music"])
	}
	if len(got.EngagementHistory) != 1 || got.EngagementHistory[0].ItemID != "item-1" {
		t.Errorf("history = %+v", got.EngagementHistory)
	}
	if got.Variant != p.Variant {
		t.Errorf("variant = %q, want %q", got.Variant, p.Variant)
	}
}

func TestBadgerStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := newBadgerStore(t)

	if _, err := s.Get(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBadgerStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newBadgerStore(t)

	if err := s.Put(ctx, NewDefault("u1", nil)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	// Deleting a missing profile is not an error.
	if err := s.Delete(ctx, "u1"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}
