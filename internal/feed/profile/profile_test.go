// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package profile

import (
	"fmt"
	"testing"
	"time"

	"github.com/arclight-social/feedcore/internal/feed"
)

func TestNewDefault(t *testing.T) {
	variants := feed.NewVariantSet(feed.DefaultWeights(), nil)
	p := NewDefault("user-1", variants)

	if p.UserID != "user-1" {
		t.Errorf("UserID = %q", p.UserID)
	}
	if len(p.AuthorAffinities) != 0 {
		t.Errorf("fresh profile has %d author affinities, want 0", len(p.AuthorAffinities))
	}
	if p.AuthorAffinities == nil {
		t.Error("affinity map is nil; a default profile is past cold start")
	}
	for _, topic := range []string{"music", "sports", "technology", "art", "food", "travel"} {
		if p.TopicInterests[topic] != 50 {
			t.Errorf("seed interest %q = %v, want 50", topic, p.TopicInterests[topic])
		}
	}
	if p.Variant != variants.Assign("user-1") {
		t.Errorf("Variant = %q, want deterministic assignment", p.Variant)
	}

	t.Run("nil variant set assigns control", func(t *testing.T) {
		p := NewDefault("user-1", nil)
		if p.Variant != feed.ControlVariant {
			t.Errorf("Variant = %q, want control", p.Variant)
		}
	})
}

func TestApplyEngagementAuthorDeltas(t *testing.T) {
	tests := []struct {
		name  string
		event feed.EngagementEvent
		want  float64
	}{
		{"short view", feed.EngagementEvent{Type: feed.EngagementView, Duration: time.Second}, 1},
		{"long view", feed.EngagementEvent{Type: feed.EngagementView, Duration: 5 * time.Second}, 2},
		{"like", feed.EngagementEvent{Type: feed.EngagementLike}, 5},
		{"comment", feed.EngagementEvent{Type: feed.EngagementComment}, 10},
		{"share", feed.EngagementEvent{Type: feed.EngagementShare}, 15},
		{"save", feed.EngagementEvent{Type: feed.EngagementSave}, 12},
		{"not interested", feed.EngagementEvent{Type: feed.EngagementNotInterested}, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDefault("u1", nil)

			event := tt.event
			event.UserID = "u1"
			event.ItemID = "item-1"
			event.AuthorID = "author-1"

			next := ApplyEngagement(p, event)
			if got := next.AuthorAffinities["author-1"]; got != tt.want {
				t.Errorf("affinity after %s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestApplyEngagementTopicDeltas(t *testing.T) {
	tests := []struct {
		name  string
		event feed.EngagementEvent
		want  float64
	}{
		{"short view", feed.EngagementEvent{Type: feed.EngagementView, Duration: time.Second}, 50.5},
		{"long view", feed.EngagementEvent{Type: feed.EngagementView, Duration: 5 * time.Second}, 51},
		{"like", feed.EngagementEvent{Type: feed.EngagementLike}, 53},
		{"comment", feed.EngagementEvent{Type: feed.EngagementComment}, 55},
		{"share", feed.EngagementEvent{Type: feed.EngagementShare}, 58},
		{"save", feed.EngagementEvent{Type: feed.EngagementSave}, 56},
		{"not interested", feed.EngagementEvent{Type: feed.EngagementNotInterested}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDefault("u1", nil)

			event := tt.event
			event.UserID = "u1"
			event.ItemID = "item-1"
			event.Tags = []string{"music"}

			next := ApplyEngagement(p, event)
			if got := next.TopicInterests["music"]; got != tt.want {
				t.Errorf("interest after %s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestApplyEngagementAdditiveNotIdempotent(t *testing.T) {
	p := NewDefault("u1", nil)
	like := feed.EngagementEvent{
		UserID:   "u1",
		ItemID:   "item-1",
		Type:     feed.EngagementLike,
		AuthorID: "author-1",
	}

	once := ApplyEngagement(p, like)
	twice := ApplyEngagement(once, like)

	if got := twice.AuthorAffinities["author-1"]; got != 10 {
		t.Errorf("affinity after two likes = %v, want 10 (additive, not idempotent)", got)
	}
}

func TestApplyEngagementTopicCap(t *testing.T) {
	p := NewDefault("u1", nil)
	p.TopicInterests["music"] = 97

	share := feed.EngagementEvent{
		UserID: "u1",
		ItemID: "item-1",
		Type:   feed.EngagementShare,
		Tags:   []string{"music"},
	}

	next := ApplyEngagement(p, share)
	if got := next.TopicInterests["music"]; got != 100 {
		t.Errorf("interest = %v, want cap at 100", got)
	}
}

func TestApplyEngagementNoAffinityFloor(t *testing.T) {
	p := NewDefault("u1", nil)

	next := p
	for i := 0; i < 3; i++ {
		next = ApplyEngagement(next, feed.EngagementEvent{
			UserID:   "u1",
			ItemID:   fmt.Sprintf("item-%d", i),
			Type:     feed.EngagementNotInterested,
			AuthorID: "author-1",
		})
	}

	if got := next.AuthorAffinities["author-1"]; got != -60 {
		t.Errorf("affinity = %v, want -60 (no floor on the way down)", got)
	}
}

func TestApplyEngagementHistoryCap(t *testing.T) {
	p := NewDefault("u1", nil)

	next := p
	for i := 0; i < MaxHistoryEntries+20; i++ {
		next = ApplyEngagement(next, feed.EngagementEvent{
			UserID:    "u1",
			ItemID:    fmt.Sprintf("item-%d", i),
			Type:      feed.EngagementLike,
			Timestamp: time.Now(),
		})
	}

	if len(next.EngagementHistory) != MaxHistoryEntries {
		t.Fatalf("history length = %d, want %d", len(next.EngagementHistory), MaxHistoryEntries)
	}

	// Oldest entries are evicted first.
	first := next.EngagementHistory[0].ItemID
	last := next.EngagementHistory[len(next.EngagementHistory)-1].ItemID
	if first != "item-20" {
		t.Errorf("oldest kept entry = %q, want item-20", first)
	}
	if last != fmt.Sprintf("item-%d", MaxHistoryEntries+19) {
		t.Errorf("newest entry = %q", last)
	}
}

func TestApplyEngagementImmutable(t *testing.T) {
	p := NewDefault("u1", nil)
	p.AuthorAffinities["author-1"] = 10
	historyLen := len(p.EngagementHistory)

	_ = ApplyEngagement(p, feed.EngagementEvent{
		UserID:   "u1",
		ItemID:   "item-1",
		Type:     feed.EngagementLike,
		AuthorID: "author-1",
		Tags:     []string{"music"},
	})

	if p.AuthorAffinities["author-1"] != 10 {
		t.Error("original affinity map mutated")
	}
	if p.TopicInterests["music"] != 50 {
		t.Error("original interest map mutated")
	}
	if len(p.EngagementHistory) != historyLen {
		t.Error("original history mutated")
	}
}
