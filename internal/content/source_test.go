// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package content

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/arclight-social/feedcore/internal/feed"
)

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySource()
	now := time.Now()

	s.Upsert(
		feed.Item{ID: "a", AuthorID: "au1", CreatedAt: now, Tags: []string{"music"}},
		feed.Item{ID: "b", AuthorID: "au2", CreatedAt: now, Tags: []string{"food", "travel"}},
		feed.Item{ID: "c", AuthorID: "au1", CreatedAt: now},
	)

	t.Run("pool preserves insertion order", func(t *testing.T) {
		pool, err := s.Pool(ctx, "any-user")
		if err != nil {
			t.Fatalf("Pool: %v", err)
		}

		ids := make([]string, 0, len(pool))
		for _, it := range pool {
			ids = append(ids, it.ID)
		}
		if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
			t.Errorf("pool order = %v", ids)
		}
	})

	t.Run("upsert replaces in place", func(t *testing.T) {
		s.Upsert(feed.Item{ID: "b", AuthorID: "au2", CreatedAt: now, Engagement: feed.EngagementCounts{Likes: 9}})

		pool, _ := s.Pool(ctx, "any-user")
		if pool[1].ID != "b" || pool[1].Engagement.Likes != 9 {
			t.Errorf("replaced item = %+v", pool[1])
		}
		if s.Len() != 3 {
			t.Errorf("Len() = %d, want 3", s.Len())
		}
	})

	t.Run("tags are distinct and sorted", func(t *testing.T) {
		want := []string{"food", "music", "travel"}
		if got := s.Tags(); !reflect.DeepEqual(got, want) {
			t.Errorf("Tags() = %v, want %v", got, want)
		}
	})

	t.Run("remove drops item and order entry", func(t *testing.T) {
		s.Remove("b", "no-such-id")

		pool, _ := s.Pool(ctx, "any-user")
		if len(pool) != 2 || pool[0].ID != "a" || pool[1].ID != "c" {
			t.Errorf("pool after remove = %+v", pool)
		}
	})
}
