// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

// Package profile holds and evolves the per-user interest model.
//
// Profiles are updated through immutable transforms: ApplyEngagement
// returns a new profile rather than mutating in place, so concurrent
// readers never observe a half-applied update.
package profile

import (
	"time"

	"github.com/arclight-social/feedcore/internal/feed"
)

// MaxHistoryEntries is the hard cap on the engagement log: the 100 most
// recent prior entries plus the newly appended one.
const MaxHistoryEntries = 101

// authorDeltas maps engagement type to the author-affinity delta. Long
// views (above feed.LongViewThreshold) use longViewAuthorDelta instead of
// the view entry. No floor is imposed; affinity can go negative and is
// clamped at read time by the scorer.
var authorDeltas = map[feed.EngagementType]float64{
	feed.EngagementView:          1,
	feed.EngagementLike:          5,
	feed.EngagementComment:       10,
	feed.EngagementShare:         15,
	feed.EngagementSave:          12,
	feed.EngagementNotInterested: -20,
}

const longViewAuthorDelta = 2

// topicDeltas maps engagement type to the per-tag topic-interest delta,
// capped at 100 on the way up.
var topicDeltas = map[feed.EngagementType]float64{
	feed.EngagementView:          0.5,
	feed.EngagementLike:          3,
	feed.EngagementComment:       5,
	feed.EngagementShare:         8,
	feed.EngagementSave:          6,
	feed.EngagementNotInterested: -10,
}

const longViewTopicDelta = 1

// seedTopics are the neutral topic interests given to first-time viewers.
// All start at the midpoint so early engagement moves them meaningfully
// in either direction.
var seedTopics = []string{
	"music", "sports", "technology", "art", "food", "travel",
}

const seedInterest = 50

// NewDefault returns a fresh profile for a first-time viewer: empty
// author affinities, seeded neutral topic interests, empty history, and a
// deterministically assigned experiment variant.
func NewDefault(userID string, variants *feed.VariantSet) *feed.UserProfile {
	interests := make(map[string]float64, len(seedTopics))
	for _, topic := range seedTopics {
		interests[topic] = seedInterest
	}

	variant := feed.ControlVariant
	if variants != nil {
		variant = variants.Assign(userID)
	}

	return &feed.UserProfile{
		UserID:           userID,
		AuthorAffinities: make(map[string]float64),
		TopicInterests:   interests,
		Variant:          variant,
		UpdatedAt:        time.Now(),
	}
}

// ApplyEngagement folds a single engagement event into the profile and
// returns the updated copy. Updates are additive, not idempotent:
// applying the same event twice moves the affinities twice.
func ApplyEngagement(p *feed.UserProfile, event feed.EngagementEvent) *feed.UserProfile {
	next := cloneProfile(p)

	authorDelta := authorDeltas[event.Type]
	topicDelta := topicDeltas[event.Type]
	if event.Type == feed.EngagementView && event.Duration > feed.LongViewThreshold {
		authorDelta = longViewAuthorDelta
		topicDelta = longViewTopicDelta
	}

	if event.AuthorID != "" {
		next.AuthorAffinities[event.AuthorID] += authorDelta
	}

	for _, tag := range event.Tags {
		interest := next.TopicInterests[tag] + topicDelta
		if interest > 100 {
			interest = 100
		}
		next.TopicInterests[tag] = interest
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	next.EngagementHistory = append(next.EngagementHistory, feed.HistoryEntry{
		Timestamp: ts,
		ItemID:    event.ItemID,
		Type:      event.Type,
		Duration:  event.Duration,
	})
	if len(next.EngagementHistory) > MaxHistoryEntries {
		next.EngagementHistory = next.EngagementHistory[len(next.EngagementHistory)-MaxHistoryEntries:]
	}

	next.UpdatedAt = time.Now()
	return next
}

// cloneProfile deep-copies a profile so the transform never aliases maps
// with the original. Nil maps materialize as empty ones; the cold-start
// distinction only matters for profiles that never passed through the
// update path.
func cloneProfile(p *feed.UserProfile) *feed.UserProfile {
	next := &feed.UserProfile{
		UserID:    p.UserID,
		Variant:   p.Variant,
		UpdatedAt: p.UpdatedAt,
	}

	next.AuthorAffinities = make(map[string]float64, len(p.AuthorAffinities)+1)
	for k, v := range p.AuthorAffinities {
		next.AuthorAffinities[k] = v
	}

	next.TopicInterests = make(map[string]float64, len(p.TopicInterests)+1)
	for k, v := range p.TopicInterests {
		next.TopicInterests[k] = v
	}

	if len(p.EngagementHistory) > 0 {
		next.EngagementHistory = make([]feed.HistoryEntry, len(p.EngagementHistory), len(p.EngagementHistory)+1)
		copy(next.EngagementHistory, p.EngagementHistory)
	}

	return next
}
