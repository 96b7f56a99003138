// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package feed

import (
	"math"
	"time"
)

// Scoring constants. These are fixed configuration-driven multipliers,
// not learned parameters.
const (
	// RecencyHalfLife is the age at which the recency signal halves.
	RecencyHalfLife = 24 * time.Hour

	// engagement counter weights
	likeWeight    = 1.0
	commentWeight = 3.0
	shareWeight   = 5.0
	saveWeight    = 4.0
	viewWeight    = 0.1

	// engagementCompression divides the log-compressed engagement sum to
	// bound the influence of extreme outliers.
	engagementCompression = 10.0

	// affinityScale normalizes stored affinity/interest values into [0,1].
	affinityScale = 100.0

	// untaggedRelevance mildly deprioritizes items with no topic tags.
	untaggedRelevance = 0.3

	// irrelevantTopics is returned when an item's tags are all unknown to
	// the profile.
	irrelevantTopics = 0.2

	// neutralScore is the cold-start value when the profile carries no
	// signal at all for a factor.
	neutralScore = 0.5

	// viral detection thresholds
	viralMinEngagement = 100
	viralMinRate       = 0.15
	viralGrowthFactor  = 2.0

	// viewsEstimateMultiplier substitutes an estimated view count when
	// views are absent. Deliberately arbitrary heuristic, preserved for
	// parity with observed feed behavior rather than derived from data.
	viewsEstimateMultiplier = 10
)

// RecencyScore returns a time-decay signal in (0, 1]: 1 at age zero, 0.5
// at one half-life, approaching 0 for very old items. Clock-skewed items
// with a future timestamp clamp to age zero.
func RecencyScore(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}

	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}

	return math.Exp2(-age.Hours() / RecencyHalfLife.Hours())
}

// EngagementScore returns a log-compressed weighted engagement signal.
// An item with all-zero counters scores exactly 0.
func EngagementScore(item *Item) float64 {
	c := item.Engagement

	raw := likeWeight*float64(c.Likes) +
		commentWeight*float64(c.Comments) +
		shareWeight*float64(c.Shares) +
		viewWeight*float64(c.Views)
	if c.Saved {
		raw += saveWeight
	}

	return math.Log1p(raw) / engagementCompression
}

// AuthorAffinityScore normalizes the viewer's learned affinity for the
// item's author into [0, 1].
//
// The two "unknown" cases are deliberately distinct: a profile with no
// affinity map at all (cold start) scores a neutral 0.5, while a present
// map lacking this author scores 0 - a known-absent relationship.
func AuthorAffinityScore(item *Item, profile *UserProfile) float64 {
	if profile == nil || profile.AuthorAffinities == nil {
		return neutralScore
	}

	return clamp01(profile.AuthorAffinities[item.AuthorID] / affinityScale)
}

// TopicRelevanceScore returns the mean normalized interest over the
// item's tags.
//
// Tiers: no interest map at all -> 0.5 (cold start); item has no tags ->
// 0.3 (untagged content is mildly deprioritized); tags present but none
// known to the profile -> 0.2 (fully irrelevant, short-circuited to avoid
// averaging zeros); otherwise the mean, where unknown tags contribute 0.
func TopicRelevanceScore(item *Item, profile *UserProfile) float64 {
	if profile == nil || profile.TopicInterests == nil {
		return neutralScore
	}

	if len(item.Tags) == 0 {
		return untaggedRelevance
	}

	sum := 0.0
	known := 0
	for _, tag := range item.Tags {
		if interest, ok := profile.TopicInterests[tag]; ok {
			sum += interest / affinityScale
			known++
		}
	}

	if known == 0 {
		return irrelevantTopics
	}

	return sum / float64(len(item.Tags))
}

// ViralScore detects trending content from engagement velocity.
//
// Returns 0 unless total engagement meets a minimum absolute threshold and
// the engagement rate clears viralMinRate. With a historical snapshot
// showing >= 2x growth the boost is a full 1.0; otherwise a partial boost
// proportional to how far the rate exceeds the threshold, capped below 1.
func ViralScore(item *Item, snapshots map[string]EngagementSnapshot) float64 {
	total := item.Engagement.Total()
	if total < viralMinEngagement {
		return 0
	}

	views := item.Engagement.Views
	if views == 0 {
		views = total * viewsEstimateMultiplier
	}

	rate := float64(total) / float64(views)
	if rate < viralMinRate {
		return 0
	}

	if snap, ok := snapshots[item.ID]; ok && snap.EngagementCount > 0 {
		growth := float64(total) / float64(snap.EngagementCount)
		if growth >= viralGrowthFactor {
			return 1.0
		}
	}

	// Partial boost scaled by rate excess over the threshold.
	boost := 0.25 + (rate-viralMinRate)/viralMinRate*0.5
	return math.Min(boost, 0.99)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
