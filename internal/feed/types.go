// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package feed

import (
	"time"
)

// EngagementType classifies discrete viewer interactions with a feed item.
type EngagementType int

const (
	// EngagementView indicates the item was viewed. Views above
	// LongViewThreshold count as long views for affinity purposes.
	EngagementView EngagementType = iota
	// EngagementLike indicates a reaction/like.
	EngagementLike
	// EngagementComment indicates a comment was left.
	EngagementComment
	// EngagementShare indicates the item was shared.
	EngagementShare
	// EngagementSave indicates the item was bookmarked.
	EngagementSave
	// EngagementNotInterested indicates an explicit negative signal.
	EngagementNotInterested
)

// LongViewThreshold separates long views from short glances when updating
// author affinity and topic interest.
const LongViewThreshold = 3 * time.Second

// String returns a human-readable name for the engagement type.
func (t EngagementType) String() string {
	switch t {
	case EngagementView:
		return "view"
	case EngagementLike:
		return "like"
	case EngagementComment:
		return "comment"
	case EngagementShare:
		return "share"
	case EngagementSave:
		return "save"
	case EngagementNotInterested:
		return "not_interested"
	default:
		return "unknown"
	}
}

// EngagementEvent is a single observed interaction, folded into a
// UserProfile by the profile update path.
type EngagementEvent struct {
	// UserID is the viewer who produced the event.
	UserID string `json:"user_id"`

	// ItemID is the feed item the event refers to.
	ItemID string `json:"item_id"`

	// Type classifies the interaction.
	Type EngagementType `json:"type"`

	// Duration is the view duration. Only meaningful for view events.
	Duration time.Duration `json:"duration,omitempty"`

	// Tags carries the item's topic tags so the profile update path does
	// not need item lookup access.
	Tags []string `json:"tags,omitempty"`

	// AuthorID is the item's author, carried for the same reason.
	AuthorID string `json:"author_id,omitempty"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`
}

// EngagementCounts holds the externally owned engagement counters for an
// item. The ranker treats these as a read-only snapshot.
type EngagementCounts struct {
	Likes    int  `json:"likes"`
	Comments int  `json:"comments"`
	Shares   int  `json:"shares"`
	Saved    bool `json:"saved"`
	Views    int  `json:"views"`
}

// Total returns the summed interaction count excluding views.
func (c EngagementCounts) Total() int {
	total := c.Likes + c.Comments + c.Shares
	if c.Saved {
		total++
	}
	return total
}

// Item is a feed entry as seen by the ranker. Items are immutable value
// snapshots; engagement counters are ground truth owned by an external
// system and are never mutated here.
type Item struct {
	// ID is the unique item identifier.
	ID string `json:"id"`

	// AuthorID identifies the item's author.
	AuthorID string `json:"author_id"`

	// AuthorHandle is the author's display handle.
	AuthorHandle string `json:"author_handle,omitempty"`

	// CreatedAt is the item creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Tags is the deduplicated set of topic tags.
	Tags []string `json:"tags,omitempty"`

	// Engagement holds the current engagement counters.
	Engagement EngagementCounts `json:"engagement"`

	// Content is the opaque content payload. The ranker never inspects it.
	Content string `json:"content,omitempty"`
}

// UserProfile is the per-viewer interest model consumed and produced by
// the scoring path.
//
// A nil AuthorAffinities or TopicInterests map means "no signal at all"
// (cold start) and is scored differently from a present map with a missing
// entry. Affinity values are unbounded below; normalization to [0,1]
// happens at scoring time.
type UserProfile struct {
	// UserID is the profile owner.
	UserID string `json:"user_id"`

	// AuthorAffinities maps author ID to a learned affinity score,
	// soft-capped at 100 for normalization.
	AuthorAffinities map[string]float64 `json:"author_affinities,omitempty"`

	// TopicInterests maps topic tag to an interest score in [0, 100].
	TopicInterests map[string]float64 `json:"topic_interests,omitempty"`

	// EngagementHistory is a bounded most-recent-kept log of interactions.
	EngagementHistory []HistoryEntry `json:"engagement_history,omitempty"`

	// Variant is the experiment variant assigned to this user. Stable
	// per user across sessions.
	Variant string `json:"variant,omitempty"`

	// UpdatedAt is when the profile last absorbed an engagement event.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// HistoryEntry is one record in the bounded engagement log.
type HistoryEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	ItemID    string         `json:"item_id"`
	Type      EngagementType `json:"type"`
	Duration  time.Duration  `json:"duration,omitempty"`
}

// EngagementSnapshot is a caller-supplied historical observation of an
// item's total engagement, used only to detect growth rate for viral
// detection. Read-only input to a ranking pass.
type EngagementSnapshot struct {
	// EngagementCount is the total engagement observed at ObservedAt.
	EngagementCount int `json:"engagement_count"`

	// ObservedAt is when the observation was taken.
	ObservedAt time.Time `json:"observed_at"`
}

// ScoreBreakdown is a per-item snapshot of the raw factor values, the
// weight vector used, the diversity multiplier applied, and the resulting
// scalar score. Produced fresh on every ranking pass, never persisted.
type ScoreBreakdown struct {
	// Recency is the raw time-decay signal.
	Recency float64 `json:"recency"`

	// Engagement is the raw log-compressed engagement signal.
	Engagement float64 `json:"engagement"`

	// AuthorAffinity is the raw normalized author affinity signal.
	AuthorAffinity float64 `json:"author_affinity"`

	// TopicRelevance is the raw topic interest signal.
	TopicRelevance float64 `json:"topic_relevance"`

	// ViralBoost is the raw viral detection signal.
	ViralBoost float64 `json:"viral_boost"`

	// Weights is the weight vector the signals were combined with.
	Weights Weights `json:"weights"`

	// DiversityMultiplier is 0.5 when the diversity penalty fired, 1.0
	// otherwise.
	DiversityMultiplier float64 `json:"diversity_multiplier"`

	// ViralSuppressed is true when the viral circuit breaker zeroed this
	// item's viral contribution.
	ViralSuppressed bool `json:"viral_suppressed,omitempty"`

	// Final is the resulting scalar score.
	Final float64 `json:"final"`
}

// Reason is one entry in a human-readable score explanation.
type Reason struct {
	// Factor is the machine-readable factor name.
	Factor string `json:"factor"`

	// Label is the human-readable description.
	Label string `json:"label"`

	// Percent is the factor's share of the total score. Negative for
	// suppression reasons.
	Percent float64 `json:"percent"`
}

// ScoredItem is an item with its attached score, breakdown and explanation
// as produced by a ranking pass.
type ScoredItem struct {
	// Item is the ranked feed entry.
	Item Item `json:"item"`

	// Score is the final composite score.
	Score float64 `json:"score"`

	// Breakdown decomposes the score into its factors.
	Breakdown ScoreBreakdown `json:"breakdown"`

	// Reasons explains the top score contributions.
	Reasons []Reason `json:"reasons,omitempty"`

	// Variant is the weight variant used for this pass.
	Variant string `json:"variant"`
}

// RankOptions controls a single ranking pass.
type RankOptions struct {
	// Variant selects the weight configuration. Unknown or empty names
	// fall back to the control variant.
	Variant string `json:"variant,omitempty"`

	// Snapshots maps item ID to a historical engagement observation for
	// viral growth detection. May be nil.
	Snapshots map[string]EngagementSnapshot `json:"-"`
}
