// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package feed

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// reasonShareFloor is the minimum share of the total score a factor must
// contribute to appear in the explanation.
const reasonShareFloor = 0.10

// maxReasons caps how many positive factors an explanation lists.
const maxReasons = 3

// Ranker combines the five feature signals using a variant-selected
// weight vector, applies the diversity penalty and the viral circuit
// breaker, and emits scored items with decomposed explanations.
//
// It is stateless across calls and safe for concurrent use; the diversity
// window and breaker state live on the stack of each Rank call.
type Ranker struct {
	config   *Config
	variants *VariantSet
	logger   zerolog.Logger
}

// NewRanker creates a ranking engine. Variant overrides are resolved into
// full weight vectors here, once, so the hot path does no merging.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRanker(cfg *Config, logger zerolog.Logger) (*Ranker, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Ranker{
		config:   cfg,
		variants: NewVariantSet(cfg.Weights, cfg.Variants),
		logger:   logger.With().Str("component", "ranker").Logger(),
	}, nil
}

// Variants returns the resolved variant set for deterministic assignment.
func (r *Ranker) Variants() *VariantSet {
	return r.variants
}

// Rank scores and orders a pool of items for a viewer.
//
// A nil pool is a programmer error and panics; an empty pool ranks to an
// empty list. Malformed items (zero timestamp, empty author) score their
// missing-field sub-factor at its documented neutral default instead of
// aborting the batch.
func (r *Ranker) Rank(ctx context.Context, items []Item, profile *UserProfile, opts RankOptions) []ScoredItem {
	if items == nil {
		panic("feed: Rank called with nil item pool; pass an empty slice")
	}

	start := time.Now()
	weights, variant := r.variants.Weights(opts.Variant)

	scored := r.scoreAll(ctx, items, profile, weights, variant, opts.Snapshots)

	// Diversity and breaker sweeps are order-dependent: evaluate in
	// descending raw-score order, ties by original pool position.
	order := make([]int, len(scored))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scored[order[a]].Score > scored[order[b]].Score
	})

	r.applyPenalties(scored, order, weights)

	out := make([]ScoredItem, 0, len(scored))
	for _, idx := range order {
		out = append(out, scored[idx])
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})

	for i := range out {
		out[i].Reasons = buildReasons(&out[i].Breakdown, weights, r.config.Diversity.Penalty)
	}

	r.logger.Debug().
		Str("variant", variant).
		Int("items", len(items)).
		Dur("elapsed", time.Since(start)).
		Msg("ranking pass complete")

	return out
}

// scoreAll computes the five raw signals for every item in parallel and
// returns items carrying their raw composite score.
func (r *Ranker) scoreAll(ctx context.Context, items []Item, profile *UserProfile, weights Weights, variant string, snapshots map[string]EngagementSnapshot) []ScoredItem {
	scored := make([]ScoredItem, len(items))
	now := time.Now()

	workers := runtime.GOMAXPROCS(0)
	if workers > len(items) {
		workers = len(items)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	chunk := (len(items) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(items) {
			hi = len(items)
		}
		if lo >= hi {
			break
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if ctx.Err() != nil {
					return
				}
				scored[i] = r.scoreOne(&items[i], profile, weights, variant, snapshots, now)
			}
		}(lo, hi)
	}
	wg.Wait()

	return scored
}

// scoreOne computes the raw signals and composite score for a single item.
func (r *Ranker) scoreOne(item *Item, profile *UserProfile, weights Weights, variant string, snapshots map[string]EngagementSnapshot, now time.Time) ScoredItem {
	b := ScoreBreakdown{
		Recency:             RecencyScore(item.CreatedAt, now),
		Engagement:          EngagementScore(item),
		AuthorAffinity:      AuthorAffinityScore(item, profile),
		TopicRelevance:      TopicRelevanceScore(item, profile),
		ViralBoost:          ViralScore(item, snapshots),
		Weights:             weights,
		DiversityMultiplier: 1.0,
	}

	b.Final = weights.Recency*b.Recency +
		weights.Engagement*b.Engagement +
		weights.AuthorAffinity*b.AuthorAffinity +
		weights.TopicRelevance*b.TopicRelevance +
		weights.ViralBoost*b.ViralBoost

	return ScoredItem{
		Item:      *item,
		Score:     b.Final,
		Breakdown: b,
		Variant:   variant,
	}
}

// applyPenalties runs the sequential diversity and viral-breaker sweep
// over the raw-score ordering. Both are inherently order-dependent: each
// item's penalty depends on items already placed earlier in the pass.
func (r *Ranker) applyPenalties(scored []ScoredItem, order []int, weights Weights) {
	window := make([]*Item, 0, r.config.Diversity.WindowSize)
	boosted := 0

	for _, idx := range order {
		s := &scored[idx]

		if maxSimilarity(&s.Item, window, r.config.Diversity.SameAuthorSimilarity) >= r.config.Diversity.SimilarityThreshold {
			s.Breakdown.DiversityMultiplier = r.config.Diversity.Penalty
		}

		if s.Breakdown.ViralBoost > r.config.Viral.StrongBoostThreshold {
			if boosted < r.config.Viral.BreakerCap {
				boosted++
			} else {
				// Breaker open: zero the viral contribution and halve
				// what remains so trending items cannot crowd the feed.
				s.Breakdown.ViralSuppressed = true
			}
		}

		final := s.Breakdown.Final
		if s.Breakdown.ViralSuppressed {
			final = (final - weights.ViralBoost*s.Breakdown.ViralBoost) * r.config.Viral.SuppressionMultiplier
		}
		final *= s.Breakdown.DiversityMultiplier

		s.Breakdown.Final = final
		s.Score = final

		window = append(window, &s.Item)
		if len(window) > r.config.Diversity.WindowSize {
			window = window[1:]
		}
	}
}

// maxSimilarity returns the highest similarity between the candidate and
// the recently placed items.
func maxSimilarity(item *Item, window []*Item, sameAuthorFloor float64) float64 {
	maxSim := 0.0
	for _, placed := range window {
		sim := jaccard(item.Tags, placed.Tags)
		if item.AuthorID != "" && item.AuthorID == placed.AuthorID && sim < sameAuthorFloor {
			sim = sameAuthorFloor
		}
		if sim > maxSim {
			maxSim = sim
		}
	}
	return maxSim
}

// jaccard computes Jaccard similarity between two tag sets. Two empty
// sets are defined as dissimilar.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		set[tag] = struct{}{}
	}

	intersection := 0
	for _, tag := range b {
		if _, ok := set[tag]; ok {
			intersection++
		}
	}

	union := len(set) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// factorLabels are the human-readable explanation labels per factor.
var factorLabels = map[string]string{
	"recency":         "Recently posted",
	"engagement":      "Popular with the community",
	"author_affinity": "From an author you engage with",
	"topic_relevance": "Matches your interests",
	"viral_boost":     "Trending right now",
}

// buildReasons produces the decomposed explanation for one scored item:
// the top contributing factors above the share floor, plus an explicit
// negative entry if the diversity penalty fired.
func buildReasons(b *ScoreBreakdown, weights Weights, penalty float64) []Reason {
	viral := b.ViralBoost
	if b.ViralSuppressed {
		viral = 0
	}

	contribs := []Reason{
		{Factor: "recency", Percent: weights.Recency * b.Recency},
		{Factor: "engagement", Percent: weights.Engagement * b.Engagement},
		{Factor: "author_affinity", Percent: weights.AuthorAffinity * b.AuthorAffinity},
		{Factor: "topic_relevance", Percent: weights.TopicRelevance * b.TopicRelevance},
		{Factor: "viral_boost", Percent: weights.ViralBoost * viral},
	}

	total := 0.0
	for _, c := range contribs {
		total += c.Percent
	}

	var reasons []Reason
	if total > 0 {
		sort.SliceStable(contribs, func(a, b int) bool {
			return contribs[a].Percent > contribs[b].Percent
		})

		for _, c := range contribs {
			if len(reasons) == maxReasons {
				break
			}
			share := c.Percent / total
			if share <= reasonShareFloor {
				continue
			}
			reasons = append(reasons, Reason{
				Factor:  c.Factor,
				Label:   factorLabels[c.Factor],
				Percent: share * 100,
			})
		}
	}

	if b.DiversityMultiplier < 1.0 {
		reasons = append(reasons, Reason{
			Factor:  "diversity_penalty",
			Label:   "Reduced to keep your feed varied",
			Percent: -(1 - penalty) * 100,
		})
	}

	return reasons
}
