// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package feed

import (
	"hash/fnv"
	"sort"
)

// ControlVariant is the default weight configuration. Users with no
// identifier and unknown variant names always resolve here.
const ControlVariant = "control"

// Weights is the per-factor weight vector used to combine the five raw
// signals. Weights are not required to sum to 1 after variant overrides.
type Weights struct {
	Recency        float64 `json:"recency" koanf:"recency"`
	Engagement     float64 `json:"engagement" koanf:"engagement"`
	AuthorAffinity float64 `json:"author_affinity" koanf:"author_affinity"`
	TopicRelevance float64 `json:"topic_relevance" koanf:"topic_relevance"`
	ViralBoost     float64 `json:"viral_boost" koanf:"viral_boost"`
}

// DefaultWeights returns the control weight vector.
func DefaultWeights() Weights {
	return Weights{
		Recency:        0.25,
		Engagement:     0.30,
		AuthorAffinity: 0.20,
		TopicRelevance: 0.15,
		ViralBoost:     0.10,
	}
}

// WeightOverride is a partial weight vector. Nil fields inherit the
// control value. Overrides are merged once at load time so the ranking
// hot path never sees merge logic.
type WeightOverride struct {
	Recency        *float64 `json:"recency,omitempty" koanf:"recency"`
	Engagement     *float64 `json:"engagement,omitempty" koanf:"engagement"`
	AuthorAffinity *float64 `json:"author_affinity,omitempty" koanf:"author_affinity"`
	TopicRelevance *float64 `json:"topic_relevance,omitempty" koanf:"topic_relevance"`
	ViralBoost     *float64 `json:"viral_boost,omitempty" koanf:"viral_boost"`
}

// Apply merges the override over base and returns the full vector.
func (o WeightOverride) Apply(base Weights) Weights {
	if o.Recency != nil {
		base.Recency = *o.Recency
	}
	if o.Engagement != nil {
		base.Engagement = *o.Engagement
	}
	if o.AuthorAffinity != nil {
		base.AuthorAffinity = *o.AuthorAffinity
	}
	if o.TopicRelevance != nil {
		base.TopicRelevance = *o.TopicRelevance
	}
	if o.ViralBoost != nil {
		base.ViralBoost = *o.ViralBoost
	}
	return base
}

// builtinOverrides are the variants that exist even without external
// experiment configuration.
func builtinOverrides() map[string]WeightOverride {
	f := func(v float64) *float64 { return &v }

	return map[string]WeightOverride{
		// Emphasize raw engagement and trending content.
		"engagement_heavy": {
			Engagement: f(0.45),
			ViralBoost: f(0.15),
		},
		// Emphasize topic discovery over familiar authors.
		"discovery": {
			AuthorAffinity: f(0.10),
			TopicRelevance: f(0.30),
		},
		// Emphasize freshness.
		"recency_first": {
			Recency: f(0.40),
		},
	}
}

// VariantSet is a closed, resolved set of named weight configurations.
// Every entry is a full vector; partial overrides were merged over the
// control weights when the set was built.
type VariantSet struct {
	// names is sorted for deterministic hash assignment across restarts.
	names   []string
	weights map[string]Weights
}

// NewVariantSet resolves the built-in variants plus any external
// experiment overrides over the given control weights. External overrides
// with the same name as a built-in replace it.
func NewVariantSet(control Weights, external map[string]WeightOverride) *VariantSet {
	overrides := builtinOverrides()
	for name, o := range external {
		if name == ControlVariant {
			continue
		}
		overrides[name] = o
	}

	weights := make(map[string]Weights, len(overrides)+1)
	weights[ControlVariant] = control
	for name, o := range overrides {
		weights[name] = o.Apply(control)
	}

	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	return &VariantSet{names: names, weights: weights}
}

// Weights resolves a variant name to its weight vector. Unknown or empty
// names fall back to the control vector rather than failing.
func (s *VariantSet) Weights(variant string) (Weights, string) {
	if w, ok := s.weights[variant]; ok {
		return w, variant
	}
	return s.weights[ControlVariant], ControlVariant
}

// Names returns the variant names in deterministic order.
func (s *VariantSet) Names() []string {
	return s.names
}

// Assign deterministically maps a user ID to a variant. The same ID
// always yields the same variant for a fixed variant set, across process
// restarts. An empty ID yields the control variant.
func (s *VariantSet) Assign(userID string) string {
	if userID == "" {
		return ControlVariant
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return s.names[h.Sum32()%uint32(len(s.names))]
}
