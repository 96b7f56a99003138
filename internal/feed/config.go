// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package feed

import (
	"fmt"
)

// Config contains all configuration for the ranking engine.
type Config struct {
	// Weights is the control weight vector. Variant overrides are merged
	// over it when the engine is built.
	Weights Weights `json:"weights" koanf:"weights"`

	// Variants holds external experiment overrides keyed by variant name.
	// If empty, only the built-in variants exist.
	Variants map[string]WeightOverride `json:"variants,omitempty" koanf:"variants"`

	// Diversity contains parameters for the consecutive-similarity penalty.
	Diversity DiversityConfig `json:"diversity" koanf:"diversity"`

	// Viral contains parameters for the viral circuit breaker.
	Viral ViralConfig `json:"viral" koanf:"viral"`
}

// DiversityConfig contains parameters for the diversity penalty.
type DiversityConfig struct {
	// WindowSize is how many already-placed items each candidate is
	// compared against. Default: 3.
	WindowSize int `json:"window_size" koanf:"window_size"`

	// SimilarityThreshold is the similarity at or above which the penalty
	// fires. Default: 0.7.
	SimilarityThreshold float64 `json:"similarity_threshold" koanf:"similarity_threshold"`

	// Penalty multiplies the score of near-duplicate items. Default: 0.5.
	Penalty float64 `json:"penalty" koanf:"penalty"`

	// SameAuthorSimilarity is the similarity floor for two items by the
	// same author. Default: 0.3.
	SameAuthorSimilarity float64 `json:"same_author_similarity" koanf:"same_author_similarity"`
}

// ViralConfig contains parameters for the viral circuit breaker.
type ViralConfig struct {
	// BreakerCap is how many items per ranking pass may carry a strong
	// viral boost before further ones are suppressed. Default: 3.
	BreakerCap int `json:"breaker_cap" koanf:"breaker_cap"`

	// StrongBoostThreshold is the raw viral signal above which an item
	// counts against the breaker cap. Default: 0.5.
	StrongBoostThreshold float64 `json:"strong_boost_threshold" koanf:"strong_boost_threshold"`

	// SuppressionMultiplier halves the overall score of items suppressed
	// by the breaker. Default: 0.5.
	SuppressionMultiplier float64 `json:"suppression_multiplier" koanf:"suppression_multiplier"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Weights: DefaultWeights(),
		Diversity: DiversityConfig{
			WindowSize:           3,
			SimilarityThreshold:  0.7,
			Penalty:              0.5,
			SameAuthorSimilarity: 0.3,
		},
		Viral: ViralConfig{
			BreakerCap:            3,
			StrongBoostThreshold:  0.5,
			SuppressionMultiplier: 0.5,
		},
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Diversity.WindowSize < 0 {
		return fmt.Errorf("diversity window size must be >= 0, got %d", c.Diversity.WindowSize)
	}
	if c.Diversity.SimilarityThreshold < 0 || c.Diversity.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0,1], got %f", c.Diversity.SimilarityThreshold)
	}
	if c.Diversity.Penalty <= 0 || c.Diversity.Penalty > 1 {
		return fmt.Errorf("diversity penalty must be in (0,1], got %f", c.Diversity.Penalty)
	}
	if c.Viral.BreakerCap < 0 {
		return fmt.Errorf("viral breaker cap must be >= 0, got %d", c.Viral.BreakerCap)
	}
	if c.Viral.SuppressionMultiplier <= 0 || c.Viral.SuppressionMultiplier > 1 {
		return fmt.Errorf("viral suppression multiplier must be in (0,1], got %f", c.Viral.SuppressionMultiplier)
	}

	for name, w := range map[string]Weights{ControlVariant: c.Weights} {
		if w.Recency < 0 || w.Engagement < 0 || w.AuthorAffinity < 0 ||
			w.TopicRelevance < 0 || w.ViralBoost < 0 {
			return fmt.Errorf("variant %q has negative weights", name)
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c

	if c.Variants != nil {
		clone.Variants = make(map[string]WeightOverride, len(c.Variants))
		for name, o := range c.Variants {
			clone.Variants[name] = o
		}
	}

	return &clone
}
