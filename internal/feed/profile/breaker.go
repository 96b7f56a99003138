// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package profile

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/rs/zerolog"

	"github.com/arclight-social/feedcore/internal/feed"
)

// BreakerConfig holds circuit breaker settings for the profile backend.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// breaker opens. Default: 5.
	FailureThreshold uint32 `json:"failure_threshold" koanf:"failure_threshold"`

	// OpenTimeout is how long the breaker stays open before probing the
	// backend again. Default: 30s.
	OpenTimeout time.Duration `json:"open_timeout" koanf:"open_timeout"`
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// BreakerStore wraps a Store with circuit breaker protection and the
// silent-recovery policy: losing personalization state is acceptable,
// blocking the feed is not. When the backend fails or the breaker is
// open, reads degrade to a fresh default profile and the incident is
// logged non-fatally.
type BreakerStore struct {
	inner    Store
	variants *feed.VariantSet
	cb       *gobreaker.CircuitBreaker[*feed.UserProfile]
	logger   zerolog.Logger
}

// NewBreakerStore wraps a store with a circuit breaker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreakerStore(inner Store, variants *feed.VariantSet, cfg BreakerConfig, logger zerolog.Logger) *BreakerStore {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	log := logger.With().Str("component", "profile_store").Logger()

	settings := gobreaker.Settings{
		Name:    "profile-store",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("profile store breaker state change")
		},
	}

	return &BreakerStore{
		inner:    inner,
		variants: variants,
		cb:       gobreaker.NewCircuitBreaker[*feed.UserProfile](settings),
		logger:   log,
	}
}

// Get retrieves a profile through the breaker. ErrNotFound passes
// through without counting as a backend failure.
func (s *BreakerStore) Get(ctx context.Context, userID string) (*feed.UserProfile, error) {
	var notFound bool

	p, err := s.cb.Execute(func() (*feed.UserProfile, error) {
		p, err := s.inner.Get(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil, nil
		}
		return p, err
	})
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, ErrNotFound
	}
	return p, nil
}

// GetOrDefault retrieves a profile, substituting a fresh default when the
// user is unknown or the backend cannot be read. This path never fails.
func (s *BreakerStore) GetOrDefault(ctx context.Context, userID string) *feed.UserProfile {
	p, err := s.Get(ctx, userID)
	if err == nil {
		return p
	}

	if !errors.Is(err, ErrNotFound) {
		s.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("profile read failed, serving default profile")
	}

	return NewDefault(userID, s.variants)
}

// Put stores a profile through the breaker.
func (s *BreakerStore) Put(ctx context.Context, p *feed.UserProfile) error {
	_, err := s.cb.Execute(func() (*feed.UserProfile, error) {
		return nil, s.inner.Put(ctx, p)
	})
	return err
}

// Delete removes a profile through the breaker.
func (s *BreakerStore) Delete(ctx context.Context, userID string) error {
	_, err := s.cb.Execute(func() (*feed.UserProfile, error) {
		return nil, s.inner.Delete(ctx, userID)
	})
	return err
}

// State reports the current breaker state for monitoring.
func (s *BreakerStore) State() string {
	return s.cb.State().String()
}
