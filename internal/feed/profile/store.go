// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package profile

import (
	"context"
	"errors"
	"sync"

	"github.com/arclight-social/feedcore/internal/feed"
)

// ErrNotFound is returned when no profile exists for a user.
var ErrNotFound = errors.New("profile not found")

// Store is the key-value persistence contract for user profiles. The
// core does not define how profiles are stored, only that they
// round-trip losslessly keyed by user ID.
type Store interface {
	// Get retrieves the profile for a user.
	// Returns ErrNotFound if none exists.
	Get(ctx context.Context, userID string) (*feed.UserProfile, error)

	// Put stores a profile, replacing any existing one.
	Put(ctx context.Context, p *feed.UserProfile) error

	// Delete removes a user's profile. Deleting a missing profile is
	// not an error.
	Delete(ctx context.Context, userID string) error
}

// MemoryStore is an in-memory Store. It is the default backend for tests
// and single-process deployments without durability requirements.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*feed.UserProfile
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*feed.UserProfile)}
}

// Get retrieves the profile for a user.
func (s *MemoryStore) Get(_ context.Context, userID string) (*feed.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Put stores a profile. The stored pointer is treated as immutable by
// convention: updates go through ApplyEngagement which returns a copy.
func (s *MemoryStore) Put(_ context.Context, p *feed.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.UserID] = p
	return nil
}

// Delete removes a user's profile.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, userID)
	return nil
}

// Len returns the number of stored profiles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
