// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arclight-social/feedcore/internal/feed"
	"github.com/arclight-social/feedcore/internal/feed/profile"
	"github.com/arclight-social/feedcore/internal/metrics"
)

// DefaultFlushInterval is how often pending engagement batches are
// folded into profiles.
const DefaultFlushInterval = 2 * time.Second

// Manager owns the per-viewer sessions and drives their periodic flush.
// It implements suture.Service via Serve, so the flush loop runs under
// the supervision tree and stops cleanly on shutdown with a final flush.
type Manager struct {
	ranker        *feed.Ranker
	store         *profile.BreakerStore
	pageSize      int
	flushInterval time.Duration
	logger        zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(ranker *feed.Ranker, store *profile.BreakerStore, pageSize int, flushInterval time.Duration, logger zerolog.Logger) *Manager {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}

	return &Manager{
		ranker:        ranker,
		store:         store,
		pageSize:      pageSize,
		flushInterval: flushInterval,
		logger:        logger.With().Str("component", "session_manager").Logger(),
		sessions:      make(map[string]*Session),
	}
}

// Get returns the session for a viewer, creating it lazily.
func (m *Manager) Get(userID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}

	s = New(userID, m.ranker, m.store, m.pageSize, m.logger)
	m.sessions[userID] = s
	metrics.SetActiveSessions(len(m.sessions))
	return s
}

// Close removes a viewer's session after a final flush.
func (m *Manager) Close(ctx context.Context, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	metrics.SetActiveSessions(len(m.sessions))
	m.mu.Unlock()

	if !ok {
		return nil
	}

	_, err := s.Flush(ctx)
	return err
}

// Serve runs the periodic flush loop until the context is canceled, then
// performs a final flush of every session. Satisfies suture.Service.
func (m *Manager) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()

	m.logger.Info().Dur("interval", m.flushInterval).Msg("session flush loop started")

	for {
		select {
		case <-ctx.Done():
			m.flushAll(context.WithoutCancel(ctx))
			m.logger.Info().Msg("session flush loop stopped")
			return ctx.Err()
		case <-ticker.C:
			m.flushAll(ctx)
		}
	}
}

// flushAll flushes every session's pending events.
func (m *Manager) flushAll(ctx context.Context) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		n, err := s.Flush(ctx)
		if err != nil {
			m.logger.Warn().Err(err).Str("user_id", s.UserID()).Msg("flush failed, events requeued")
			continue
		}
		if n > 0 {
			metrics.RecordEngagementFlush(n)
		}
	}
}

// String names the service in supervisor logs.
func (m *Manager) String() string {
	return "session-manager"
}
