// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

// Package feed implements the composite feed ranking engine.
//
// The engine orders a pool of social-feed items for a single viewer by a
// personalized relevance score built from five independent signals:
//
//   - recency: exponential half-life decay (24h)
//   - engagement: log-compressed weighted counter sum
//   - author affinity: learned per-author preference from the profile
//   - topic relevance: mean tag interest from the profile
//   - viral boost: engagement-velocity trending detection
//
// Signals are combined with a variant-selected weight vector, then a
// sequential sweep applies a diversity penalty against recently placed
// items and a circuit breaker capping how many items may carry a strong
// viral boost in one pass. Each result carries a full score breakdown and
// a human-readable explanation.
//
// Scoring functions are pure; the Ranker holds only resolved
// configuration and is safe for concurrent use. Profile state is owned by
// the profile subpackage, session/pagination state by the session
// subpackage.
package feed
