// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

// Package ingest decouples engagement event producers from feed sessions
// with an in-process Watermill pub/sub. Producers (the HTTP API, view
// timers, import jobs) publish events; a single consumer delivers them
// into the owning session's queue, where the periodic flush folds them
// into the profile.
package ingest

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/arclight-social/feedcore/internal/feed"
)

// TopicEngagement is the engagement event topic.
const TopicEngagement = "engagement.events"

// SchemaVersion is the current event envelope version.
const SchemaVersion = 1

// Envelope is the wire form of an engagement event on the bus.
type Envelope struct {
	// SchemaVersion tracks the envelope format.
	SchemaVersion int `json:"schema_version"`

	// EventID uniquely identifies this event for tracing.
	EventID string `json:"event_id"`

	// Source names the producer, e.g. "api", "importer".
	Source string `json:"source"`

	// Event is the engagement payload.
	Event feed.EngagementEvent `json:"event"`
}

// NewEnvelope wraps an engagement event with a fresh event ID.
func NewEnvelope(source string, event feed.EngagementEvent) *Envelope {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	return &Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Source:        source,
		Event:         event,
	}
}

// Validate checks required envelope fields.
func (e *Envelope) Validate() error {
	if e.Event.UserID == "" {
		return fmt.Errorf("envelope %s: missing user_id", e.EventID)
	}
	if e.Event.ItemID == "" {
		return fmt.Errorf("envelope %s: missing item_id", e.EventID)
	}
	return nil
}

// Marshal serializes the envelope for the bus.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// UnmarshalEnvelope deserializes an envelope from the bus.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}
	return &e, nil
}
