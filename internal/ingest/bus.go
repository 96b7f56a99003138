// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/arclight-social/feedcore/internal/feed"
	"github.com/arclight-social/feedcore/internal/feed/session"
	"github.com/arclight-social/feedcore/internal/metrics"
)

// BusConfig holds configuration for the engagement bus.
type BusConfig struct {
	// BufferSize is the gochannel output buffer per subscriber.
	// Default: 256.
	BufferSize int64 `json:"buffer_size" koanf:"buffer_size"`

	// CloseTimeout is how long to wait for the consumer to finish on
	// shutdown. Default: 10s.
	CloseTimeout time.Duration `json:"close_timeout" koanf:"close_timeout"`

	// RetryMaxRetries bounds redelivery attempts for failed events.
	// Default: 3.
	RetryMaxRetries int `json:"retry_max_retries" koanf:"retry_max_retries"`

	// RetryInterval is the initial redelivery backoff. Default: 100ms.
	RetryInterval time.Duration `json:"retry_interval" koanf:"retry_interval"`
}

// DefaultBusConfig returns production defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		BufferSize:      256,
		CloseTimeout:    10 * time.Second,
		RetryMaxRetries: 3,
		RetryInterval:   100 * time.Millisecond,
	}
}

// Bus is the in-process engagement event pipeline: a gochannel pub/sub
// with a single consumer delivering events into per-user sessions.
// Implements suture.Service via Serve.
type Bus struct {
	config   BusConfig
	pubsub   *gochannel.GoChannel
	router   *message.Router
	sessions *session.Manager
	logger   zerolog.Logger
}

// NewBus creates the engagement bus and wires its consumer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(cfg BusConfig, sessions *session.Manager, logger zerolog.Logger) (*Bus, error) {
	log := logger.With().Str("component", "ingest").Logger()
	wmLogger := newWatermillLogger(log)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInterval,
		Logger:          wmLogger,
	}
	router.AddMiddleware(middleware.Recoverer, retry.Middleware)

	b := &Bus{
		config:   cfg,
		pubsub:   pubsub,
		router:   router,
		sessions: sessions,
		logger:   log,
	}

	router.AddNoPublisherHandler(
		"engagement-consumer",
		TopicEngagement,
		pubsub,
		b.handleEngagement,
	)

	return b, nil
}

// Publish puts an engagement event on the bus.
func (b *Bus) Publish(source string, event feed.EngagementEvent) error {
	envelope := NewEnvelope(source, event)
	if err := envelope.Validate(); err != nil {
		return err
	}

	payload, err := envelope.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(envelope.EventID, payload)
	if err := b.pubsub.Publish(TopicEngagement, msg); err != nil {
		return fmt.Errorf("publish engagement: %w", err)
	}

	metrics.RecordEngagementEvent(event.Type.String())
	return nil
}

// handleEngagement delivers one event into the owning session's queue.
func (b *Bus) handleEngagement(msg *message.Message) error {
	envelope, err := UnmarshalEnvelope(msg.Payload)
	if err != nil {
		// Malformed payloads can never succeed; drop rather than retry.
		b.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping malformed engagement event")
		return nil
	}
	if err := envelope.Validate(); err != nil {
		b.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping invalid engagement event")
		return nil
	}

	s := b.sessions.Get(envelope.Event.UserID)
	if err := s.Enqueue(envelope.Event); err != nil {
		return fmt.Errorf("enqueue event %s: %w", envelope.EventID, err)
	}

	return nil
}

// Serve runs the router until the context is canceled. Satisfies
// suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	if err := b.router.Run(ctx); err != nil {
		return fmt.Errorf("engagement router: %w", err)
	}
	return ctx.Err()
}

// Close shuts down the pub/sub, releasing subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// String names the service in supervisor logs.
func (b *Bus) String() string {
	return "engagement-bus"
}

// watermillLogger adapts zerolog to watermill.LoggerAdapter.
type watermillLogger struct {
	logger zerolog.Logger
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return &watermillLogger{logger: logger}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.logger.Info(), fields).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.logger.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.logger.Trace(), fields).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	logger := l.logger
	for k, v := range fields {
		logger = logger.With().Interface(k, v).Logger()
	}
	return &watermillLogger{logger: logger}
}

func (l *watermillLogger) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
