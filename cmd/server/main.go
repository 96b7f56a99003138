// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

// Command server runs the feedcore ranking service: the composite feed
// ranker, per-user sessions with batched engagement ingestion, durable
// profile storage and the HTTP API, all under a suture supervision tree.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"

	"github.com/arclight-social/feedcore/internal/api"
	"github.com/arclight-social/feedcore/internal/config"
	"github.com/arclight-social/feedcore/internal/content"
	"github.com/arclight-social/feedcore/internal/feed"
	"github.com/arclight-social/feedcore/internal/feed/profile"
	"github.com/arclight-social/feedcore/internal/feed/session"
	"github.com/arclight-social/feedcore/internal/ingest"
	"github.com/arclight-social/feedcore/internal/logging"
	"github.com/arclight-social/feedcore/internal/supervisor"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: search standard locations)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(cfg.Logging)
	logger := logging.Logger()
	logger.Info().
		Str("storage", cfg.Storage.Backend).
		Int("port", cfg.Server.Port).
		Msg("feedcore starting")

	// Profile persistence
	inner, cleanup, err := openProfileStore(cfg)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer cleanup()

	// Ranking engine
	ranker, err := feed.NewRanker(&cfg.Ranking, logger)
	if err != nil {
		return fmt.Errorf("create ranker: %w", err)
	}

	store := profile.NewBreakerStore(inner, ranker.Variants(), cfg.Breaker, logger)
	sessions := session.NewManager(ranker, store, cfg.Session.PageSize, cfg.Session.FlushInterval, logger)

	// Engagement pipeline
	bus, err := ingest.NewBus(ingest.DefaultBusConfig(), sessions, logger)
	if err != nil {
		return fmt.Errorf("create engagement bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Warn().Err(err).Msg("bus close failed")
		}
	}()

	// HTTP API
	source := content.NewMemorySource()
	handler := api.NewHandler(sessions, store, source, bus)
	items := api.NewItemsHandler(source)
	router := api.NewRouter(api.RouterConfig{
		RateLimitPerSecond: cfg.Server.RateLimitPerSecond,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
	}, handler, items)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Supervision tree
	slogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	tree := supervisor.NewTree(slogger, supervisor.DefaultTreeConfig())
	tree.AddPipelineService(bus)
	tree.AddPipelineService(sessions)
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	logger.Info().Msg("feedcore stopped")
	return nil
}

// openProfileStore builds the configured persistence backend. The
// returned cleanup closes any underlying database.
func openProfileStore(cfg *config.Config) (profile.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "badger":
		opts := badger.DefaultOptions(cfg.Storage.BadgerPath).WithLogger(nil)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger at %s: %w", cfg.Storage.BadgerPath, err)
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				logging.Warn().Err(err).Msg("badger close failed")
			}
		}
		return profile.NewBadgerStore(db), cleanup, nil
	default:
		return profile.NewMemoryStore(), func() {}, nil
	}
}
