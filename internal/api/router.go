// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arclight-social/feedcore/internal/middleware"
)

// RouterConfig holds router-level settings.
type RouterConfig struct {
	// RateLimitPerSecond limits request rate; zero disables.
	RateLimitPerSecond float64

	// RateLimitBurst is the limiter burst size.
	RateLimitBurst int
}

// NewRouter assembles the chi router with the standard middleware chain.
func NewRouter(cfg RouterConfig, h *Handler, items *ItemsHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Prometheus)
	r.Use(middleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/feed/{userID}", func(r chi.Router) {
			r.Get("/", h.GetFeed)
			r.Post("/more", h.LoadMore)
			r.Post("/engagement", h.PostEngagement)
			r.Post("/not-interested/{itemID}", h.NotInterested)
		})

		r.Route("/profile/{userID}", func(r chi.Router) {
			r.Get("/", h.GetProfile)
			r.Delete("/", h.ResetProfile)
		})

		if items != nil {
			r.Route("/items", func(r chi.Router) {
				r.Post("/", items.UpsertItems)
				r.Get("/tags", items.ListTags)
			})
		}
	})

	return r
}
