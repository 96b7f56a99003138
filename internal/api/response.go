// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

// Package api exposes the feed ranking engine over HTTP with a
// standardized response envelope.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/arclight-social/feedcore/internal/logging"
)

// Response is the standardized wrapper for all API endpoints.
type Response struct {
	// Success indicates whether the request was successful.
	Success bool `json:"success"`

	// Data contains the response payload (null on error).
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (null on success).
	Error *Error `json:"error,omitempty"`

	// Meta contains metadata about the response.
	Meta *Meta `json:"meta,omitempty"`
}

// Error represents an error response.
type Error struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// RequestID is the request ID for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Meta contains response metadata.
type Meta struct {
	// RequestID is the unique request identifier for tracing.
	RequestID string `json:"request_id,omitempty"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`

	// DurationMs is the request processing time in milliseconds.
	DurationMs int64 `json:"duration_ms"`
}

// Error codes for API responses.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
)

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	resp := Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			RequestID:  logging.RequestIDFromContext(r.Context()),
			Timestamp:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
		},
	}
	writeJSON(w, r, status, &resp)
}

// respondError writes an error envelope and logs server-side failures.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if status >= http.StatusInternalServerError {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Str("code", code).Msg(message)
	}

	resp := Response{
		Success: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	}
	writeJSON(w, r, status, &resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("encode response failed")
	}
}
