// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/models"
)

// Error codes used in API responses.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeValidationError = "VALIDATION_ERROR"
)

// responseWriter writes models.APIResponse envelopes with timing
// metadata. One is created per request at the top of each handler.
type responseWriter struct {
	w     http.ResponseWriter
	start time.Time
}

func respond(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w: w, start: time.Now()}
}

func (rw *responseWriter) meta() models.Metadata {
	return models.Metadata{
		Timestamp:   time.Now().UTC(),
		QueryTimeMS: time.Since(rw.start).Milliseconds(),
	}
}

// Success writes a 200 with data.
func (rw *responseWriter) Success(data interface{}) {
	rw.writeJSON(http.StatusOK, models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: rw.meta(),
	})
}

// Created writes a 201 with data.
func (rw *responseWriter) Created(data interface{}) {
	rw.writeJSON(http.StatusCreated, models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: rw.meta(),
	})
}

// NoContent writes a bare 204.
func (rw *responseWriter) NoContent() {
	rw.w.WriteHeader(http.StatusNoContent)
}

// Error writes an error envelope with the given status.
func (rw *responseWriter) Error(status int, code, message string) {
	rw.APIError(status, &models.APIError{Code: code, Message: message})
}

// APIError writes a pre-built error payload, used for validation
// failures that carry field details.
func (rw *responseWriter) APIError(status int, apiErr *models.APIError) {
	rw.writeJSON(status, models.APIResponse{
		Status:   "error",
		Error:    apiErr,
		Metadata: rw.meta(),
	})
}

func (rw *responseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

func (rw *responseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrCodeNotFound, message)
}

func (rw *responseWriter) Internal(err error) {
	logging.Err(err).Msg("request failed")
	rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "internal error")
}

func (rw *responseWriter) writeJSON(status int, payload models.APIResponse) {
	rw.w.Header().Set("Content-Type", "application/json")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(payload); err != nil {
		logging.Err(err).Msg("failed to encode response")
	}
}
