// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the TempleDesk API.
// Handlers are grouped by concern (nodes, slots, bookings, settings, auth)
// and receive their dependencies through the handler struct. Every
// response uses the same JSON envelope; the typed errors from the
// hierarchy engine decide the HTTP status.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"templedesk/internal/hierarchy"
)

// envelope is the uniform JSON response shape.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

// apiError carries a machine-readable code alongside the human message.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// respondError maps an engine error to an HTTP status and writes an error
// envelope. Unknown errors become a 500 with a generic message so internal
// detail never leaks to the caller.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	message := "An unexpected error occurred."

	var (
		validationErr *hierarchy.ValidationError
		notFoundErr   *hierarchy.NotFoundError
		referenceErr  *hierarchy.ReferenceError
		structuralErr *hierarchy.StructuralError
	)
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusUnprocessableEntity
		code = "validation"
		message = validationErr.Error()
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
		code = "not_found"
		message = notFoundErr.Error()
	case errors.As(err, &referenceErr):
		status = http.StatusUnprocessableEntity
		code = "reference"
		message = referenceErr.Error()
	case errors.As(err, &structuralErr):
		status = http.StatusConflict
		code = string(structuralErr.Reason)
		message = structuralErr.Error()
	case errors.Is(err, hierarchy.ErrConflict):
		status = http.StatusInternalServerError
		code = "conflict"
		message = "The operation lost a concurrent update race. Please retry."
	default:
		slog.Error("request failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(envelope{Error: &apiError{Code: code, Message: message}}); encodeErr != nil {
		slog.Error("error response encode failed", "error", encodeErr)
	}
}

// respondUnauthorized writes a 401 envelope.
func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(envelope{Error: &apiError{Code: "unauthorized", Message: message}})
}

// respondNotFound writes a 404 envelope.
func respondNotFound(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(envelope{Error: &apiError{Code: "not_found", Message: message}})
}

// respondBadRequest writes a 400 envelope for malformed request payloads.
func respondBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(envelope{Error: &apiError{Code: "bad_request", Message: message}})
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// urlUUID parses a UUID path parameter from the chi route context.
func urlUUID(r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	return id, err == nil
}
