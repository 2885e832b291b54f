// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"templedesk/internal/store"
)

// Settings groups the temple-settings HTTP handlers.
type Settings struct {
	settings *store.SettingStore
}

// NewSettings creates the settings handler group.
func NewSettings(settings *store.SettingStore) *Settings {
	return &Settings{settings: settings}
}

// List returns every setting as a key → value map.
// GET /api/v1/settings
func (h *Settings) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.settings.All(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, all)
}

// Update upserts the submitted settings in one transaction.
// PUT /api/v1/settings
func (h *Settings) Update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}
	if len(req) == 0 {
		respondBadRequest(w, "no settings submitted")
		return
	}
	for key := range req {
		if msg := validateSettingKey(key); msg != "" {
			respondBadRequest(w, msg)
			return
		}
	}
	if err := h.settings.SetMany(r.Context(), req); err != nil {
		respondError(w, err)
		return
	}
	all, err := h.settings.All(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, all)
}
