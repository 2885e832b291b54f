package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"templedesk/internal/hierarchy"
)

func TestRespondEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	respond(rec, http.StatusCreated, map[string]string{"name": "Tower A"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status: got %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success {
		t.Error("success envelope must set success=true")
	}
	if env.Error != nil {
		t.Errorf("unexpected error in success envelope: %+v", env.Error)
	}
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &hierarchy.ValidationError{Field: "name", Detail: "name is required"}, http.StatusUnprocessableEntity, "validation"},
		{"not found", &hierarchy.NotFoundError{ID: uuid.New()}, http.StatusNotFound, "not_found"},
		{"reference", &hierarchy.ReferenceError{Field: "parent_id", ID: uuid.New()}, http.StatusUnprocessableEntity, "reference"},
		{"structural cycle", &hierarchy.StructuralError{Reason: hierarchy.ReasonCycle}, http.StatusConflict, "cycle"},
		{"structural children", &hierarchy.StructuralError{Reason: hierarchy.ReasonHasChildren}, http.StatusConflict, "has_children"},
		{"conflict", hierarchy.ErrConflict, http.StatusInternalServerError, "conflict"},
		{"wrapped validation", fmt.Errorf("create: %w", &hierarchy.ValidationError{Field: "code"}), http.StatusUnprocessableEntity, "validation"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tc.wantStatus)
			}
			var env envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Success {
				t.Error("error envelope must set success=false")
			}
			if env.Error == nil {
				t.Fatal("error envelope missing error object")
			}
			if env.Error.Code != tc.wantCode {
				t.Errorf("code: got %q, want %q", env.Error.Code, tc.wantCode)
			}
			if env.Error.Message == "" {
				t.Error("error message must not be empty")
			}
		})
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, errors.New("dial tcp 10.0.0.3:5432: connect: connection refused"))

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Message != "An unexpected error occurred." {
		t.Errorf("internal detail leaked: %q", env.Error.Message)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	body := `{"name": "Tower A", "surprise": true}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(req, &dst); err == nil {
		t.Error("unknown fields must be rejected")
	}
}
