package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"charitymatch/internal/domain"
)

func TestFailMapsErrorKinds(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"not found", fmt.Errorf("%w: donation x", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{"already matched", fmt.Errorf("wrap: %w", domain.ErrAlreadyMatched), http.StatusConflict, "already_matched"},
		{"not eligible", domain.ErrNotEligible, http.StatusUnprocessableEntity, "not_eligible"},
		{"invalid argument", domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"conflict", domain.ErrConflict, http.StatusConflict, "conflict"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			app.fail(rr, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			if rr.Code != tc.wantCode {
				t.Fatalf("status %d, want %d", rr.Code, tc.wantCode)
			}
			var body struct {
				Error struct {
					Kind    string `json:"kind"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Kind != tc.wantKind {
				t.Fatalf("kind %q, want %q", body.Error.Kind, tc.wantKind)
			}
			if tc.wantKind == "internal" && strings.Contains(body.Error.Message, "connection") {
				t.Fatalf("internal error leaked detail: %q", body.Error.Message)
			}
		})
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	var dst reasonRequest

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"x","extra":1}`))
	if app.decode(rr, req, &dst) {
		t.Fatalf("expected unknown field to be rejected")
	}
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if !app.decode(rr, req, &dst) {
		t.Fatalf("empty body should be accepted")
	}
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=x&unread=true", nil)
	if got := queryInt(req, "limit", 20); got != 5 {
		t.Fatalf("limit = %d", got)
	}
	if got := queryInt(req, "bad", 20); got != 20 {
		t.Fatalf("bad int should fall back, got %d", got)
	}
	if !queryBool(req, "unread") || queryBool(req, "missing") {
		t.Fatalf("unexpected bool parsing")
	}
}
