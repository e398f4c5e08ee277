package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"charitymatch/internal/domain"
	"charitymatch/internal/feedback"
	"charitymatch/internal/lifecycle"
	"charitymatch/internal/matching"
	"charitymatch/internal/middleware"
	"charitymatch/internal/notify"
)

const maxBodyBytes = 1 << 20

// App bundles the services exposed over HTTP.
type App struct {
	Donations     *lifecycle.Registry
	Requests      *lifecycle.Registry
	Interests     *lifecycle.InterestRegistry
	Matches       *matching.Engine
	Notifications *notify.Dispatcher
	Feedback      *feedback.Service
	Relay         *notify.Relay
	Logger        zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, msg string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"kind": kind, "message": msg},
	})
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindInvalidTransition: http.StatusConflict,
	domain.KindAlreadyMatched:    http.StatusConflict,
	domain.KindNotEligible:       http.StatusUnprocessableEntity,
	domain.KindInvalidArgument:   http.StatusBadRequest,
	domain.KindForbidden:         http.StatusForbidden,
	domain.KindConflict:          http.StatusConflict,
}

// fail writes err using its domain kind. Errors without a kind are logged
// and reported as internal.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	code, ok := kindStatus[kind]
	if !ok {
		a.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, string(domain.KindInternal), "internal error")
		return
	}
	a.error(w, code, string(kind), err.Error())
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

// decode reads a JSON body. An empty body leaves dst untouched.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, string(domain.KindInvalidArgument), "invalid payload")
		return false
	}
	return true
}

func (a *App) caller(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	c, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
	}
	return c, ok
}

func pathID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type bulkItem struct {
	ID    string            `json:"id"`
	OK    bool              `json:"ok"`
	Value any               `json:"value,omitempty"`
	Error map[string]string `json:"error,omitempty"`
}

func bulkView[T any](results []lifecycle.BulkResult[T], view func(*T) any) []bulkItem {
	out := make([]bulkItem, 0, len(results))
	for _, res := range results {
		item := bulkItem{ID: res.ID, OK: res.Err == nil}
		if res.Err != nil {
			item.Error = map[string]string{"kind": string(domain.KindOf(res.Err)), "message": res.Err.Error()}
		} else if res.Value != nil {
			item.Value = view(res.Value)
		}
		out = append(out, item)
	}
	return out
}
