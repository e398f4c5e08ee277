package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"charitymatch/internal/adapter/memstore"
	"charitymatch/internal/domain"
	"charitymatch/internal/feedback"
	"charitymatch/internal/http/handlers"
	"charitymatch/internal/lifecycle"
	"charitymatch/internal/matching"
	"charitymatch/internal/middleware"
	"charitymatch/internal/notify"
)

const testSecret = "router-test-secret"

type testClient struct {
	t       *testing.T
	handler http.Handler
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	logger := zerolog.Nop()
	store := memstore.New()
	dispatcher := notify.NewDispatcher(store, logger)
	donations := lifecycle.NewDonationRegistry(store, dispatcher, logger)
	requests := lifecycle.NewRequestRegistry(store, dispatcher, logger)
	app := &handlers.App{
		Donations:     donations,
		Requests:      requests,
		Interests:     lifecycle.NewInterestRegistry(store, dispatcher, logger),
		Matches:       matching.NewEngine(store, donations, requests, dispatcher, logger),
		Notifications: dispatcher,
		Feedback:      feedback.NewService(store, dispatcher, logger, feedback.DefaultWindow),
		Relay:         notify.NewRelay(store, dispatcher, logger),
		Logger:        logger,
	}
	return &testClient{t: t, handler: NewRouter(app, Options{JWTSecret: testSecret})}
}

func (c *testClient) do(method, path, userID string, role domain.UserRole, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := middleware.SignJWT(testSecret, userID, role, time.Hour)
		if err != nil {
			c.t.Fatalf("sign token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			c.t.Fatalf("%s %s: decode response %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr.Code, out
}

func (c *testClient) expect(want int, method, path, userID string, role domain.UserRole, body any) map[string]any {
	c.t.Helper()
	code, out := c.do(method, path, userID, role, body)
	if code != want {
		c.t.Fatalf("%s %s: status %d, want %d (body %v)", method, path, code, want, out)
	}
	return out
}

func errorKind(out map[string]any) string {
	e, _ := out["error"].(map[string]any)
	kind, _ := e["kind"].(string)
	return kind
}

const (
	donor    = "donor-1"
	receiver = "receiver-1"
	admin    = "admin-1"
	user     = domain.UserRoleUser
	root     = domain.UserRoleAdmin
)

func TestHealthIsPublic(t *testing.T) {
	c := newTestClient(t)
	out := c.expect(http.StatusOK, http.MethodGet, "/v1/healthz", "", "", nil)
	if out["status"] != "ok" {
		t.Fatalf("unexpected health payload %v", out)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newTestClient(t)
	c.expect(http.StatusUnauthorized, http.MethodGet, "/v1/notifications", "", "", nil)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	c := newTestClient(t)
	out := c.expect(http.StatusForbidden, http.MethodGet, "/v1/admin/stats", donor, user, nil)
	if errorKind(out) != "forbidden" {
		t.Fatalf("expected forbidden kind, got %v", out)
	}
}

func TestMatchLifecycleOverHTTP(t *testing.T) {
	c := newTestClient(t)

	d := c.expect(http.StatusCreated, http.MethodPost, "/v1/donations", donor, user,
		map[string]any{"item_name": "winter coat", "category": "clothing", "quantity": 2})
	rq := c.expect(http.StatusCreated, http.MethodPost, "/v1/requests", receiver, user,
		map[string]any{"item_name": "winter coat", "category": "clothing", "quantity": 1})
	donationID := d["id"].(string)
	requestID := rq["id"].(string)
	if d["status"] != "pending" {
		t.Fatalf("new donation should be pending, got %v", d["status"])
	}

	// matching before approval is not eligible
	out := c.expect(http.StatusUnprocessableEntity, http.MethodPost, "/v1/admin/matches", admin, root,
		map[string]any{"donation_id": donationID, "request_id": requestID})
	if errorKind(out) != "not_eligible" {
		t.Fatalf("expected not_eligible, got %v", out)
	}

	c.expect(http.StatusOK, http.MethodPost, "/v1/admin/donations/"+donationID+"/approve", admin, root, nil)
	c.expect(http.StatusOK, http.MethodPost, "/v1/admin/requests/"+requestID+"/approve", admin, root, nil)

	// approving twice is an invalid transition
	out = c.expect(http.StatusConflict, http.MethodPost, "/v1/admin/donations/"+donationID+"/approve", admin, root, nil)
	if errorKind(out) != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %v", out)
	}

	m := c.expect(http.StatusCreated, http.MethodPost, "/v1/admin/matches", admin, root,
		map[string]any{"donation_id": donationID, "request_id": requestID})
	matchID := m["id"].(string)
	if m["donor_id"] != donor || m["receiver_id"] != receiver {
		t.Fatalf("unexpected participants %v", m)
	}

	out = c.expect(http.StatusConflict, http.MethodPost, "/v1/admin/matches", admin, root,
		map[string]any{"donation_id": donationID, "request_id": requestID})
	if errorKind(out) != "already_matched" {
		t.Fatalf("expected already_matched, got %v", out)
	}

	// completing before execution is out of order
	c.expect(http.StatusConflict, http.MethodPost, "/v1/admin/matches/"+matchID+"/complete", admin, root, nil)

	// feedback before completion is not eligible
	c.expect(http.StatusUnprocessableEntity, http.MethodPost, "/v1/matches/"+matchID+"/feedback", donor, user,
		map[string]any{"rating": 5})

	c.expect(http.StatusOK, http.MethodPost, "/v1/admin/matches/"+matchID+"/execute", admin, root, nil)
	done := c.expect(http.StatusOK, http.MethodPost, "/v1/admin/matches/"+matchID+"/complete", admin, root, nil)
	if done["status"] != "completed" {
		t.Fatalf("expected completed match, got %v", done["status"])
	}

	got := c.expect(http.StatusOK, http.MethodGet, "/v1/donations/"+donationID, donor, user, nil)
	if got["status"] != "completed" {
		t.Fatalf("donation should be completed, got %v", got["status"])
	}
	c.expect(http.StatusForbidden, http.MethodGet, "/v1/donations/"+donationID, receiver, user, nil)

	eligible := c.expect(http.StatusOK, http.MethodGet, "/v1/feedback/eligible", donor, user, nil)
	if items, _ := eligible["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one eligible match, got %v", eligible)
	}

	out = c.expect(http.StatusBadRequest, http.MethodPost, "/v1/matches/"+matchID+"/feedback", donor, user,
		map[string]any{"rating": 6})
	if errorKind(out) != "invalid_argument" {
		t.Fatalf("expected invalid_argument, got %v", out)
	}

	fb := c.expect(http.StatusCreated, http.MethodPost, "/v1/matches/"+matchID+"/feedback", donor, user,
		map[string]any{"rating": 5, "comment": "smooth handover"})
	if fb["role"] != "donor" || fb["status"] != "pending" {
		t.Fatalf("unexpected feedback %v", fb)
	}
	out = c.expect(http.StatusConflict, http.MethodPost, "/v1/matches/"+matchID+"/feedback", donor, user,
		map[string]any{"rating": 4})
	if errorKind(out) != "conflict" {
		t.Fatalf("expected conflict, got %v", out)
	}

	c.expect(http.StatusOK, http.MethodPost, "/v1/admin/feedback/"+fb["id"].(string)+"/feature", admin, root, nil)
	published := c.expect(http.StatusOK, http.MethodGet, "/v1/feedback/published", "", "", nil)
	if items, _ := published["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one published feedback, got %v", published)
	}

	stats := c.expect(http.StatusOK, http.MethodGet, "/v1/admin/stats", admin, root, nil)
	matches := stats["matches"].(map[string]any)
	if matches["completed"].(float64) != 1 || matches["approved"].(float64) != 0 {
		t.Fatalf("unexpected match counts %v", matches)
	}
}

func TestNotificationsOverHTTP(t *testing.T) {
	c := newTestClient(t)

	d := c.expect(http.StatusCreated, http.MethodPost, "/v1/donations", donor, user,
		map[string]any{"item_name": "rice", "category": "food", "quantity": 10})
	c.expect(http.StatusOK, http.MethodPost, "/v1/admin/donations/"+d["id"].(string)+"/approve", admin, root, nil)

	list := c.expect(http.StatusOK, http.MethodGet, "/v1/notifications?unread=true", donor, user, nil)
	items, _ := list["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one notification, got %v", list)
	}
	n := items[0].(map[string]any)
	if n["type"] != "donation_approved" {
		t.Fatalf("unexpected notification type %v", n["type"])
	}
	id := n["id"].(string)

	out := c.expect(http.StatusForbidden, http.MethodPost, "/v1/notifications/"+id+"/read", receiver, user, nil)
	if errorKind(out) != "forbidden" {
		t.Fatalf("expected forbidden, got %v", out)
	}
	c.expect(http.StatusNotFound, http.MethodPost, "/v1/notifications/missing/read", donor, user, nil)

	read := c.expect(http.StatusOK, http.MethodPost, "/v1/notifications/"+id+"/read", donor, user, nil)
	if read["read"] != true {
		t.Fatalf("expected notification to be read, got %v", read)
	}
	count := c.expect(http.StatusOK, http.MethodGet, "/v1/notifications/unread-count", donor, user, nil)
	if count["unread"].(float64) != 0 {
		t.Fatalf("expected zero unread, got %v", count)
	}
	cleared := c.expect(http.StatusOK, http.MethodDelete, "/v1/notifications", donor, user, nil)
	if cleared["deleted"].(float64) != 1 {
		t.Fatalf("expected one deleted, got %v", cleared)
	}
}

func TestBulkApproveReportsPerItem(t *testing.T) {
	c := newTestClient(t)

	d := c.expect(http.StatusCreated, http.MethodPost, "/v1/donations", donor, user,
		map[string]any{"item_name": "books", "category": "education", "quantity": 5})
	out := c.expect(http.StatusOK, http.MethodPost, "/v1/admin/donations/bulk-approve", admin, root,
		map[string]any{"ids": []string{d["id"].(string), "missing"}})

	results := out["results"].([]any)
	if len(results) != 2 || out["failed"].(float64) != 1 {
		t.Fatalf("unexpected bulk result %v", out)
	}
	first := results[0].(map[string]any)
	second := results[1].(map[string]any)
	if first["ok"] != true || second["ok"] != false {
		t.Fatalf("unexpected per-item outcome %v", results)
	}
	if errorKind(second) != "not_found" {
		t.Fatalf("expected not_found for missing id, got %v", second)
	}

	counts := c.expect(http.StatusOK, http.MethodGet, "/v1/admin/donations/counts", admin, root, nil)
	byStatus := counts["counts"].(map[string]any)
	if len(byStatus) != len(domain.ListingStatuses) || byStatus["approved"].(float64) != 1 {
		t.Fatalf("unexpected counts %v", byStatus)
	}
}

func TestInterestMatchOverHTTP(t *testing.T) {
	c := newTestClient(t)

	rq := c.expect(http.StatusCreated, http.MethodPost, "/v1/requests", receiver, user,
		map[string]any{"item_name": "wheelchair", "category": "medical", "quantity": 1})
	requestID := rq["id"].(string)

	out := c.expect(http.StatusUnprocessableEntity, http.MethodPost, "/v1/requests/"+requestID+"/interests", donor, user,
		map[string]any{"note": "I have one"})
	if errorKind(out) != "not_eligible" {
		t.Fatalf("expected not_eligible before approval, got %v", out)
	}

	c.expect(http.StatusOK, http.MethodPost, "/v1/admin/requests/"+requestID+"/approve", admin, root, nil)
	in := c.expect(http.StatusCreated, http.MethodPost, "/v1/requests/"+requestID+"/interests", donor, user,
		map[string]any{"note": "I have one"})
	c.expect(http.StatusConflict, http.MethodPost, "/v1/requests/"+requestID+"/interests", donor, user, nil)

	interests := c.expect(http.StatusOK, http.MethodGet, "/v1/requests/"+requestID+"/interests", receiver, user, nil)
	if items, _ := interests["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one interest, got %v", interests)
	}
	c.expect(http.StatusForbidden, http.MethodGet, "/v1/requests/"+requestID+"/interests", "stranger", user, nil)

	interestID := in["id"].(string)
	c.expect(http.StatusUnprocessableEntity, http.MethodPost, "/v1/admin/matches", admin, root,
		map[string]any{"interest_id": interestID})
	c.expect(http.StatusOK, http.MethodPost, "/v1/admin/interests/"+interestID+"/approve", admin, root, nil)
	m := c.expect(http.StatusCreated, http.MethodPost, "/v1/admin/matches", admin, root,
		map[string]any{"interest_id": interestID})
	if m["type"] != "interest" || m["interest_id"] != interestID {
		t.Fatalf("unexpected match %v", m)
	}

	c.expect(http.StatusBadRequest, http.MethodPost, "/v1/admin/matches", admin, root,
		map[string]any{"interest_id": interestID, "donation_id": "d"})
}
