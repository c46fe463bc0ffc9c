// Package pagestest wires page handlers against a fake institute API and an in-memory Redis.
package pagestest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/rbac"
	"github.com/coachdesk/coachdesk/internal/shared"
	"github.com/coachdesk/coachdesk/internal/view"
)

// Harness holds one signed-in browser against page handlers.
type Harness struct {
	t         *testing.T
	Base      *pages.Base
	Sessions  *shared.SessionManager
	Registry  *collection.Registry
	Redis     *redis.Client
	Miniredis *miniredis.Miniredis
	APIServer *httptest.Server
	Stats     *StatsRecorder
	RBAC      rbac.Middleware

	sessionID string
	Session   *shared.Session
}

// StatsRecorder counts cache invalidations.
type StatsRecorder struct {
	mu    sync.Mutex
	Calls int
}

// Invalidate implements pages.Invalidator.
func (s *StatsRecorder) Invalidate(context.Context, shared.AuthUser) {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
}

// Count returns the number of invalidations.
func (s *StatsRecorder) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

// New starts a fake API served by api and builds the page dependencies around it.
func New(t *testing.T, api http.Handler) *Harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	templates, err := view.NewEngine()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := collection.NewRegistry(time.Hour)
	stats := &StatsRecorder{}
	base := pages.NewBase(
		logger,
		templates,
		shared.NewCSRFManager("test-secret"),
		registry,
		apiclient.New(server.URL, 5*time.Second),
		shared.NewIdempotencyStore(client, time.Minute),
		stats,
	)
	return &Harness{
		t:         t,
		Base:      base,
		Sessions:  shared.NewSessionManager(client, "coachdesk_test", time.Hour, false),
		Registry:  registry,
		Redis:     client,
		Miniredis: mr,
		APIServer: server,
		Stats:     stats,
		RBAC:      rbac.Middleware{Logger: logger},
	}
}

// SignIn stores a credential for role in a fresh session.
func (h *Harness) SignIn(role string) shared.AuthUser {
	h.t.Helper()
	ctx := context.Background()
	sess, err := h.Sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(h.t, err)
	user := shared.AuthUser{ID: 11, Name: "Kavya Rao", Email: "kavya@example.com", Role: role, InstituteID: 3, InstituteName: "Bright Minds"}
	require.NoError(h.t, sess.SignIn("test-token", user))
	require.NoError(h.t, h.Sessions.Commit(ctx, httptest.NewRecorder(), sess))
	h.sessionID = sess.ID
	h.Session = sess
	return user
}

// Router mounts routes under prefix behind RequireSignIn, as the application router does.
func (h *Harness) Router(prefix string, mount func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(h.RBAC.RequireSignIn)
		r.Route(prefix, mount)
	})
	return r
}

// Get issues a GET carrying the session cookie.
func (h *Harness) Get(handler http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return h.serve(handler, req)
}

// Post submits form with the session cookie.
func (h *Harness) Post(handler http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.serve(handler, req)
}

// Serve runs an arbitrary request with the session cookie.
func (h *Harness) Serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.serve(handler, req)
}

func (h *Harness) serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	ctx := context.Background()
	if h.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: h.Sessions.CookieName(), Value: h.sessionID})
	}
	sess, err := h.Sessions.Load(ctx, req)
	require.NoError(h.t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.NoError(h.t, h.Sessions.Commit(ctx, httptest.NewRecorder(), sess))
	h.sessionID = sess.ID
	h.Session = sess
	return rec
}

// Flash pops the next flash message of the session, if any.
func (h *Harness) Flash() *shared.FlashMessage {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: h.Sessions.CookieName(), Value: h.sessionID})
	sess, err := h.Sessions.Load(context.Background(), req)
	require.NoError(h.t, err)
	flash := sess.PopFlash()
	require.NoError(h.t, h.Sessions.Commit(context.Background(), httptest.NewRecorder(), sess))
	return flash
}

// Respond writes the API success envelope.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data})
}

// Reject writes an API failure envelope.
func Reject(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message, "errors": fields})
}

// Page builds a list payload under key.
func Page(key string, items any, page, perPage, total int) map[string]any {
	return map[string]any{
		key: items,
		"pagination": map[string]int{
			"current_page": page,
			"per_page":     perPage,
			"total":        total,
		},
	}
}

// DecodeBody reads a JSON request body sent to the fake API. A body that is not a JSON
// object yields an empty map.
func DecodeBody(r *http.Request) map[string]any {
	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}
