package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/shared"
)

func sessionRequest(t *testing.T, sess *shared.Session, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func signedSession(t *testing.T, token, role string) *shared.Session {
	t.Helper()
	sess := &shared.Session{ID: "s1"}
	if token != "" {
		require.NoError(t, sess.SignIn(token, shared.AuthUser{ID: 1, Name: "Asha", Role: role}))
	}
	return sess
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestRequireSignInRedirectsAnonymous(t *testing.T) {
	mw := Middleware{}
	rec := httptest.NewRecorder()
	mw.RequireSignIn(ok).ServeHTTP(rec, sessionRequest(t, signedSession(t, "", ""), "/fees?month=2026-10"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Ffees%3Fmonth%3D2026-10", rec.Header().Get("Location"))
}

func TestRequireSignInRejectsExpiredToken(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	sess := signedSession(t, token, shared.RoleAdmin)
	mw := Middleware{Now: func() time.Time { return now }}
	req := sessionRequest(t, sess, "/students")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	mw.RequireSignIn(ok).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, sess.SignedIn())
}

func TestRequireSignInPassesValidToken(t *testing.T) {
	rec := httptest.NewRecorder()
	Middleware{}.RequireSignIn(ok).ServeHTTP(rec, sessionRequest(t, signedSession(t, "opaque", shared.RoleTeacher), "/"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireRole(t *testing.T) {
	mw := Middleware{}
	guard := mw.RequireRole(shared.RoleAdmin)

	rec := httptest.NewRecorder()
	guard(ok).ServeHTTP(rec, sessionRequest(t, signedSession(t, "t", shared.RoleTeacher), "/expenses"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	guard(ok).ServeHTTP(rec, sessionRequest(t, signedSession(t, "t", shared.RoleAdmin), "/expenses"))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	guard(ok).ServeHTTP(rec, sessionRequest(t, signedSession(t, "", ""), "/expenses"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
