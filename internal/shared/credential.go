package shared

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/coachdesk/coachdesk/internal/apiclient"
)

// Fixed session keys holding the credential issued by the API at sign-in.
const (
	AuthTokenKey = "authToken"
	AuthUserKey  = "authUser"
)

// Roles understood by the dashboard.
const (
	RoleAdmin   = "coaching_admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// AuthUser is the cached profile of the signed-in user.
type AuthUser struct {
	ID            int64  `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email"`
	Role          string `json:"role" validate:"required,oneof=coaching_admin teacher student"`
	InstituteID   int64  `json:"coaching_id"`
	InstituteName string `json:"coaching_name"`
}

// HasRole reports whether the user holds one of roles.
func (u AuthUser) HasRole(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(u.Role, r) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user administers the institute.
func (u AuthUser) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// SignIn stores the token and profile under the fixed keys.
func (s *Session) SignIn(token string, user AuthUser) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("sign in: empty token")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	s.Set(AuthTokenKey, token)
	s.Set(AuthUserKey, string(raw))
	return nil
}

// SignOut forgets the credential.
func (s *Session) SignOut() {
	s.Delete(AuthTokenKey)
	s.Delete(AuthUserKey)
}

// Credential returns the bearer credential held by the session. A nil session yields an
// empty credential.
func (s *Session) Credential() apiclient.Credential {
	return apiclient.Credential{Token: s.Get(AuthTokenKey)}
}

// AuthUser decodes the cached profile.
func (s *Session) AuthUser() (AuthUser, bool) {
	raw := s.Get(AuthUserKey)
	if raw == "" {
		return AuthUser{}, false
	}
	var user AuthUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return AuthUser{}, false
	}
	return user, true
}

// SignedIn reports whether a token is present.
func (s *Session) SignedIn() bool {
	return s.Credential().Valid()
}
