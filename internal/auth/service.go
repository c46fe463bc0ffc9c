package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/shared"
)

// LoginEndpoint exchanges email and password for a bearer token.
const LoginEndpoint = "/login"

// Doer is the slice of the API client sign-in needs.
type Doer interface {
	Do(ctx context.Context, cred apiclient.Credential, req apiclient.Request, out any) error
}

// Service signs users in against the institute API.
type Service struct {
	api Doer
}

// NewService constructs a new Service.
func NewService(api Doer) *Service {
	return &Service{api: api}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token" validate:"required"`
	User  shared.AuthUser `json:"user"`
}

// Authenticate validates email/password credentials with the API. Rejections by the API come
// back as shared.ErrInvalidCredentials wrapping the API error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, shared.AuthUser, error) {
	var out loginResponse
	err := s.api.Do(ctx, apiclient.Credential{}, apiclient.Request{
		Method:    http.MethodPost,
		Path:      LoginEndpoint,
		Body:      loginRequest{Email: email, Password: password},
		Anonymous: true,
	}, &out)
	if err != nil {
		switch apiclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusUnprocessableEntity, http.StatusForbidden:
			return "", shared.AuthUser{}, errors.Join(shared.ErrInvalidCredentials, err)
		}
		return "", shared.AuthUser{}, err
	}
	return out.Token, out.User, nil
}
