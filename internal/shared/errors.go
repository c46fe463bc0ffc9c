package shared

import (
	"errors"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/collection"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage turns an error into text that can be shown to the user without leaking
// transport details.
func UserSafeMessage(err error) string {
	var apiErr *apiclient.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, collection.ErrSignInRequired), apiclient.IsUnauthorized(err):
		return collection.SignInMessage
	case errors.Is(err, collection.ErrBusy), errors.Is(err, ErrDuplicateSubmission):
		return "This action is already being processed."
	case errors.Is(err, collection.ErrInvalidRange):
		return "The start date must not be after the end date."
	case errors.As(err, &apiErr):
		if apiErr.Status >= 500 {
			return "The server could not complete the request. Please try again."
		}
		return apiErr.UserMessage()
	case errors.Is(err, apiclient.ErrMalformedResponse):
		return "The server returned an unexpected response. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
