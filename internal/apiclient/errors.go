package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNoCredential is returned before any network call when no bearer token is available.
	ErrNoCredential = errors.New("apiclient: credential missing")
	// ErrMalformedResponse indicates the API answered with a payload that does not match the expected shape.
	ErrMalformedResponse = errors.New("apiclient: malformed response")
)

// Error describes a request the API rejected, either with a non-2xx status or with success=false.
type Error struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("apiclient: status %d: %s", e.Status, msg)
}

// UserMessage flattens the API message and field errors into text suitable for an alert.
func (e *Error) UserMessage() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, len(e.Fields)+1)
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, strings.Join(e.Fields[k], " "))
	}
	if len(parts) == 0 {
		return http.StatusText(e.Status)
	}
	return strings.Join(parts, " ")
}

// IsUnauthorized reports whether err is an API rejection of the credential.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized
	}
	return errors.Is(err, ErrNoCredential)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
