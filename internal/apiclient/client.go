// Package apiclient talks to the institute REST API on behalf of a signed-in user.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const maxResponseBytes = 8 << 20

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is encoded as JSON when set.
	Body any
	// Upload switches the body to multipart/form-data.
	Upload *Upload
	// Anonymous calls (sign-in) skip the credential check.
	Anonymous bool
}

// Upload carries a single file plus plain form fields.
type Upload struct {
	Field    string
	FileName string
	Content  io.Reader
	Fields   map[string]string
}

// Observer receives one observation per completed upstream call.
type Observer interface {
	ObserveUpstream(method, endpoint string, status int, elapsed time.Duration)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver registers a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client wraps the institute API with envelope decoding and record validation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	observer   Observer
}

type envelope struct {
	Success *bool               `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

// New constructs a Client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues req and decodes the envelope's data member into out. out may be nil when the
// caller does not need the payload (deletes).
func (c *Client) Do(ctx context.Context, cred Credential, req Request, out any) error {
	if !req.Anonymous && !cred.Valid() {
		return ErrNoCredential
	}
	httpReq, err := c.newRequest(ctx, cred, req)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(httpReq.Method, req.Path, 0, start)
		return fmt.Errorf("apiclient: %s %s: %w", httpReq.Method, req.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(httpReq.Method, req.Path, resp.StatusCode, start)

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("apiclient: read %s: %w", req.Path, err)
	}

	var env envelope
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &env); err != nil {
			if resp.StatusCode >= http.StatusBadRequest {
				return &Error{Status: resp.StatusCode}
			}
			return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, req.Path, err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}
	if env.Success != nil && !*env.Success {
		return &Error{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: %s: data missing", ErrMalformedResponse, req.Path)
	}
	return c.Decode(env.Data, out)
}

// Decode unmarshals raw into out and validates struct records against their validate tags.
func (c *Client) Decode(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return c.Validate(out)
}

// Validate checks a decoded record. Non-struct values pass through untouched.
func (c *Client) Validate(v any) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
}

func (c *Client) newRequest(ctx context.Context, cred Credential, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Upload != nil:
		buf, ct, err := encodeUpload(req.Upload)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.Body != nil:
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if cred.Valid() {
		httpReq.Header.Set("Authorization", "Bearer "+cred.Token)
	}
	return httpReq, nil
}

func encodeUpload(u *Upload) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range u.Fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if u.Content != nil {
		field := u.Field
		if field == "" {
			field = "file"
		}
		part, err := writer.CreateFormFile(field, u.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, u.Content); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func (c *Client) observe(method, path string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(method, EndpointLabel(path), status, time.Since(start))
}

// EndpointLabel collapses identifier segments so metric labels stay bounded:
// "/students/42/status" becomes "/students/:id/status".
func EndpointLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if isIdentifier(seg) {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func isIdentifier(seg string) bool {
	if seg == "" {
		return false
	}
	digits := 0
	for _, r := range seg {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-' || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F'):
		default:
			return false
		}
	}
	return digits == len(seg) || (len(seg) == 36 && strings.Count(seg, "-") == 4)
}
