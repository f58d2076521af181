// Package client is the HTTP agent for the activities API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/and161185/activities/internal/api"
	"github.com/and161185/activities/internal/errs"
)

// Error is a classified failure returned by the agent.
type Error struct {
	Status  int // 0 for transport failures
	Kind    api.ErrorKind
	Message string
	Fields  map[string]string
	err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// Unwrap returns the transport error, if any.
func (e *Error) Unwrap() error { return e.err }

// Is matches the sentinel for the failure kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case api.KindNotFound:
		return target == errs.ErrNotFound
	case api.KindConflict:
		return target == errs.ErrAlreadyExists
	case api.KindBadRequest:
		return target == errs.ErrValidation
	case api.KindUnavailable:
		return target == errs.ErrUnavailable
	}
	return false
}

// Agent calls the activities endpoints.
type Agent struct {
	base string
	hc   *http.Client
}

// Option configures an Agent.
type Option func(*Agent)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option { return func(a *Agent) { a.hc = hc } }

// New creates an agent for the server at baseURL.
func New(baseURL string, opts ...Option) *Agent {
	a := &Agent{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// List fetches every activity, ordered by date.
func (a *Agent) List(ctx context.Context) ([]api.ActivityDTO, error) {
	var out []api.ActivityDTO
	if err := a.do(ctx, http.MethodGet, "/activities", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []api.ActivityDTO{}
	}
	return out, nil
}

// Details fetches one activity.
func (a *Agent) Details(ctx context.Context, id string) (api.ActivityDTO, error) {
	var out api.ActivityDTO
	err := a.do(ctx, http.MethodGet, activityPath(id), nil, &out)
	return out, err
}

// Create posts a new activity with its client-assigned id.
func (a *Agent) Create(ctx context.Context, act api.ActivityDTO) error {
	return a.do(ctx, http.MethodPost, "/activities", act, nil)
}

// Update replaces an existing activity.
func (a *Agent) Update(ctx context.Context, act api.ActivityDTO) error {
	return a.do(ctx, http.MethodPut, activityPath(act.ID), act, nil)
}

// Delete removes an activity.
func (a *Agent) Delete(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, activityPath(id), nil, nil)
}

func activityPath(id string) string { return "/activities/" + url.PathEscape(id) }

func (a *Agent) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return &Error{Kind: api.KindUnavailable, Message: "server unreachable", err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Status: resp.StatusCode, Kind: api.KindUnavailable, Message: "malformed response", err: err}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode, Kind: kindForStatus(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}

	var body api.ErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		if body.Kind != "" {
			e.Kind = body.Kind
		}
		if body.Message != "" {
			e.Message = body.Message
		}
		e.Fields = body.Errors
	}
	return e
}

func kindForStatus(status int) api.ErrorKind {
	switch status {
	case http.StatusNotFound:
		return api.KindNotFound
	case http.StatusConflict:
		return api.KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return api.KindBadRequest
	default:
		return api.KindUnavailable
	}
}
