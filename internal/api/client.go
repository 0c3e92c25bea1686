// Package api implements the authenticated request pipeline for the
// FocusBuddy remote service: bearer credential injection, detection of
// authorization failures, single-flight token refresh with FIFO replay of
// the requests that failed while it ran, and the forced sign-out path when
// no refresh is possible.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"focusbuddy/internal/metrics"
)

const (
	refreshPath = "/auth/refresh"
	logoutPath  = "/auth/logout"
)

// CredentialStore holds the single process-wide bearer credential.
// Absent (empty) means logged out.
type CredentialStore interface {
	// Token returns the current credential, or "" when logged out.
	Token(ctx context.Context) (string, error)
	// SetToken replaces the credential.
	SetToken(ctx context.Context, token string) error
	// Clear removes the credential, reporting whether one was present.
	// Safe to call when already cleared.
	Clear(ctx context.Context) (bool, error)
}

// Client is the authenticated request pipeline. All calls to the remote
// service go through Do; the pipeline is the only component that clears
// the credential, so a forced sign-out is observable exactly once per
// failed refresh no matter how many requests fail concurrently.
type Client struct {
	transport Transport
	creds     CredentialStore
	refresh   coordinator
	log       *slog.Logger
	metrics   *metrics.Metrics

	// onSignInRequired is the router collaborator: invoked when the
	// credential has been cleared and the user must authenticate again.
	onSignInRequired func()
}

// NewClient wires the pipeline. log must be non-nil; m and onSignInRequired
// may be nil.
func NewClient(transport Transport, creds CredentialStore, log *slog.Logger, m *metrics.Metrics, onSignInRequired func()) *Client {
	return &Client{
		transport:        transport,
		creds:            creds,
		log:              log,
		metrics:          m,
		onSignInRequired: onSignInRequired,
	}
}

// Do executes req. Transport failures and non-authorization statuses are
// returned to the caller unchanged (non-2xx as *Error). An authorization
// failure triggers at most one coordinated refresh and one replay; a
// request whose replay also fails authorization is rejected with the
// second failure, and a failure of the refresh itself clears the
// credential and signals sign-in.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if requestIDFrom(ctx) == "" {
		ctx = WithRequestID(ctx, uuid.NewString())
	}
	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("credential read: %w", err)
	}
	authorization := ""
	if token != "" {
		authorization = "Bearer " + token
	}

	resp, err := c.transport.RoundTrip(ctx, req, authorization)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized {
		return resp, nil
	}

	authErr := errorFrom(resp)

	// A 401 from the refresh or logout endpoint is unrecoverable: there is
	// nothing left to exchange for a credential.
	if req.Path == refreshPath || req.Path == logoutPath {
		c.forceSignIn(ctx)
		return nil, authErr
	}

	if req.retried {
		return nil, authErr
	}
	req.retried = true

	c.log.DebugContext(ctx, "authorization failure, entering refresh",
		"method", req.Method, "path", req.Path)

	resp, err = c.refresh.resolve(ctx, req, c.refresher(token), c.replay, authErr)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// replay re-executes a queued request through the full pipeline. The
// request is already marked retried, so a second authorization failure
// surfaces directly instead of triggering another refresh.
func (c *Client) replay(ctx context.Context, req *Request) (*Response, error) {
	c.metrics.Replay()
	return c.do(ctx, req)
}

// refresher returns the refresh step for a request that failed with the
// given stale token. If the stored credential has already moved past the
// stale one, a refresh settled in the meantime and the request can replay
// straight away without issuing another refresh call.
func (c *Client) refresher(stale string) refreshFunc {
	return func(ctx context.Context) error {
		if cur, err := c.creds.Token(ctx); err == nil && cur != "" && cur != stale {
			return nil
		}
		return c.refreshCredential(ctx)
	}
}

// refreshCredential exchanges the httponly refresh cookie for a new access
// token and persists it. Any failure clears the credential and signals
// sign-in; queued requests are then rejected by the coordinator.
func (c *Client) refreshCredential(ctx context.Context) error {
	resp, err := c.do(ctx, &Request{Method: http.MethodPost, Path: refreshPath})
	if err != nil {
		c.metrics.RefreshDone("error")
		c.forceSignIn(ctx)
		return err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		c.metrics.RefreshDone("error")
		c.forceSignIn(ctx)
		return errorFrom(resp)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil || payload.AccessToken == "" {
		c.metrics.RefreshDone("error")
		c.forceSignIn(ctx)
		return fmt.Errorf("refresh: malformed token response")
	}
	if err := c.creds.SetToken(ctx, payload.AccessToken); err != nil {
		c.metrics.RefreshDone("error")
		return fmt.Errorf("credential write: %w", err)
	}
	c.metrics.RefreshDone("ok")
	c.log.InfoContext(ctx, "credential refreshed")
	return nil
}

// forceSignIn clears the credential and, if one was actually present,
// fires the sign-in-required signal. Clearing is idempotent, so two
// concurrent rejected requests produce a single signal.
func (c *Client) forceSignIn(ctx context.Context) {
	cleared, err := c.creds.Clear(ctx)
	if err != nil {
		c.log.ErrorContext(ctx, "credential clear failed", "error", err)
		return
	}
	if cleared {
		c.log.WarnContext(ctx, "credential cleared; sign-in required")
		if c.onSignInRequired != nil {
			c.onSignInRequired()
		}
	}
}

// DoJSON executes req and decodes a 2xx JSON body into out (out may be
// nil to discard the body). Non-2xx responses come back as *Error.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return errorFrom(resp)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

// PostJSON marshals in (when non-nil) and POSTs it to path, decoding the
// response into out per DoJSON.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	req := &Request{Method: http.MethodPost, Path: path}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		req.Body = body
	}
	return c.DoJSON(ctx, req, out)
}

// GetJSON issues a GET for path with optional query values, decoding the
// response into out per DoJSON.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.DoJSON(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// PostForm posts form-encoded values (the OAuth2 password grant shape of
// /auth/token), decoding the response into out per DoJSON.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	req := &Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}
	return c.DoJSON(ctx, req, out)
}

// DeleteJSON issues a DELETE with an optional JSON body.
func (c *Client) DeleteJSON(ctx context.Context, path string, in, out any) error {
	req := &Request{Method: http.MethodDelete, Path: path}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		req.Body = body
	}
	return c.DoJSON(ctx, req, out)
}

// JoinPath builds a request path from segments, escaping each one.
func JoinPath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}
