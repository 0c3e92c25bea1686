package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Request describes one HTTP call to the FocusBuddy API.
type Request struct {
	Method      string
	Path        string // e.g. /study-sessions/, joined onto the base URL
	Query       url.Values
	Body        []byte
	ContentType string // defaults to application/json when Body is set

	// retried marks a request that has already been replayed once after a
	// token refresh. A retried request is never replayed again.
	retried bool
}

// Response is the outcome of a completed HTTP exchange. A Response exists
// even for non-2xx statuses; transport failures return an error instead.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// Transport performs a single HTTP exchange against the remote service.
// Implementations must not retry or interpret statuses; that is the
// client's job.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request, authorization string) (*Response, error)
}

// HTTPTransport is the production Transport. It owns the cookie jar that
// carries the long-lived httponly refresh cookie issued at login.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport returns an HTTPTransport for the given base URL with a
// fresh cookie jar and the given per-request timeout.
func NewHTTPTransport(baseURL string, timeout time.Duration) (*HTTPTransport, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("api: base URL is empty")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// RoundTrip executes the request and reads the full response body.
// authorization, when non-empty, is sent as the Authorization header.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *Request, authorization string) (*Response, error) {
	u := t.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	if len(req.Body) > 0 {
		ct := req.ContentType
		if ct == "" {
			ct = "application/json"
		}
		httpReq.Header.Set("Content-Type", ct)
	}
	if authorization != "" {
		httpReq.Header.Set("Authorization", authorization)
	}
	if rid := requestIDFrom(ctx); rid != "" {
		httpReq.Header.Set("X-Request-ID", rid)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		Status: resp.StatusCode,
		Body:   data,
		Header: resp.Header,
	}, nil
}
