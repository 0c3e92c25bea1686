package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSignedOut is returned once the credential has been cleared and the
// caller must re-authenticate.
var ErrSignedOut = errors.New("signed out; credential cleared")

// Error is a non-2xx response from the remote service, carrying the
// server-supplied detail message when one was present.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// IsAuthFailure reports whether err is an authorization failure (HTTP 401).
// Transport failures and other statuses are never auth failures.
func IsAuthFailure(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// errorFrom builds an *Error from a non-2xx response, extracting the
// FastAPI-style {"detail": "..."} body when present.
func errorFrom(resp *Response) *Error {
	e := &Error{Status: resp.Status}
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(resp.Body, &payload) == nil {
		e.Detail = payload.Detail
	}
	return e
}
