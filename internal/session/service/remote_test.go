package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"focusbuddy/internal/api"
	"focusbuddy/internal/credential"
)

type fakeRoundTripper struct {
	lastPath string
	lastBody []byte
	body     string
}

func (t *fakeRoundTripper) RoundTrip(ctx context.Context, req *api.Request, authorization string) (*api.Response, error) {
	t.lastPath = req.Path
	t.lastBody = req.Body
	return &api.Response{Status: http.StatusOK, Body: []byte(t.body)}, nil
}

func newTestRemote(tr *fakeRoundTripper) *Remote {
	creds := credential.NewMemoryStore()
	_ = creds.SetToken(context.Background(), "tok-1")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRemote(api.NewClient(tr, creds, log, nil, func() {}))
}

func TestLastActive_NullMeansNoSession(t *testing.T) {
	tr := &fakeRoundTripper{body: `null`}
	r := newTestRemote(tr)

	s, err := r.LastActive(context.Background())
	if err != nil {
		t.Fatalf("LastActive: %v", err)
	}
	if s != nil {
		t.Errorf("session = %+v, want nil", s)
	}
	if tr.lastPath != "/study-sessions/last-active-session" {
		t.Errorf("path = %s", tr.lastPath)
	}
}

func TestLastActive_ParsesNaiveTimestamps(t *testing.T) {
	tr := &fakeRoundTripper{body: `{"_id":"sess-4","user":"u1","start_time":"2026-08-30T09:15:00.123456","is_paused":false}`}
	r := newTestRemote(tr)

	s, err := r.LastActive(context.Background())
	if err != nil {
		t.Fatalf("LastActive: %v", err)
	}
	if s == nil || s.ID != "sess-4" {
		t.Fatalf("session = %+v, want sess-4", s)
	}
	if s.StartTime.IsZero() {
		t.Error("start_time did not parse")
	}
}

func TestComplete_SendsFinalNumbers(t *testing.T) {
	tr := &fakeRoundTripper{body: `{}`}
	r := newTestRemote(tr)

	if err := r.Complete(context.Background(), "sess-4", 22, 1, "good run"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if tr.lastPath != "/study-sessions/sess-4/complete" {
		t.Errorf("path = %s", tr.lastPath)
	}
	var body struct {
		ActualDuration      int     `json:"actual_duration"`
		DistractionsBlocked int     `json:"distractions_blocked"`
		Notes               *string `json:"notes"`
	}
	if err := json.Unmarshal(tr.lastBody, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ActualDuration != 22 || body.DistractionsBlocked != 1 {
		t.Errorf("body = %+v, want 22/1", body)
	}
	if body.Notes == nil || *body.Notes != "good run" {
		t.Errorf("notes = %v, want good run", body.Notes)
	}
}

func TestComplete_EmptyNotesOmitted(t *testing.T) {
	tr := &fakeRoundTripper{body: `{}`}
	r := newTestRemote(tr)

	if err := r.Complete(context.Background(), "sess-4", 25, 0, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(tr.lastBody, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["notes"] != nil {
		t.Errorf("notes = %v, want null", body["notes"])
	}
}
