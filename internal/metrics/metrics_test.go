package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.RefreshDone("ok")
	m.Replay()
	m.Heartbeat(true)
	if m.Handler() == nil {
		t.Error("nil Metrics Handler returned nil")
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.RefreshDone("ok")
	m.RefreshDone("error")
	m.Replay()
	m.Heartbeat(false)
	m.Heartbeat(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`focusbuddy_token_refresh_total{result="ok"} 1`,
		`focusbuddy_token_refresh_total{result="error"} 1`,
		"focusbuddy_request_replays_total 1",
		"focusbuddy_session_heartbeats_total 2",
		"focusbuddy_session_heartbeat_failures_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
