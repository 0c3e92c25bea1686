package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"focusbuddy/internal/api"
	"focusbuddy/internal/session/domain"
	"focusbuddy/internal/state"
)

// fakeAPI records every call in order so tests can assert on sequencing,
// in particular that no heartbeat lands after a pause or complete call.
type fakeAPI struct {
	mu  sync.Mutex
	ops []string

	heartbeatErr error
	pauseErr     error
	resumeErr    error
	completeErr  error

	last    *domain.StudySession
	lastErr error
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
}

func (f *fakeAPI) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}

func (f *fakeAPI) count(op string) int {
	n := 0
	for _, o := range f.recorded() {
		if o == op {
			n++
		}
	}
	return n
}

func (f *fakeAPI) Create(ctx context.Context, tasks []domain.Task, plannedDuration int) (*domain.StudySession, error) {
	f.record("create")
	return &domain.StudySession{
		ID:              "sess-1",
		UserID:          "u-1",
		Tasks:           tasks,
		PlannedDuration: plannedDuration,
		StartTime:       api.Timestamp{Time: time.Now().UTC()},
	}, nil
}

func (f *fakeAPI) Heartbeat(ctx context.Context, sessionID string) error {
	f.record("heartbeat")
	return f.heartbeatErr
}

func (f *fakeAPI) Pause(ctx context.Context, sessionID string) error {
	f.record("pause")
	return f.pauseErr
}

func (f *fakeAPI) Resume(ctx context.Context, sessionID string) error {
	f.record("resume")
	return f.resumeErr
}

func (f *fakeAPI) Complete(ctx context.Context, sessionID string, actualDuration, distractionsBlocked int, notes string) error {
	f.record("complete")
	return f.completeErr
}

func (f *fakeAPI) LastActive(ctx context.Context) (*domain.StudySession, error) {
	f.record("last-active")
	return f.last, f.lastErr
}

func (f *fakeAPI) List(ctx context.Context) ([]domain.StudySession, error) {
	return nil, nil
}

func (f *fakeAPI) Get(ctx context.Context, sessionID string) (*domain.StudySession, error) {
	return nil, nil
}

type fakeUsers struct {
	fetches atomic.Int32
}

func (f *fakeUsers) FetchUser(ctx context.Context) error {
	f.fetches.Add(1)
	return nil
}

func newController(remote API, users UserRefresher, interval time.Duration) (*Controller, *state.Store) {
	st := state.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewController(remote, st, users, interval, log, nil), st
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStart_CreatesSessionAndHeartbeats(t *testing.T) {
	remote := &fakeAPI{}
	c, st := newController(remote, &fakeUsers{}, 5*time.Millisecond)
	defer c.Close()

	s, err := c.Start(context.Background(), []domain.Task{{Name: "math", Duration: 25}}, 25)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.ID != "sess-1" {
		t.Errorf("session ID = %q, want sess-1", s.ID)
	}
	if got := st.Snapshot().Session; got == nil || got.ID != "sess-1" {
		t.Errorf("state session = %+v, want sess-1", got)
	}
	waitFor(t, func() bool { return remote.count("heartbeat") >= 2 }, "no heartbeats after start")
}

func TestStart_SecondSessionRejected(t *testing.T) {
	remote := &fakeAPI{}
	c, _ := newController(remote, &fakeUsers{}, time.Hour)
	defer c.Close()

	if _, err := c.Start(context.Background(), nil, 25); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if _, err := c.Start(context.Background(), nil, 30); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second Start err = %v, want ErrSessionActive", err)
	}
	if got := remote.count("create"); got != 1 {
		t.Errorf("create calls = %d, want 1", got)
	}
}

func TestPause_NoHeartbeatAfterPauseSent(t *testing.T) {
	remote := &fakeAPI{}
	c, st := newController(remote, &fakeUsers{}, time.Millisecond)
	defer c.Close()

	if _, err := c.Start(context.Background(), nil, 25); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return remote.count("heartbeat") >= 3 }, "no heartbeats before pause")

	if err := c.Pause(context.Background()); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	// Give stray ticks every chance to fire.
	time.Sleep(20 * time.Millisecond)

	ops := remote.recorded()
	pauseIdx := -1
	for i, op := range ops {
		if op == "pause" {
			pauseIdx = i
		}
	}
	if pauseIdx < 0 {
		t.Fatal("pause was never sent")
	}
	for _, op := range ops[pauseIdx+1:] {
		if op == "heartbeat" {
			t.Fatalf("heartbeat issued after pause: %v", ops)
		}
	}

	if got := st.Snapshot().Session; got == nil || !got.IsPaused || got.PausedAt == nil {
		t.Errorf("state session after pause = %+v, want paused with PausedAt set", got)
	}
}

func TestPause_ServerFailureRestartsHeartbeat(t *testing.T) {
	remote := &fakeAPI{pauseErr: errors.New("boom")}
	c, st := newController(remote, &fakeUsers{}, 2*time.Millisecond)
	defer c.Close()

	if _, err := c.Start(context.Background(), nil, 25); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Pause(context.Background()); err == nil {
		t.Fatal("Pause succeeded, want error")
	}
	if got := st.Snapshot().Session; got == nil || got.IsPaused {
		t.Errorf("state session after failed pause = %+v, want still running", got)
	}

	before := remote.count("heartbeat")
	waitFor(t, func() bool { return remote.count("heartbeat") > before }, "heartbeats did not resume after failed pause")
}

func TestPause_Preconditions(t *testing.T) {
	remote := &fakeAPI{}
	c, _ := newController(remote, &fakeUsers{}, time.Hour)
	defer c.Close()

	if err := c.Pause(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Pause with no session err = %v, want ErrNoSession", err)
	}
	if _, err := c.Start(context.Background(), nil, 25); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Resume(context.Background()); !errors.Is(err, ErrNotPaused) {
		t.Errorf("Resume while running err = %v, want ErrNotPaused", err)
	}
	if err := c.Pause(context.Background()); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := c.Pause(context.Background()); !errors.Is(err, ErrAlreadyPaused) {
		t.Errorf("second Pause err = %v, want ErrAlreadyPaused", err)
	}
}

func TestLifecycle_StartPauseResumeComplete(t *testing.T) {
	remote := &fakeAPI{}
	users := &fakeUsers{}
	c, st := newController(remote, users, 2*time.Millisecond)
	defer c.Close()

	if _, err := c.Start(context.Background(), []domain.Task{{Name: "rev", Duration: 25}}, 25); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Pause(context.Background()); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := c.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got := st.Snapshot().Session; got == nil || got.IsPaused || got.PausedAt != nil {
		t.Fatalf("state session after resume = %+v, want running with PausedAt cleared", got)
	}
	waitFor(t, func() bool { return remote.count("heartbeat") >= 1 }, "no heartbeats after resume")

	if err := c.Complete(context.Background(), 22, 1, "solid block"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got := c.Current(); got != nil {
		t.Errorf("current session after complete = %+v, want nil", got)
	}
	if got := st.Snapshot().Session; got != nil {
		t.Errorf("state session after complete = %+v, want nil", got)
	}
	if got := users.fetches.Load(); got != 1 {
		t.Errorf("user fetches after complete = %d, want 1", got)
	}

	// A fresh session may start now.
	if _, err := c.Start(context.Background(), nil, 30); err != nil {
		t.Errorf("Start after complete: %v", err)
	}
}

func TestComplete_NoHeartbeatAfterCompleteSent(t *testing.T) {
	remote := &fakeAPI{}
	c, _ := newController(remote, &fakeUsers{}, time.Millisecond)
	defer c.Close()

	if _, err := c.Start(context.Background(), nil, 25); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return remote.count("heartbeat") >= 2 }, "no heartbeats before complete")
	if err := c.Complete(context.Background(), 25, 0, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	ops := remote.recorded()
	completeIdx := -1
	for i, op := range ops {
		if op == "complete" {
			completeIdx = i
		}
	}
	for _, op := range ops[completeIdx+1:] {
		if op == "heartbeat" {
			t.Fatalf("heartbeat issued after complete: %v", ops)
		}
	}
}

func TestComplete_ServerFailureKeepsSession(t *testing.T) {
	remote := &fakeAPI{completeErr: errors.New("boom")}
	users := &fakeUsers{}
	c, st := newController(remote, users, 2*time.Millisecond)
	defer c.Close()

	if _, err := c.Start(context.Background(), nil, 25); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Complete(context.Background(), 25, 0, ""); err == nil {
		t.Fatal("Complete succeeded, want error")
	}
	if got := c.Current(); got == nil {
		t.Fatal("current session dropped after failed complete")
	}
	if got := st.Snapshot().Session; got == nil {
		t.Error("state session dropped after failed complete")
	}
	if got := users.fetches.Load(); got != 0 {
		t.Errorf("user fetches after failed complete = %d, want 0", got)
	}

	before := remote.count("heartbeat")
	waitFor(t, func() bool { return remote.count("heartbeat") > before }, "heartbeats did not resume after failed complete")
}

func TestHeartbeatFailureIsNotFatal(t *testing.T) {
	remote := &fakeAPI{heartbeatErr: errors.New("boom")}
	c, _ := newController(remote, &fakeUsers{}, time.Millisecond)
	defer c.Close()

	if _, err := c.Start(context.Background(), nil, 25); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return remote.count("heartbeat") >= 3 }, "heartbeat loop stopped after failures")

	if got := c.Current(); got == nil {
		t.Fatal("session dropped after heartbeat failures")
	}
	if err := c.Pause(context.Background()); err != nil {
		t.Errorf("Pause after heartbeat failures: %v", err)
	}
}

func TestRestore_AdoptsRunningSession(t *testing.T) {
	remote := &fakeAPI{last: &domain.StudySession{ID: "sess-9", PlannedDuration: 50}}
	c, st := newController(remote, &fakeUsers{}, 2*time.Millisecond)
	defer c.Close()

	found, err := c.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !found {
		t.Fatal("Restore found = false, want true")
	}
	if got := st.Snapshot().Session; got == nil || got.ID != "sess-9" {
		t.Errorf("state session = %+v, want sess-9", got)
	}
	waitFor(t, func() bool { return remote.count("heartbeat") >= 1 }, "no heartbeats after restoring a running session")
}

func TestRestore_PausedSessionStaysPaused(t *testing.T) {
	paused := api.Timestamp{Time: time.Now().UTC()}
	remote := &fakeAPI{last: &domain.StudySession{ID: "sess-9", IsPaused: true, PausedAt: &paused}}
	c, _ := newController(remote, &fakeUsers{}, time.Millisecond)
	defer c.Close()

	found, err := c.Restore(context.Background())
	if err != nil || !found {
		t.Fatalf("Restore = (%v, %v), want (true, nil)", found, err)
	}
	time.Sleep(10 * time.Millisecond)
	if got := remote.count("heartbeat"); got != 0 {
		t.Errorf("heartbeats for paused session = %d, want 0", got)
	}
}

func TestRestore_NothingToRestore(t *testing.T) {
	remote := &fakeAPI{}
	c, _ := newController(remote, &fakeUsers{}, time.Hour)
	defer c.Close()

	found, err := c.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if found {
		t.Error("Restore found = true, want false")
	}
	if got := c.Current(); got != nil {
		t.Errorf("current session = %+v, want nil", got)
	}
}
