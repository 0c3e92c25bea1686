package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"focusbuddy/internal/api"
	"focusbuddy/internal/metrics"
	"focusbuddy/internal/session/domain"
	"focusbuddy/internal/state"
)

var (
	// ErrSessionActive is returned when a session already exists and a new
	// one is requested.
	ErrSessionActive = errors.New("a study session is already in progress")
	// ErrNoSession is returned by operations that need a current session
	// when none exists.
	ErrNoSession = errors.New("no current study session")
	// ErrAlreadyPaused is returned when pausing a session that is paused.
	ErrAlreadyPaused = errors.New("session is already paused")
	// ErrNotPaused is returned when resuming a session that is running.
	ErrNotPaused = errors.New("session is not paused")
)

// heartbeatTimeout bounds a single liveness call. The server tolerates a
// missed beat or two before auto-pausing, so a slow call is abandoned
// rather than allowed to pile up behind the ticker.
const heartbeatTimeout = 5 * time.Second

// UserRefresher re-fetches the signed-in user's record. Completing a
// session changes server-derived fields (coins, streaks, stats), so the
// cached user is refreshed rather than patched locally.
type UserRefresher interface {
	FetchUser(ctx context.Context) error
}

// Controller owns the current study session and its liveness loop.
//
// A session is either running or paused; the heartbeat ticker is alive
// exactly when a session is current and not paused. Pause and Complete
// stop the ticker and wait for any in-flight beat to finish before the
// request goes out, so the server never sees a heartbeat for a session
// the client has already asked to pause or close.
type Controller struct {
	api      API
	state    *state.Store
	users    UserRefresher
	interval time.Duration
	log      *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	current *domain.StudySession
	stopHB  chan struct{}
	hbDone  chan struct{}
}

// NewController returns a controller with no current session. Call
// Restore to adopt an unfinished session left over from a previous run.
func NewController(remote API, st *state.Store, users UserRefresher, interval time.Duration, log *slog.Logger, m *metrics.Metrics) *Controller {
	return &Controller{
		api:      remote,
		state:    st,
		users:    users,
		interval: interval,
		log:      log,
		metrics:  m,
	}
}

// Current returns the current session, or nil.
func (c *Controller) Current() *domain.StudySession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Start creates a session on the server and begins the heartbeat loop.
// It fails with ErrSessionActive if a session is already current.
func (c *Controller) Start(ctx context.Context, tasks []domain.Task, plannedDuration int) (*domain.StudySession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return nil, ErrSessionActive
	}
	s, err := c.api.Create(ctx, tasks, plannedDuration)
	if err != nil {
		return nil, err
	}
	c.current = s
	c.state.SetSession(s)
	c.startHeartbeatLocked(s.ID)
	c.log.Info("study session started", "session_id", s.ID, "planned_duration", plannedDuration)
	return s, nil
}

// Pause stops the heartbeat loop, then asks the server to pause the
// session. If the server refuses, the loop is restarted and the session
// stays running.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return ErrNoSession
	}
	if c.current.IsPaused {
		return ErrAlreadyPaused
	}

	c.stopHeartbeatLocked()
	if err := c.api.Pause(ctx, c.current.ID); err != nil {
		// The session is still running server-side, so liveness
		// must keep flowing.
		c.startHeartbeatLocked(c.current.ID)
		return err
	}

	now := api.Timestamp{Time: time.Now().UTC()}
	c.current.IsPaused = true
	c.current.PausedAt = &now
	c.state.SetSession(c.current)
	c.log.Info("study session paused", "session_id", c.current.ID)
	return nil
}

// Resume clears the pause on the server and restarts the heartbeat loop.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return ErrNoSession
	}
	if !c.current.IsPaused {
		return ErrNotPaused
	}

	if err := c.api.Resume(ctx, c.current.ID); err != nil {
		return err
	}
	if c.current.PausedAt != nil {
		c.current.TotalPaused += int(time.Since(c.current.PausedAt.Time).Seconds())
	}
	c.current.IsPaused = false
	c.current.PausedAt = nil
	c.state.SetSession(c.current)
	c.startHeartbeatLocked(c.current.ID)
	c.log.Info("study session resumed", "session_id", c.current.ID)
	return nil
}

// Complete stops the heartbeat loop, closes the session on the server
// with its final numbers, and re-fetches the user so reward fields the
// server just updated are reflected locally. If the server refuses and
// the session was running, the loop is restarted.
func (c *Controller) Complete(ctx context.Context, actualDuration, distractionsBlocked int, notes string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return ErrNoSession
	}

	wasRunning := !c.current.IsPaused
	c.stopHeartbeatLocked()
	if err := c.api.Complete(ctx, c.current.ID, actualDuration, distractionsBlocked, notes); err != nil {
		if wasRunning {
			c.startHeartbeatLocked(c.current.ID)
		}
		return err
	}

	id := c.current.ID
	c.current = nil
	c.state.SetSession(nil)
	c.log.Info("study session completed", "session_id", id, "actual_duration", actualDuration)

	if err := c.users.FetchUser(ctx); err != nil {
		c.log.Warn("user refresh after completion failed", "error", err)
	}
	return nil
}

// Restore adopts an unfinished session from the server, typically at
// startup. It reports whether a session was found. A running session
// gets its heartbeat loop back; a paused one stays paused.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return true, nil
	}
	s, err := c.api.LastActive(ctx)
	if err != nil {
		return false, err
	}
	if s == nil || s.Completed() {
		return false, nil
	}
	c.current = s
	c.state.SetSession(s)
	if !s.IsPaused {
		c.startHeartbeatLocked(s.ID)
	}
	c.log.Info("study session restored", "session_id", s.ID, "paused", s.IsPaused)
	return true, nil
}

// Close stops the heartbeat loop without touching the server. The
// session is left for the server to auto-pause and for Restore to pick
// up on the next run.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopHeartbeatLocked()
}

// startHeartbeatLocked launches the liveness loop. Callers hold c.mu.
func (c *Controller) startHeartbeatLocked(sessionID string) {
	stop := make(chan struct{})
	done := make(chan struct{})
	c.stopHB = stop
	c.hbDone = done
	go c.heartbeatLoop(sessionID, stop, done)
}

// stopHeartbeatLocked stops the loop and waits for it to exit, so no
// beat can be issued after this returns. Callers hold c.mu; the loop
// never takes c.mu, so the wait cannot deadlock.
func (c *Controller) stopHeartbeatLocked() {
	if c.stopHB == nil {
		return
	}
	close(c.stopHB)
	<-c.hbDone
	c.stopHB = nil
	c.hbDone = nil
}

func (c *Controller) heartbeatLoop(sessionID string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), heartbeatTimeout)
			err := c.api.Heartbeat(ctx, sessionID)
			cancel()
			c.metrics.Heartbeat(err != nil)
			if err != nil {
				// A missed beat is recoverable; the server
				// auto-pauses only after several are lost.
				c.log.Warn("heartbeat failed", "session_id", sessionID, "error", err)
			}
		}
	}
}
