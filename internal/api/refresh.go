package api

import (
	"context"
	"sync"
)

// refreshState tags the coordinator's single-flight state machine.
type refreshState int

const (
	refreshIdle refreshState = iota
	refreshInFlight
)

// refreshFunc performs the refresh call and persists the new credential.
// A non-nil error means re-authentication is required.
type refreshFunc func(ctx context.Context) error

// replayFunc re-executes a request, normally with the fresh credential.
type replayFunc func(ctx context.Context, req *Request) (*Response, error)

// pendingRequest is one request that failed authorization while a refresh
// was in flight. It is resolved exactly once, after the refresh settles.
type pendingRequest struct {
	ctx  context.Context
	req  *Request
	done chan pendingResult
}

type pendingResult struct {
	resp *Response
	err  error
}

// coordinator serializes token refresh. At most one refresh call is ever
// in flight; every request that hits an authorization failure while it
// runs is queued and replayed in enqueue order once the refresh settles.
// Without this, a burst of 401s would each trigger an independent refresh,
// racing credential writes and hammering the refresh endpoint.
type coordinator struct {
	mu    sync.Mutex
	state refreshState
	queue []*pendingRequest
}

// resolve recovers from an authorization failure for req.
//
// The first caller to arrive while the coordinator is idle becomes the
// leader: it runs refresh, then replays its own request followed by every
// queued request, in order, delivering each outcome independently. Any
// caller arriving while a refresh is in flight parks on the queue instead.
//
// If the refresh fails, the leader's caller receives origErr (the failure
// that triggered recovery) and every queued request is rejected with the
// refresh error. The queue is always drained; no pending request is
// resolved more than once or left hanging.
func (c *coordinator) resolve(ctx context.Context, req *Request, refresh refreshFunc, replay replayFunc, origErr error) (*Response, error) {
	c.mu.Lock()
	if c.state == refreshInFlight {
		p := &pendingRequest{ctx: ctx, req: req, done: make(chan pendingResult, 1)}
		c.queue = append(c.queue, p)
		c.mu.Unlock()

		select {
		case res := <-p.done:
			return res.resp, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.state = refreshInFlight
	c.mu.Unlock()

	refreshErr := refresh(ctx)

	c.mu.Lock()
	queued := c.queue
	c.queue = nil
	c.state = refreshIdle
	c.mu.Unlock()

	if refreshErr != nil {
		for _, p := range queued {
			p.done <- pendingResult{err: refreshErr}
		}
		return nil, origErr
	}

	resp, err := replay(ctx, req)
	for _, p := range queued {
		r, e := replay(p.ctx, p.req)
		p.done <- pendingResult{resp: r, err: e}
	}
	return resp, err
}
