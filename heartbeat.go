package rincon

import (
	"context"
	"time"
)

// heartbeatJoinTimeout bounds how long StopHeartbeat waits for the loop to
// exit before abandoning it.
const heartbeatJoinTimeout = 5 * time.Second

// heartbeat is the handle for one running heartbeat task.
type heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartHeartbeat starts a background task that re-registers the session's
// current service every interval, keeping the registration alive. An
// interval <= 0 uses the configured HeartbeatInterval. The first beat is
// sent immediately.
//
// Starting without a current registration fails with a session error before
// any network call. Starting while a heartbeat is already running is a
// no-op.
func (c *Client) StartHeartbeat(interval time.Duration) error {
	if interval <= 0 {
		interval = c.cfg.HeartbeatInterval
	}

	c.mu.Lock()
	if c.service == nil {
		c.mu.Unlock()
		return NewSessionError("No service registered with this client")
	}
	if c.hb != nil {
		c.mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	hb := &heartbeat{cancel: cancel, done: make(chan struct{})}
	c.hb = hb
	c.mu.Unlock()

	go c.heartbeatLoop(ctx, interval, hb.done)

	c.log.Info("started heartbeat", map[string]interface{}{"interval": interval.String()})
	return nil
}

// StopHeartbeat stops the running heartbeat, waiting for the loop to exit
// up to a grace period after which the task is abandoned. Calling it when
// no heartbeat is running is a no-op; it is safe to call concurrently with
// the heartbeat task itself.
func (c *Client) StopHeartbeat() {
	c.mu.Lock()
	hb := c.hb
	c.hb = nil
	c.mu.Unlock()
	if hb == nil {
		return
	}

	hb.cancel()
	select {
	case <-hb.done:
	case <-time.After(heartbeatJoinTimeout):
		c.log.Warn("heartbeat did not stop within grace period, abandoning")
	}

	c.log.Info("stopped heartbeat")
}

// heartbeatLoop beats once, then once per tick until canceled. The wait
// between ticks is interruptible so StopHeartbeat returns promptly.
func (c *Client) heartbeatLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		c.beat(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// beat sends one liveness refresh. Failures are swallowed and logged so the
// loop survives transient registry outages and retries on the next tick.
func (c *Client) beat(ctx context.Context) {
	c.mu.Lock()
	svc := c.service
	c.mu.Unlock()
	if svc == nil {
		return
	}

	if _, err := c.RegisterService(ctx, *svc); err != nil {
		c.log.WithError(err).Warn("heartbeat failed", map[string]interface{}{"service": svc.Name})
		return
	}
	c.log.Debug("heartbeat sent", map[string]interface{}{"service": svc.Name})
}
