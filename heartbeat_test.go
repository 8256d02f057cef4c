package rincon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// registryStub serves the minimal contract the heartbeat exercises and
// counts service registrations.
func registryStub(t *testing.T, registerStatus *int32) (*httptest.Server, *int32) {
	t.Helper()
	var registrations int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/rincon/services":
			atomic.AddInt32(&registrations, 1)
			if registerStatus != nil {
				if status := atomic.LoadInt32(registerStatus); status != 200 {
					w.WriteHeader(int(status))
					w.Write([]byte(`{"message": "registry out to lunch"}`))
					return
				}
			}
			w.Write([]byte(sampleServiceJSON))
		case r.Method == http.MethodDelete:
			w.Write([]byte(`{"message": "removed"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &registrations
}

func TestHeartbeat_StartWithoutRegistration(t *testing.T) {
	// Closed server: a network call would fail loudly, but none may happen.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no network call expected")
	}))
	base := srv.URL
	srv.Close()

	c := newTestClient(t, base)
	err := c.StartHeartbeat(10 * time.Millisecond)
	if !IsSession(err) {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestHeartbeat_PeriodicReregistration(t *testing.T) {
	srv, registrations := registryStub(t, nil)

	c := newTestClient(t, srv.URL)
	if _, err := c.Register(context.Background(), sampleService()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	initial := atomic.LoadInt32(registrations)

	if err := c.StartHeartbeat(20 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(110 * time.Millisecond)
	c.StopHeartbeat()

	beats := atomic.LoadInt32(registrations) - initial
	if beats < 3 {
		t.Errorf("expected at least 3 heartbeat registrations, got %d", beats)
	}
}

func TestHeartbeat_DoubleStartIsNoop(t *testing.T) {
	srv, _ := registryStub(t, nil)

	c := newTestClient(t, srv.URL)
	if _, err := c.Register(context.Background(), sampleService()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.StartHeartbeat(time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.mu.Lock()
	first := c.hb
	c.mu.Unlock()

	if err := c.StartHeartbeat(time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.mu.Lock()
	second := c.hb
	c.mu.Unlock()

	if first != second {
		t.Error("second start must not spawn a second task")
	}
	c.StopHeartbeat()
}

func TestHeartbeat_StopWhenIdleIsNoop(t *testing.T) {
	c := newTestClient(t, "http://localhost:10311")

	start := time.Now()
	c.StopHeartbeat()
	c.StopHeartbeat()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("idle stop took %v", elapsed)
	}
}

func TestHeartbeat_StopInterruptsWait(t *testing.T) {
	srv, _ := registryStub(t, nil)

	c := newTestClient(t, srv.URL)
	if _, err := c.Register(context.Background(), sampleService()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.StartHeartbeat(time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	c.StopHeartbeat()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("stop should interrupt the interval wait, took %v", elapsed)
	}
}

func TestHeartbeat_SurvivesFailures(t *testing.T) {
	status := int32(200)
	srv, registrations := registryStub(t, &status)

	c := newTestClient(t, srv.URL)
	if _, err := c.Register(context.Background(), sampleService()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	initial := atomic.LoadInt32(registrations)

	// Every beat fails; the loop must keep ticking regardless.
	atomic.StoreInt32(&status, 503)
	if err := c.StartHeartbeat(20 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(110 * time.Millisecond)
	c.StopHeartbeat()

	beats := atomic.LoadInt32(registrations) - initial
	if beats < 3 {
		t.Errorf("heartbeat should retry after failures, got %d attempts", beats)
	}
}

func TestHeartbeat_DeregisterStopsHeartbeat(t *testing.T) {
	srv, registrations := registryStub(t, nil)

	c := newTestClient(t, srv.URL)
	if _, err := c.Register(context.Background(), sampleService()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.StartHeartbeat(20 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Deregister(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.mu.Lock()
	running := c.hb != nil
	c.mu.Unlock()
	if running {
		t.Error("deregister must stop the heartbeat")
	}

	after := atomic.LoadInt32(registrations)
	time.Sleep(60 * time.Millisecond)
	if got := atomic.LoadInt32(registrations); got != after {
		t.Errorf("heartbeat still beating after deregister: %d -> %d", after, got)
	}

	// Restarting now fails: nothing is registered anymore.
	if err := c.StartHeartbeat(20 * time.Millisecond); !IsSession(err) {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestClose_StopsHeartbeat(t *testing.T) {
	srv, _ := registryStub(t, nil)

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Register(context.Background(), sampleService()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.StartHeartbeat(time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.mu.Lock()
	running := c.hb != nil
	c.mu.Unlock()
	if running {
		t.Error("close must stop the heartbeat")
	}
}
