package websocket

import (
	"testing"
	"time"

	"github.com/meridian/oddsync/internal/store"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDetachAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	hub.Stop()

	c := &Client{hub: hub, send: make(chan *store.Edge, 1)}

	done := make(chan struct{})
	go func() {
		c.detach()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("detach blocked against a stopped hub")
	}
}

func TestDetachUnregistersFromRunningHub(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := &Client{hub: hub, send: make(chan *store.Edge, 1)}
	hub.register <- c
	waitFor(t, "client registration", func() bool { return hub.ClientCount() == 1 })

	c.detach()
	waitFor(t, "client removal", func() bool { return hub.ClientCount() == 0 })
}
