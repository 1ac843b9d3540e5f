package api

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"market-analyzer/internal/events"
)

// TestHubStopsOnCancel tests that the dispatch loop exits on context
// cancellation and closes every client send channel on the way out
func TestHubStopsOnCancel(t *testing.T) {
	hub := NewWSHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &WSClient{send: make(chan []byte, 4), hub: hub}
	hub.register <- client

	hub.BroadcastEvent(events.Event{Type: events.EventScanCompleted})
	select {
	case <-client.send:
	case <-time.After(time.Second):
		t.Fatal("Expected a broadcast delivery while the hub is running")
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("Expected 1 registered client, got %d", hub.ClientCount())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Hub did not stop on context cancellation")
	}

	if _, open := <-client.send; open {
		t.Error("Expected the client send channel to be closed after shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients after shutdown, got %d", hub.ClientCount())
	}
}
