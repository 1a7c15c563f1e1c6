package api

import (
	"testing"
	"time"

	"omnicore-dashboard/internal/events"
)

func waitForUserClients(t *testing.T, hub *WSHub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.UserClientCount(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %s client count never reached %d (got %d)", userID, want, hub.UserClientCount(userID))
}

// A client with a full send buffer is dropped by the hub; the connection's
// read pump still reports the close through unregister afterwards. The hub
// must survive both and keep serving other clients.
func TestHubDropsSlowClientOnce(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	slow := &WSClient{send: make(chan []byte, 1), hub: hub, userID: "user-1"}
	hub.register <- slow
	waitForUserClients(t, hub, "user-1", 1)

	progress := events.Event{Type: events.EventPipelineProgress, UserID: "user-1"}
	hub.BroadcastToUser("user-1", progress) // fills the one-slot buffer
	hub.BroadcastToUser("user-1", progress) // overflows it, hub drops the client
	waitForUserClients(t, hub, "user-1", 0)

	// late unregister for the already-dropped client
	hub.unregister <- slow

	live := &WSClient{send: make(chan []byte, 4), hub: hub, userID: "user-2"}
	hub.register <- live
	waitForUserClients(t, hub, "user-2", 1)

	hub.BroadcastToUser("user-2", events.Event{Type: events.EventPipelineState, UserID: "user-2"})
	select {
	case <-live.send:
	case <-time.After(2 * time.Second):
		t.Fatal("hub stopped delivering after dropping a slow client")
	}
}

func TestHubBroadcastSkipsFullBufferWithoutBlocking(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	stuck := &WSClient{send: make(chan []byte), hub: hub}
	hub.register <- stuck
	open := &WSClient{send: make(chan []byte, 4), hub: hub}
	hub.register <- open

	hub.BroadcastToAll(events.Event{Type: events.EventCooldownTick})

	select {
	case <-open.send:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast never reached the healthy client")
	}
}
