package websocket

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestConn(hub *Hub, id string, userID uint) *Connection {
	c := &Connection{
		ID:      id,
		UserID:  userID,
		Send:    make(chan []byte, DefaultSendBufferSize),
		Hub:     hub,
		signals: make(map[uint]bool),
	}
	hub.register(c)
	return c
}

func TestHubSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub()

	sub := newTestConn(hub, "c1", 1)
	other := newTestConn(hub, "c2", 2)
	sub.Subscribe(42)

	if got := hub.SubscriberCount(42); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	hub.BroadcastSignalEvent(42, MessageTypeSignalCancelled, map[string]any{"reason": "resolved_on_site"})

	select {
	case raw := <-sub.Send:
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != MessageTypeSignalCancelled {
			t.Errorf("expected type %s, got %s", MessageTypeSignalCancelled, msg.Type)
		}
		if msg.SignalID != 42 {
			t.Errorf("expected signal 42, got %d", msg.SignalID)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case <-other.Send:
		t.Fatal("non-subscriber received event")
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	conn := newTestConn(hub, "c1", 1)

	conn.Subscribe(7)
	conn.Unsubscribe(7)

	hub.BroadcastSignalEvent(7, MessageTypeOfferRecorded, nil)
	select {
	case <-conn.Send:
		t.Fatal("received event after unsubscribe")
	default:
	}
}

func TestHubUnregisterCleansSubscriptions(t *testing.T) {
	hub := NewHub()
	conn := newTestConn(hub, "c1", 1)
	conn.Subscribe(9)

	hub.unregister(conn)

	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections, got %d", hub.ConnectionCount())
	}
	if hub.SubscriberCount(9) != 0 {
		t.Errorf("expected 0 subscribers, got %d", hub.SubscriberCount(9))
	}
}
