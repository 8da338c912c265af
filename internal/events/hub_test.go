package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msc-ledger/internal/domain"
)

func TestHub_Subscribe(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	ch, cancel := hub.Subscribe()

	event := &domain.SettlementEvent{Type: domain.EventSwap, User: "alice", AmountIn: 1_000_000, Timestamp: 1_700_000_000}
	hub.Publish(event)

	select {
	case got := <-ch:
		assert.Equal(t, event, got)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	if _, open := <-ch; open {
		t.Fatal("channel still open after cancel")
	}

	// Publishing after cancel must not panic or deliver.
	hub.Publish(event)
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(&domain.SettlementEvent{Type: domain.EventSwap, Timestamp: int64(i)})
	}

	// The buffer holds exactly subscriberBuffer events; the rest dropped.
	assert.Len(t, ch, subscriberBuffer)
}

// Publish must never block on a client whose queue is full; the client
// is dropped instead of stalling the publisher.
func TestHub_SlowClientDisconnected(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	// Hand the hub a connection whose write loop never runs, so the
	// outbound queue fills instead of draining.
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err == nil {
			conns <- conn
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer peer.Close()

	c := &client{conn: <-conns, send: make(chan []byte, clientBuffer)}
	hub.mu.Lock()
	hub.clients[c] = struct{}{}
	hub.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i <= clientBuffer; i++ {
			hub.Publish(&domain.SettlementEvent{Type: domain.EventSwap, Timestamp: int64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stalled client")
	}

	hub.mu.Lock()
	_, still := hub.clients[c]
	hub.mu.Unlock()
	assert.False(t, still, "stalled client still registered")
}

func TestHub_WebSocketDelivery(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The upgrade is processed before Handler returns, but registration
	// races with the first publish; poll briefly.
	event := &domain.SettlementEvent{Type: domain.EventClaim, User: "bob", FileHash: strings.Repeat("ab", 32), Timestamp: 1_700_000_001}
	deadline := time.Now().Add(2 * time.Second)
	conn.SetReadDeadline(deadline)

	var got domain.SettlementEvent
	for {
		hub.Publish(event)
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		if err == nil {
			require.NoError(t, json.Unmarshal(msg, &got))
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no websocket message received")
		}
	}

	assert.Equal(t, event.Type, got.Type)
	assert.Equal(t, event.User, got.User)
	assert.Equal(t, event.FileHash, got.FileHash)
}
