package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		if err != nil {
			userID = 1
		}
		hub.HandleWebSocket(w, r, userID)
	}))
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, userID int64) *websocket.Conn {
	t.Helper()
	url := "ws" + server.URL[len("http"):] + "?user_id=" + strconv.FormatInt(userID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within 1s")
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server, 1)

	waitFor(t, func() bool { return hub.ConnectionCount(1) == 1 })

	_ = conn.Close()

	waitFor(t, func() bool { return hub.ConnectionCount(1) == 0 })

	hub.mu.RLock()
	_, exists := hub.connections[1]
	hub.mu.RUnlock()
	if exists {
		t.Fatal("empty user bucket should be removed")
	}
}

func TestHub_Send(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server, 1)
	waitFor(t, func() bool { return hub.ConnectionCount(1) == 1 })

	hub.Send(1, &Message{
		Type:    "report_generated",
		Channel: "notify_user_report_generated#1",
		Data:    map[string]any{"filename": "registry-summary.csv"},
	})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var received Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("read: %v", err)
	}
	if received.Type != "report_generated" {
		t.Errorf("type = %q", received.Type)
	}
	if received.Channel != "notify_user_report_generated#1" {
		t.Errorf("channel = %q", received.Channel)
	}
	if received.UserID != 1 {
		t.Errorf("user id = %d", received.UserID)
	}
}

func TestHub_FansOutToEveryConnectionOfUser(t *testing.T) {
	hub, server := startHub(t)

	conns := []*websocket.Conn{dial(t, server, 1), dial(t, server, 1), dial(t, server, 1)}
	waitFor(t, func() bool { return hub.ConnectionCount(1) == 3 })

	hub.Send(1, &Message{Type: "report_generated"})

	var wg sync.WaitGroup
	for i, c := range conns {
		wg.Add(1)
		go func(idx int, c *websocket.Conn) {
			defer wg.Done()
			_ = c.SetReadDeadline(time.Now().Add(time.Second))
			var received Message
			if err := c.ReadJSON(&received); err != nil {
				t.Errorf("connection %d: read: %v", idx, err)
				return
			}
			if received.Type != "report_generated" {
				t.Errorf("connection %d: type = %q", idx, received.Type)
			}
		}(i, c)
	}
	wg.Wait()
}

func TestHub_DoesNotLeakAcrossUsers(t *testing.T) {
	hub, server := startHub(t)
	conn1 := dial(t, server, 1)
	conn2 := dial(t, server, 2)
	waitFor(t, func() bool { return hub.ConnectionCount(1) == 1 && hub.ConnectionCount(2) == 1 })

	hub.Send(1, &Message{Type: "private"})

	_ = conn1.SetReadDeadline(time.Now().Add(time.Second))
	var received Message
	if err := conn1.ReadJSON(&received); err != nil {
		t.Fatalf("user 1 read: %v", err)
	}

	_ = conn2.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var other Message
	if err := conn2.ReadJSON(&other); err == nil {
		t.Error("user 2 received a message addressed to user 1")
	}
}

func TestHub_SendDropsWhenOutboxFull(t *testing.T) {
	hub := NewHub(nil)
	hub.outbox = make(chan *Message, 1)

	// Run is not started, so nothing drains the outbox.
	hub.Send(1, &Message{Type: "first"})
	hub.Send(1, &Message{Type: "dropped"})

	if got := len(hub.outbox); got != 1 {
		t.Fatalf("outbox length = %d, want 1", got)
	}
	if msg := <-hub.outbox; msg.Type != "first" {
		t.Fatalf("queued message = %q, want first", msg.Type)
	}
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, 1)
	}))
	defer server.Close()

	conn := dial(t, server, 1)
	waitFor(t, func() bool { return hub.ConnectionCount(1) == 1 })

	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to be closed after hub shutdown")
	}
}
