package push

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/violit-dev/violit/pkg/component"
)

// dialTestChannel stands up a WebSocket server that attaches every
// incoming connection to the engine under the given session id, and
// returns the client side of one connection.
func dialTestChannel(t *testing.T, e *WSEngine, sessionID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		e.Attach(sessionID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	// Attach happens in the handler goroutine; wait for it.
	deadline := time.Now().Add(time.Second)
	for !e.Connected(sessionID) {
		if time.Now().After(deadline) {
			t.Fatal("channel never attached")
		}
		time.Sleep(time.Millisecond)
	}

	return client
}

func readMessage(t *testing.T, client *websocket.Conn) ServerMessage {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(time.Second))
	var msg ServerMessage
	if err := client.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func TestWSPushUpdates(t *testing.T) {
	e := NewWSEngine(time.Second, nil)
	client := dialTestChannel(t, e, "sess1")

	e.PushUpdates("sess1", []*component.Component{
		{Tag: "div", ID: "c1", Content: "5"},
	})

	msg := readMessage(t, client)
	if msg.Type != "update" {
		t.Fatalf("expected update message, got %q", msg.Type)
	}
	if len(msg.Payload) != 1 || msg.Payload[0].ID != "c1" {
		t.Fatalf("unexpected payload: %+v", msg.Payload)
	}
	if msg.Payload[0].HTML != `<div id="c1">5</div>` {
		t.Errorf("unexpected html: %q", msg.Payload[0].HTML)
	}
}

func TestWSPushUpdatesEmpty(t *testing.T) {
	e := NewWSEngine(time.Second, nil)
	client := dialTestChannel(t, e, "sess1")

	// Nothing dirty: no message at all.
	e.PushUpdates("sess1", nil)

	client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Error("empty update should not produce a message")
	}
}

func TestWSPushEval(t *testing.T) {
	e := NewWSEngine(time.Second, nil)
	client := dialTestChannel(t, e, "sess1")

	e.PushEval("sess1", "console.log('hi')")

	msg := readMessage(t, client)
	if msg.Type != "eval" || msg.Code != "console.log('hi')" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.Payload != nil {
		t.Errorf("eval message should carry no payload: %+v", msg.Payload)
	}
}

func TestWSSendError(t *testing.T) {
	e := NewWSEngine(time.Second, nil)
	client := dialTestChannel(t, e, "sess1")

	e.SendError("sess1", "invalid CSRF token")

	msg := readMessage(t, client)
	if msg.Type != "error" || msg.Message != "invalid CSRF token" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestWSPushWithoutChannelDrops(t *testing.T) {
	e := NewWSEngine(time.Second, nil)

	// No channel attached: pushes are silently dropped, never an error.
	e.PushUpdates("ghost", []*component.Component{{Tag: "div", ID: "c1"}})
	e.PushEval("ghost", "x()")

	if e.Connected("ghost") {
		t.Error("no channel should be registered")
	}
}

// currentConn returns the engine's live server-side connection for a
// session.
func currentConn(e *WSEngine, sessionID string) *websocket.Conn {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if wc := e.conns[sessionID]; wc != nil {
		return wc.conn
	}
	return nil
}

// waitReplaced blocks until the session's channel is no longer old.
func waitReplaced(t *testing.T, e *WSEngine, sessionID string, old *websocket.Conn) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for currentConn(e, sessionID) == old {
		if time.Now().After(deadline) {
			t.Fatal("channel never replaced")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWSAttachReplacesPrevious(t *testing.T) {
	e := NewWSEngine(time.Second, nil)

	first := dialTestChannel(t, e, "sess1")
	firstConn := currentConn(e, "sess1")
	second := dialTestChannel(t, e, "sess1")
	waitReplaced(t, e, "sess1", firstConn)

	// The replaced connection is closed server-side; its client sees EOF.
	first.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := first.ReadMessage(); err == nil {
		t.Error("superseded channel should be closed")
	}

	e.PushEval("sess1", "x()")
	if msg := readMessage(t, second); msg.Type != "eval" {
		t.Errorf("new channel should receive pushes, got %+v", msg)
	}
}

func TestWSDetachOnlyCurrent(t *testing.T) {
	e := NewWSEngine(time.Second, nil)

	dialTestChannel(t, e, "sess1")
	firstConn := currentConn(e, "sess1")

	dialTestChannel(t, e, "sess1")
	waitReplaced(t, e, "sess1", firstConn)

	// Detaching with the superseded connection must not drop the live one.
	e.Detach("sess1", firstConn)
	if !e.Connected("sess1") {
		t.Error("detach with a stale connection should be a no-op")
	}

	e.Detach("sess1", currentConn(e, "sess1"))
	if e.Connected("sess1") {
		t.Error("detach with the current connection should release the channel")
	}
}

func TestWSBroadcastReachesAllSessions(t *testing.T) {
	e := NewWSEngine(time.Second, nil)
	a := dialTestChannel(t, e, "sessA")
	b := dialTestChannel(t, e, "sessB")

	if n := e.BroadcastEval("ping()", ""); n != 2 {
		t.Fatalf("expected 2 targets, got %d", n)
	}

	for _, client := range []*websocket.Conn{a, b} {
		msg := readMessage(t, client)
		if msg.Type != "eval" || msg.Code != "ping()" {
			t.Errorf("unexpected message: %+v", msg)
		}
	}
}

func TestWSBroadcastExcludesSession(t *testing.T) {
	e := NewWSEngine(time.Second, nil)
	a := dialTestChannel(t, e, "sessA")
	b := dialTestChannel(t, e, "sessB")

	if n := e.BroadcastEval("ping()", "sessA"); n != 1 {
		t.Fatalf("expected 1 target, got %d", n)
	}

	if msg := readMessage(t, b); msg.Code != "ping()" {
		t.Errorf("included session missed the broadcast: %+v", msg)
	}

	a.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, _, err := a.ReadMessage(); err == nil {
		t.Error("excluded session must not receive the broadcast")
	}
}

func TestWSBroadcastWithNoSessions(t *testing.T) {
	e := NewWSEngine(time.Second, nil)

	if n := e.Broadcast(&ServerMessage{Type: "eval", Code: "x()"}, ""); n != 0 {
		t.Errorf("expected 0 targets, got %d", n)
	}
}

func TestWSSessionIDs(t *testing.T) {
	e := NewWSEngine(time.Second, nil)

	if ids := e.SessionIDs(); len(ids) != 0 {
		t.Errorf("expected no sessions, got %v", ids)
	}

	dialTestChannel(t, e, "sessA")
	dialTestChannel(t, e, "sessB")

	ids := e.SessionIDs()
	if len(ids) != 2 {
		t.Errorf("expected 2 sessions, got %v", ids)
	}
}

func TestWSClickAttrs(t *testing.T) {
	e := NewWSEngine(0, nil)

	attrs := e.ClickAttrs("btn_1")
	if attrs["onclick"] != "window.sendAction('btn_1')" {
		t.Errorf("unexpected onclick: %q", attrs["onclick"])
	}
}
