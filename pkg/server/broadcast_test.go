package server

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/violit-dev/violit/pkg/push"
	"github.com/violit-dev/violit/pkg/violit"
)

func readServerMessage(t *testing.T, conn *websocket.Conn) push.ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg push.ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func expectNoMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	var msg push.ServerMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Errorf("expected no message, got %+v", msg)
	}
}

func TestBroadcastEvalReachesAllSessions(t *testing.T) {
	srv := newTestApp(t, ModeWS)
	a := dialWS(t, srv, "sessA")
	b := dialWS(t, srv, "sessB")

	if n := srv.BroadcastEval("ping()", false); n != 2 {
		t.Fatalf("expected 2 targets, got %d", n)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readServerMessage(t, conn)
		if msg.Type != "eval" || msg.Code != "ping()" {
			t.Errorf("unexpected message: %+v", msg)
		}
	}
}

func TestBroadcastEvent(t *testing.T) {
	srv := newTestApp(t, ModeWS)
	conn := dialWS(t, srv, "sessA")

	srv.BroadcastEvent("post_added", map[string]any{"id": 42}, false)

	msg := readServerMessage(t, conn)
	if msg.Type != "eval" {
		t.Fatalf("expected eval transport, got %q", msg.Type)
	}
	if !strings.Contains(msg.Code, `new CustomEvent("post_added"`) {
		t.Errorf("event dispatch missing: %q", msg.Code)
	}
	if !strings.Contains(msg.Code, `"id":42`) {
		t.Errorf("payload missing: %q", msg.Code)
	}
	if !strings.Contains(msg.Code, "_eventId") {
		t.Errorf("deduplication id missing: %q", msg.Code)
	}
}

func TestBroadcastEventKeepsCallerEventID(t *testing.T) {
	srv := newTestApp(t, ModeWS)
	conn := dialWS(t, srv, "sessA")

	srv.BroadcastEvent("sync", map[string]any{"_eventId": "fixed"}, false)

	msg := readServerMessage(t, conn)
	if !strings.Contains(msg.Code, `"_eventId":"fixed"`) {
		t.Errorf("caller-supplied event id should survive: %q", msg.Code)
	}
}

func TestBroadcastExcludeCurrentSession(t *testing.T) {
	srv := newTestApp(t, ModeWS)
	a := dialWS(t, srv, "sessA")
	b := dialWS(t, srv, "sessB")

	// From inside sessA's scope, excludeCurrent skips sessA.
	srv.Runtime().WithSession("sessA", func() {
		if n := srv.BroadcastEval("ping()", true); n != 1 {
			t.Fatalf("expected 1 target, got %d", n)
		}
	})

	if msg := readServerMessage(t, b); msg.Code != "ping()" {
		t.Errorf("other session missed the broadcast: %+v", msg)
	}
	expectNoMessage(t, a)
}

func TestBroadcastUpdateRendersPerSession(t *testing.T) {
	srv := newTestApp(t, ModeWS)
	count := violit.NewState("count", 0)

	srv.Runtime().WithSession("sessA", func() { count.Set(1) })
	srv.Runtime().WithSession("sessB", func() { count.Set(2) })

	a := dialWS(t, srv, "sessA")
	b := dialWS(t, srv, "sessB")

	if n := srv.BroadcastUpdate("label", false); n != 2 {
		t.Fatalf("expected 2 targets, got %d", n)
	}

	msgA := readServerMessage(t, a)
	if len(msgA.Payload) != 1 || msgA.Payload[0].HTML != `<div id="label">1</div>` {
		t.Errorf("sessA should see its own value: %+v", msgA.Payload)
	}
	msgB := readServerMessage(t, b)
	if len(msgB.Payload) != 1 || msgB.Payload[0].HTML != `<div id="label">2</div>` {
		t.Errorf("sessB should see its own value: %+v", msgB.Payload)
	}
}

func TestBroadcastUpdateUnknownComponent(t *testing.T) {
	srv := newTestApp(t, ModeWS)
	conn := dialWS(t, srv, "sessA")

	if n := srv.BroadcastUpdate("ghost", false); n != 0 {
		t.Errorf("unknown component should target nobody, got %d", n)
	}
	expectNoMessage(t, conn)
}

func TestBroadcastReload(t *testing.T) {
	srv := newTestApp(t, ModeWS)
	conn := dialWS(t, srv, "sessA")

	srv.BroadcastReload(false)

	msg := readServerMessage(t, conn)
	if msg.Type != "eval" || msg.Code != "window.location.reload();" {
		t.Errorf("unexpected reload message: %+v", msg)
	}
}

func TestBroadcastWithoutChannels(t *testing.T) {
	srv := newTestApp(t, ModeWS)

	if n := srv.BroadcastEval("ping()", false); n != 0 {
		t.Errorf("no channels should mean 0 targets, got %d", n)
	}
}
