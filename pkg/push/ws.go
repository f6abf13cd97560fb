package push

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/violit-dev/violit/pkg/component"
)

// WSEngine is the persistent-channel push engine. It holds at most one
// open WebSocket per session and targets all sends at the originating
// session only. A push to a session with no open channel is silently
// dropped with no retry and no queue; the next reconnect re-issues a
// full render.
type WSEngine struct {
	mu     sync.RWMutex
	conns  map[string]*wsConn
	logger *slog.Logger

	// WriteTimeout bounds each send. Zero means no deadline.
	writeTimeout time.Duration
}

// wsConn serializes writes to one connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSEngine creates a WebSocket push engine.
func NewWSEngine(writeTimeout time.Duration, logger *slog.Logger) *WSEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSEngine{
		conns:        make(map[string]*wsConn),
		logger:       logger.With("component", "ws_engine"),
		writeTimeout: writeTimeout,
	}
}

// Attach binds a connection as the session's push channel, replacing and
// closing any previous one (a reconnect supersedes the old tab).
func (e *WSEngine) Attach(sessionID string, conn *websocket.Conn) {
	e.mu.Lock()
	old := e.conns[sessionID]
	e.conns[sessionID] = &wsConn{conn: conn}
	e.mu.Unlock()

	if old != nil {
		old.conn.Close()
	}

	e.logger.Debug("channel attached", "session_id", sessionID)
}

// Detach releases the session's push channel if it is still conn.
// The session store is untouched; TTL eviction is the only
// store-destruction path.
func (e *WSEngine) Detach(sessionID string, conn *websocket.Conn) {
	e.mu.Lock()
	if cur, ok := e.conns[sessionID]; ok && cur.conn == conn {
		delete(e.conns, sessionID)
	}
	e.mu.Unlock()

	e.logger.Debug("channel detached", "session_id", sessionID)
}

// Connected reports whether the session has an open push channel.
func (e *WSEngine) Connected(sessionID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.conns[sessionID]
	return ok
}

// PushUpdates sends one update message carrying the re-rendered
// components to the session's channel.
func (e *WSEngine) PushUpdates(sessionID string, components []*component.Component) {
	if len(components) == 0 {
		return
	}

	payload := make([]Update, 0, len(components))
	for _, c := range components {
		payload = append(payload, Update{ID: c.ID, HTML: c.Render()})
	}

	e.send(sessionID, &ServerMessage{Type: "update", Payload: payload})
}

// PushEval sends raw code for the client to execute. Used for ephemeral
// effects that are not component-shaped.
func (e *WSEngine) PushEval(sessionID, code string) {
	e.send(sessionID, &ServerMessage{Type: "eval", Code: code})
}

// SendError reports a rejected message back to the client.
func (e *WSEngine) SendError(sessionID, message string) {
	e.send(sessionID, &ServerMessage{Type: "error", Message: message})
}

func (e *WSEngine) send(sessionID string, msg *ServerMessage) {
	e.mu.RLock()
	wc := e.conns[sessionID]
	e.mu.RUnlock()

	if wc == nil {
		// Not connected: drop. The write that triggered this push
		// still succeeded, only the visual sync is lost until
		// reconnect.
		e.logger.Debug("push dropped, no channel", "session_id", sessionID)
		return
	}

	wc.mu.Lock()
	defer wc.mu.Unlock()

	if e.writeTimeout > 0 {
		wc.conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
	}
	if err := wc.conn.WriteJSON(msg); err != nil {
		e.logger.Warn("push write failed", "session_id", sessionID, "error", err)
		wc.conn.Close()
		e.Detach(sessionID, wc.conn)
	}
}

// SessionIDs returns a snapshot of the sessions with an open channel.
func (e *WSEngine) SessionIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.conns))
	for id := range e.conns {
		ids = append(ids, id)
	}
	return ids
}

// Broadcast sends the message to every connected session except the one
// named by exclude (empty excludes nothing). Per-session failures are
// handled like any other push: the broken channel is dropped, the rest
// still receive. Returns the number of sessions targeted.
func (e *WSEngine) Broadcast(msg *ServerMessage, exclude string) int {
	targets := 0
	for _, sid := range e.SessionIDs() {
		if sid == exclude {
			continue
		}
		e.send(sid, msg)
		targets++
	}

	e.logger.Debug("broadcast", "type", msg.Type, "targets", targets)
	return targets
}

// BroadcastEval sends raw code to every connected session except the
// excluded one. Higher-level broadcast operations (events, reloads) are
// built on this.
func (e *WSEngine) BroadcastEval(code, exclude string) int {
	return e.Broadcast(&ServerMessage{Type: "eval", Code: code}, exclude)
}

// ClickAttrs wires a click to the session's channel.
func (e *WSEngine) ClickAttrs(componentID string) map[string]string {
	return map[string]string{
		"onclick": fmt.Sprintf("window.sendAction('%s')", componentID),
	}
}
