package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/violit-dev/violit/pkg/component"
	"github.com/violit-dev/violit/pkg/violit"
)

// Broadcasting fans one server-side occurrence out to every connected
// session over the persistent channel. It is WS-only: lite mode has no
// server-initiated path, so broadcasts there are dropped the same way
// pushes to a disconnected session are.
//
// excludeCurrent resolves the caller's own session from ambient scope,
// so an action handler can notify everyone else without echoing to the
// session that triggered it. Outside any session scope it excludes
// nothing.

// BroadcastEval runs raw code in every connected session's browser.
// Returns the number of sessions targeted.
func (s *Server) BroadcastEval(code string, excludeCurrent bool) int {
	n := s.ws.BroadcastEval(code, s.broadcastExclusion(excludeCurrent))
	s.metrics.broadcastsTotal.Inc()
	return n
}

// BroadcastEvent dispatches a named DOM event carrying data on every
// connected session's window object; client code subscribes with plain
// addEventListener. Map payloads get a random _eventId added for
// client-side deduplication. Data must be JSON-serializable.
func (s *Server) BroadcastEvent(name string, data map[string]any, excludeCurrent bool) int {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["_eventId"]; !ok {
		data["_eventId"] = newEventID()
	}

	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("broadcast event payload not serializable",
			"event", name, "error", err)
		return 0
	}

	nameJSON, _ := json.Marshal(name)
	code := fmt.Sprintf(
		"window.dispatchEvent(new CustomEvent(%s, {detail: %s}));",
		nameJSON, payload)

	return s.BroadcastEval(code, excludeCurrent)
}

// BroadcastUpdate re-renders the component inside each connected
// session's own scope and pushes the per-session HTML, so sessions with
// different signal values each see their own rendering. Sessions where
// the id resolves to no builder are skipped.
func (s *Server) BroadcastUpdate(componentID string, excludeCurrent bool) int {
	exclude := s.broadcastExclusion(excludeCurrent)

	targets := 0
	for _, sid := range s.ws.SessionIDs() {
		if sid == exclude {
			continue
		}
		c := s.runtime.Build(sid, componentID)
		if c == nil {
			continue
		}
		s.ws.PushUpdates(sid, []*component.Component{c})
		targets++
	}

	s.metrics.broadcastsTotal.Inc()
	return targets
}

// BroadcastReload reloads every connected session's page.
func (s *Server) BroadcastReload(excludeCurrent bool) int {
	return s.BroadcastEval("window.location.reload();", excludeCurrent)
}

func (s *Server) broadcastExclusion(excludeCurrent bool) string {
	if !excludeCurrent {
		return ""
	}
	return violit.SessionID()
}

func newEventID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
