package server

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/violit-dev/violit/pkg/component"
	"github.com/violit-dev/violit/pkg/push"
)

// dispatchResult carries everything one action produced.
type dispatchResult struct {
	ran   bool
	dirty []*component.Component
	evals []string
}

// dispatch runs a component action and collects the resulting
// incremental render and queued evals. An unknown action id is a no-op,
// never an error. Panics in user callbacks are contained here.
func (s *Server) dispatch(ctx context.Context, transport, sessionID, componentID string, value any) dispatchResult {
	_, span := s.tracer.Start(ctx, "violit.action",
		trace.WithAttributes(
			attribute.String("component.id", componentID),
			attribute.String("transport", transport)))
	defer span.End()

	var res dispatchResult

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("action panic",
					"component_id", componentID,
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()
		res.ran = s.runtime.RunAction(sessionID, componentID, value)
	}()

	if !res.ran {
		s.metrics.actionsTotal.WithLabelValues(transport, "noop").Inc()
		return res
	}
	s.metrics.actionsTotal.WithLabelValues(transport, "ok").Inc()

	res.evals = s.runtime.DrainEvals(sessionID)
	res.dirty = s.runtime.DirtyRender(sessionID)
	s.metrics.dirtySize.Observe(float64(len(res.dirty)))

	return res
}

// handleIndex serves the full page render.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)

	main, sidebar := s.runtime.FullRender(sid)
	s.metrics.fullRenders.Inc()
	s.metrics.sessionsActive.Set(float64(s.runtime.Sessions().Len()))

	sidebarStyle := ""
	if sidebar == "" {
		sidebarStyle = "display: none;"
	}

	data := shellData{
		Title:        s.config.Title,
		Mode:         string(s.config.Mode),
		Main:         template.HTML(main),
		Sidebar:      template.HTML(sidebar),
		SidebarStyle: template.CSS(sidebarStyle),
		CSRFToken:    s.csrfToken(sid),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shellTemplate.Execute(w, data); err != nil {
		s.logger.Error("shell render failed", "error", err)
	}
}

// handleAction is the stateless fallback: one POST, one response body.
// The body leads with the clicked component's own fresh HTML (even when
// it is not dirty, so the client always sees up-to-date content for what
// it just touched), followed by other dirty components as out-of-band
// fragments and any queued evals as a final injector block.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	cid := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	token := r.PostFormValue("_csrf_token")
	if token == "" {
		token = r.Header.Get("X-CSRF-Token")
	}
	if !s.verifyCSRF(sid, token) {
		s.metrics.actionsTotal.WithLabelValues("lite", "forbidden").Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":"invalid CSRF token"}`)
		return
	}

	var value any
	if _, ok := r.PostForm["value"]; ok {
		value = r.PostFormValue("value")
	}

	res := s.dispatch(r.Context(), "lite", sid, cid, value)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !res.ran {
		return
	}

	var clicked *component.Component
	others := make([]*component.Component, 0, len(res.dirty))
	for _, c := range res.dirty {
		if c.ID == cid {
			clicked = c
		} else {
			others = append(others, c)
		}
	}
	if clicked == nil {
		clicked = s.runtime.Build(sid, cid)
	}

	if clicked != nil {
		io.WriteString(w, clicked.Render())
	}
	io.WriteString(w, s.lite.WrapOOB(others))
	io.WriteString(w, s.lite.EvalInjector(res.evals))
}

// handleWebSocket upgrades the connection and runs the session's read
// loop. Each connection reads on its own goroutine, so one session
// awaiting input never stalls another. Closing the channel releases the
// transport handle only; the session store survives for reconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.ws.Attach(sid, conn)
	s.metrics.activeChannels.Inc()
	s.logger.Debug("websocket connected", "session_id", sid)

	defer func() {
		s.ws.Detach(sid, conn)
		conn.Close()
		s.metrics.activeChannels.Dec()
		s.logger.Debug("websocket disconnected", "session_id", sid)
	}()

	for {
		if s.config.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		}

		var msg push.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Warn("read error", "session_id", sid, "error", err)
			}
			return
		}

		s.runtime.Sessions().Touch(sid)

		if msg.Type != "click" {
			continue
		}

		if !s.verifyCSRF(sid, msg.CSRFToken) {
			s.metrics.actionsTotal.WithLabelValues("ws", "forbidden").Inc()
			s.ws.SendError(sid, "invalid CSRF token")
			continue
		}

		res := s.dispatch(r.Context(), "ws", sid, msg.ID, msg.Value)
		if !res.ran {
			continue
		}

		for _, code := range res.evals {
			s.ws.PushEval(sid, code)
			s.metrics.evalsTotal.Inc()
		}
		if len(res.dirty) > 0 {
			s.ws.PushUpdates(sid, res.dirty)
			s.metrics.pushesTotal.Inc()
		}
	}
}
