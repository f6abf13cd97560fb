// Package server exposes the violit runtime over HTTP: a full page
// render at the root, a stateless action endpoint, and a persistent
// WebSocket channel, with per-session cookies and CSRF protection.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/violit-dev/violit/pkg/push"
	"github.com/violit-dev/violit/pkg/runtime"
)

// SessionCookieName is the name of the session id cookie. All tabs of
// one browser share the session.
const SessionCookieName = "violit_sid"

// Server is the HTTP and WebSocket front end of a violit application.
type Server struct {
	config  *Config
	runtime *runtime.Runtime

	ws   *push.WSEngine
	lite *push.LiteEngine

	upgrader websocket.Upgrader

	router     chi.Router
	httpServer *http.Server

	csrfSecret []byte

	metrics *serverMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// New creates a Server for the given runtime.
func New(config *Config, rt *runtime.Runtime) *Server {
	config = config.withDefaults()

	logger := slog.Default().With("component", "server")

	secret := config.CSRFSecret
	if secret == nil {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			logger.Error("csrf secret generation failed", "error", err)
		}
	}

	s := &Server{
		config:  config,
		runtime: rt,
		ws:      push.NewWSEngine(config.WriteTimeout, logger),
		lite:    push.NewLiteEngine(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		csrfSecret: secret,
		metrics:    newServerMetrics(rt),
		tracer:     otel.Tracer("violit"),
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(s.sessionMiddleware)
	r.Get("/", s.handleIndex)
	r.Post("/action/{id}", s.handleAction)
	r.Get("/ws", s.handleWebSocket)
	r.Handle("/metrics", promhttp.Handler())
	s.router = r

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Engine returns the push engine for the configured transport mode.
// Widgets use it for click attributes.
func (s *Server) Engine() push.Engine {
	if s.config.Mode == ModeLite {
		return s.lite
	}
	return s.ws
}

// Runtime returns the server's runtime.
func (s *Server) Runtime() *runtime.Runtime {
	return s.runtime
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: s.router,
	}

	s.logger.Info("listening",
		"address", s.config.Address,
		"mode", string(s.config.Mode))

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and the runtime's background
// work.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.runtime.Close()

	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

type ctxKey int

const sessionIDKey ctxKey = iota

// sessionMiddleware resolves the session id from the cookie, minting a
// new id on first contact, and refreshes the store's TTL.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			sid = cookie.Value
		}

		if sid == "" {
			sid = newSessionID()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}

		s.runtime.Sessions().Touch(sid)

		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID returns the request's session id.
func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(sessionIDKey).(string)
	return sid
}

// newSessionID mints a cryptographically random session id.
func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
