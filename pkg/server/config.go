package server

import (
	"net/http"
	"time"

	"github.com/violit-dev/violit/pkg/store"
)

// Mode selects the push transport.
type Mode string

const (
	// ModeWS serves updates over a persistent WebSocket channel.
	ModeWS Mode = "ws"

	// ModeLite serves updates in stateless request/response exchanges
	// with out-of-band markers.
	ModeLite Mode = "lite"
)

// Config holds configuration for the violit HTTP server.
type Config struct {
	// Address is the address to listen on.
	// Default: ":8000".
	Address string

	// Mode is the push transport.
	// Default: ModeWS.
	Mode Mode

	// Title is the page title of the HTML shell.
	// Default: "Violit App".
	Title string

	// Store configures the session store manager.
	Store store.Config

	// CSRFSecret signs per-session CSRF tokens. When nil a random
	// secret is generated at startup (tokens then do not survive a
	// restart, which only forces a page reload).
	CSRFSecret []byte

	// ReadTimeout bounds each WebSocket read. Zero disables the
	// deadline; the protocol has no heartbeat, so an idle but healthy
	// tab would otherwise be cut off.
	// Default: 0.
	ReadTimeout time.Duration

	// WriteTimeout bounds each WebSocket write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// CheckOrigin validates WebSocket upgrade origins.
	// Default: the gorilla same-origin check.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:         ":8000",
		Mode:            ModeWS,
		Title:           "Violit App",
		Store:           store.DefaultConfig(),
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}

	defaults := DefaultConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.Mode == "" {
		c.Mode = defaults.Mode
	}
	if c.Title == "" {
		c.Title = defaults.Title
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return c
}
