// Package push delivers render output to the browser over one of two
// interchangeable transports: a persistent WebSocket channel with
// per-session targeted sends, and a stateless request/response mode that
// smuggles secondary updates into a single response body via out-of-band
// markers.
package push
