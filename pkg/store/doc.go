// Package store holds the per-session reactive state for violit
// applications: signal values, the dependency tracker, the component
// registry (builders and actions), ordering lists, and the dirty-signal
// set. Stores are created lazily by a Manager that evicts idle sessions
// after a sliding TTL.
//
// A Store is also used process-wide as the static registry: components
// registered before any session exists live in a single Store shared by
// every session, and freshly created session stores inherit its component
// counter so static and per-session component ids never collide.
package store
