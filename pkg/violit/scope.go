package violit

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/violit-dev/violit/pkg/store"
)

// Layout selects which rendering root a component registers into.
type Layout string

const (
	// LayoutMain targets the main content area.
	LayoutMain Layout = "main"

	// LayoutSidebar targets the sidebar.
	LayoutSidebar Layout = "sidebar"
)

// scope holds the ambient values for one goroutine. Multiple sessions'
// render passes may be interleaved on different goroutines; each sees
// only its own scope.
type scope struct {
	// store is the session store reads and writes resolve against.
	// nil means no session is active; reads and registrations then fall
	// back to the process-wide static store.
	store *store.Store

	// sessionID identifies the session, for push targeting.
	sessionID string

	// rendering is the id of the component currently being rendered.
	// Empty while executing action callbacks.
	rendering string

	// fragment is the enclosing fragment id, if any.
	fragment string

	// layout is the current layout target.
	layout Layout
}

// scopes stores the per-goroutine scope records.
var scopes sync.Map

// defaultStore is the process-wide static store, used when no session
// scope is active. Set once at runtime construction.
var defaultStore atomic.Pointer[store.Store]

// SetDefaultStore installs the process-wide static store that scope
// lookups fall back to outside any session. The runtime calls this once
// at construction; installing another store re-points every
// out-of-session read in the process.
func SetDefaultStore(s *store.Store) {
	defaultStore.Store(s)
}

// goroutineID extracts the current goroutine's id from the runtime stack.
// An implementation detail; never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack header is "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentScope returns the goroutine's scope record, creating it on
// first use. Only the Push* entry points call this; the record is
// removed again once every pushed value has been restored, so a
// goroutine that has fully unwound leaves nothing behind.
func currentScope() *scope {
	gid := goroutineID()

	if sc, ok := scopes.Load(gid); ok {
		return sc.(*scope)
	}

	sc := &scope{layout: LayoutMain}
	scopes.Store(gid, sc)
	return sc
}

// peekScope returns the goroutine's scope record without creating one.
func peekScope() *scope {
	if sc, ok := scopes.Load(goroutineID()); ok {
		return sc.(*scope)
	}
	return nil
}

// unwound reports whether every pushed value has been restored.
func (sc *scope) unwound() bool {
	return sc.store == nil && sc.sessionID == "" && sc.rendering == "" &&
		sc.fragment == "" && sc.layout == LayoutMain
}

// releaseScope drops the goroutine's scope record once it has fully
// unwound. Goroutine ids are never reused, so a record kept past the
// goroutine's lifetime would leak.
func releaseScope(sc *scope) {
	if !sc.unwound() {
		return
	}
	gid := goroutineID()
	if cur, ok := scopes.Load(gid); ok && cur.(*scope) == sc {
		scopes.Delete(gid)
	}
}

// Token restores a previously entered scope value. Tokens must be
// restored in reverse entry order on the goroutine that created them:
// a stack discipline, not assignment.
type Token struct {
	restore func()
}

// Restore reinstates the value that was current when the token was
// created. Restoring a zero Token is a no-op.
func (t Token) Restore() {
	if t.restore != nil {
		t.restore()
	}
}

// PushSession enters a session scope. The returned token restores the
// previous session on Restore.
func PushSession(sessionID string, st *store.Store) Token {
	sc := currentScope()
	prevID, prevStore := sc.sessionID, sc.store
	sc.sessionID = sessionID
	sc.store = st
	return Token{restore: func() {
		sc.sessionID = prevID
		sc.store = prevStore
		releaseScope(sc)
	}}
}

// PushRendering marks a component as currently rendering.
func PushRendering(componentID string) Token {
	sc := currentScope()
	prev := sc.rendering
	sc.rendering = componentID
	return Token{restore: func() {
		sc.rendering = prev
		releaseScope(sc)
	}}
}

// PushFragment enters a fragment nesting scope.
func PushFragment(fragmentID string) Token {
	sc := currentScope()
	prev := sc.fragment
	sc.fragment = fragmentID
	return Token{restore: func() {
		sc.fragment = prev
		releaseScope(sc)
	}}
}

// PushLayout sets the layout target.
func PushLayout(l Layout) Token {
	sc := currentScope()
	prev := sc.layout
	sc.layout = l
	return Token{restore: func() {
		sc.layout = prev
		releaseScope(sc)
	}}
}

// WithSession runs fn inside a session scope, restoring the previous
// scope on all exit paths.
func WithSession(sessionID string, st *store.Store, fn func()) {
	t := PushSession(sessionID, st)
	defer t.Restore()
	fn()
}

// WithRendering runs fn with the given component marked as rendering.
func WithRendering(componentID string, fn func()) {
	t := PushRendering(componentID)
	defer t.Restore()
	fn()
}

// WithFragment runs fn inside a fragment scope.
func WithFragment(fragmentID string, fn func()) {
	t := PushFragment(fragmentID)
	defer t.Restore()
	fn()
}

// WithLayout runs fn with the given layout target.
func WithLayout(l Layout, fn func()) {
	t := PushLayout(l)
	defer t.Restore()
	fn()
}

// SessionID returns the ambient session id, or "" outside a session.
func SessionID() string {
	if sc := peekScope(); sc != nil {
		return sc.sessionID
	}
	return ""
}

// InSession reports whether a session scope is active.
func InSession() bool {
	sc := peekScope()
	return sc != nil && sc.store != nil
}

// CurrentStore returns the store ambient reads and registrations resolve
// against: the session store when a session is active, otherwise the
// process-wide static store. May be nil before the runtime is built.
func CurrentStore() *store.Store {
	if sc := peekScope(); sc != nil && sc.store != nil {
		return sc.store
	}
	return defaultStore.Load()
}

// RenderingComponent returns the id of the component currently being
// rendered, or "" outside a render pass.
func RenderingComponent() string {
	if sc := peekScope(); sc != nil {
		return sc.rendering
	}
	return ""
}

// CurrentFragment returns the enclosing fragment id, or "".
func CurrentFragment() string {
	if sc := peekScope(); sc != nil {
		return sc.fragment
	}
	return ""
}

// CurrentLayout returns the current layout target.
func CurrentLayout() Layout {
	if sc := peekScope(); sc != nil {
		return sc.layout
	}
	return LayoutMain
}
