// Package violit provides the reactive primitives of the violit runtime:
// named signals (State), lazily evaluated derived values (Computed), and
// the four ambient scopes that thread through render code without
// explicit parameter passing: the current session store, the id of the
// component being rendered, the enclosing fragment, and the layout
// target.
//
// Scopes are goroutine-local. Entering one returns a Token whose Restore
// reinstates the previous value; the With* helpers pair entry and
// restore and are panic-safe. Reading a State's value while a rendering
// scope is active registers a dependency edge from the signal to that
// component in the session's tracker; reading outside a render pass does
// not.
package violit
