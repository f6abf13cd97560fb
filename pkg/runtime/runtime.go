// Package runtime wires the reactive primitives into a working UI core:
// it owns the static registry and the session store manager, accepts
// component registrations from the widget layer, and orchestrates full
// and incremental (dirty) renders.
package runtime

import (
	"log/slog"
	"strings"

	"github.com/violit-dev/violit/pkg/component"
	"github.com/violit-dev/violit/pkg/store"
	"github.com/violit-dev/violit/pkg/violit"
)

// Registrar is the registration surface consumed by the widget layer.
// Widgets register a render function and an optional action under an id;
// where the component lands (static vs session, main vs sidebar, nested
// in a fragment) is decided from ambient scope, so an alternative
// declarative backend could be substituted without touching widget code.
type Registrar interface {
	// Register records a component builder and optional action under id.
	// Registering an existing id overwrites its builder and action.
	Register(id string, builder store.Builder, action store.Action)

	// NextID returns a fresh component id with the given prefix.
	NextID(prefix string) string
}

// Runtime is the violit core: static registry, session stores, and the
// render orchestrator.
type Runtime struct {
	static   *store.Store
	sessions *store.Manager
	logger   *slog.Logger
}

// New creates a Runtime. Components registered before any session scope
// is entered land in the process-wide static registry and are visible to
// every session.
//
// A process hosts one Runtime: construction points the package-wide
// out-of-session fallback at this instance's static registry, so a
// second Runtime would silently capture the first one's out-of-session
// reads and registrations.
func New(config store.Config, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}

	static := store.New(0)
	violit.SetDefaultStore(static)

	return &Runtime{
		static:   static,
		sessions: store.NewManager(config, static.ComponentCount, logger),
		logger:   logger.With("component", "runtime"),
	}
}

// Static returns the process-wide static registry.
func (r *Runtime) Static() *store.Store {
	return r.static
}

// Sessions returns the session store manager.
func (r *Runtime) Sessions() *store.Manager {
	return r.sessions
}

// Close releases the runtime's background resources.
func (r *Runtime) Close() {
	r.sessions.Close()
}

// EnterSession resolves (creating if needed) the session's store and
// enters its scope. The returned token restores the previous scope.
func (r *Runtime) EnterSession(sessionID string) violit.Token {
	return violit.PushSession(sessionID, r.sessions.GetOrCreate(sessionID))
}

// WithSession runs fn inside the session's scope.
func (r *Runtime) WithSession(sessionID string, fn func()) {
	t := r.EnterSession(sessionID)
	defer t.Restore()
	fn()
}

// NextID returns a fresh component id from the ambient store's counter.
func (r *Runtime) NextID(prefix string) string {
	return r.targetStore().NextID(prefix)
}

// Register records a component under id, routed by ambient scope:
// outside any session the static registry is targeted; inside a fragment
// the component joins the fragment's child list rather than a top-level
// order; a sidebar layout target wins even inside a fragment, because
// the sidebar is a separate rendering root rather than fragment content.
func (r *Runtime) Register(id string, builder store.Builder, action store.Action) {
	st := r.targetStore()
	isStatic := !violit.InSession()

	st.SetBuilder(id, builder)
	if action != nil {
		st.SetAction(id, action)
	}

	fragment := violit.CurrentFragment()
	layout := violit.CurrentLayout()

	switch {
	case layout == violit.LayoutSidebar:
		st.AppendSidebar(id, isStatic)
	case fragment != "":
		st.AppendFragmentChild(fragment, id)
	default:
		st.AppendMain(id, isStatic)
	}
}

// Fragment registers a named nesting scope that collects its children's
// registrations for localized re-rendering. The body runs on every
// render of the fragment; children re-register fresh each pass and their
// HTML is concatenated in registration order.
func (r *Runtime) Fragment(id string, body func()) {
	if id == "" {
		id = r.NextID("fragment")
	}

	builder := func() *component.Component {
		st := violit.CurrentStore()
		if st == nil {
			st = r.static
		}
		st.ResetFragment(id)

		// The body runs with the fragment as both nesting scope and
		// render target, so signal reads in the body itself depend on
		// the fragment.
		violit.WithFragment(id, func() {
			violit.WithRendering(id, body)
		})

		children := st.FragmentChildren(id)
		parts := make([]string, 0, len(children))
		for _, cid := range children {
			b, ok := r.lookupBuilder(st, cid)
			if !ok {
				continue
			}
			var html string
			childID := cid
			childBuilder := b
			violit.WithRendering(childID, func() {
				if c := childBuilder(); c != nil {
					html = c.Render()
				}
			})
			parts = append(parts, html)
		}

		inner := `<div id="` + id + `" class="fragment">` + strings.Join(parts, " ") + `</div>`
		return &component.Component{
			Tag:     "div",
			ID:      id + "_wrapper",
			Content: inner,
		}
	}

	r.Register(id, builder, nil)
}

// Eval queues raw client-side code on the ambient session for delivery
// with the next push. Used for ephemeral effects that are not
// component-shaped.
func (r *Runtime) Eval(code string) {
	r.targetStore().QueueEval(code)
}

func (r *Runtime) targetStore() *store.Store {
	if st := violit.CurrentStore(); st != nil {
		return st
	}
	return r.static
}

// lookupBuilder resolves a component id against the session store first,
// falling back to the static registry. Ids with no builder are skipped
// silently; stale tracker edges make this a routine case, not an error.
func (r *Runtime) lookupBuilder(st *store.Store, id string) (store.Builder, bool) {
	if st != nil {
		if b, ok := st.Builder(id); ok {
			return b, true
		}
	}
	if st != r.static {
		if b, ok := r.static.Builder(id); ok {
			return b, true
		}
	}
	return nil, false
}

// lookupAction resolves an action id session-first, static fallback.
func (r *Runtime) lookupAction(st *store.Store, id string) (store.Action, bool) {
	if st != nil {
		if a, ok := st.Action(id); ok {
			return a, true
		}
	}
	if st != r.static {
		if a, ok := r.static.Action(id); ok {
			return a, true
		}
	}
	return nil, false
}
