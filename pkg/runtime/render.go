package runtime

import (
	"strings"

	"github.com/violit-dev/violit/pkg/component"
	"github.com/violit-dev/violit/pkg/store"
	"github.com/violit-dev/violit/pkg/violit"
)

// FullRender renders every currently registered component for the
// session, static registrations first, then the session's own, and
// returns the concatenated HTML for the main area and the sidebar.
func (r *Runtime) FullRender(sessionID string) (main, sidebar string) {
	r.WithSession(sessionID, func() {
		main, sidebar = r.renderAll()
	})
	return main, sidebar
}

// renderAll renders inside an already-entered session scope.
func (r *Runtime) renderAll() (main, sidebar string) {
	st := violit.CurrentStore()

	var mainParts, sidebarParts []string

	render := func(ids []string, parts *[]string) {
		for _, id := range ids {
			if c := r.build(st, id); c != nil {
				*parts = append(*parts, c.Render())
			}
		}
	}

	render(r.static.MainOrder(), &mainParts)
	render(r.static.SidebarOrder(), &sidebarParts)

	if st != nil && st != r.static {
		render(st.MainOrder(), &mainParts)
		render(st.SidebarOrder(), &sidebarParts)
	}

	return strings.Join(mainParts, ""), strings.Join(sidebarParts, "")
}

// DirtyRender drains the session's dirty-signal set and rebuilds exactly
// the components that depend on a drained signal. Rebuilding runs each
// builder under its own rendering scope, so the new pass registers fresh
// dependency edges. Order among the returned components is not
// significant; the push engines decide presentation.
func (r *Runtime) DirtyRender(sessionID string) []*component.Component {
	var dirty []*component.Component
	r.WithSession(sessionID, func() {
		dirty = r.renderDirty()
	})
	return dirty
}

// renderDirty renders inside an already-entered session scope.
func (r *Runtime) renderDirty() []*component.Component {
	st := violit.CurrentStore()
	if st == nil {
		return nil
	}

	affected := make(map[string]struct{})
	for _, signal := range st.DrainDirty() {
		for _, id := range st.Tracker().DirtyComponents(signal) {
			affected[id] = struct{}{}
		}
	}

	var components []*component.Component
	for id := range affected {
		if c := r.build(st, id); c != nil {
			components = append(components, c)
		}
	}
	return components
}

// Build renders a single component by id inside the session's scope.
// Returns nil if no builder is registered for the id.
func (r *Runtime) Build(sessionID, id string) *component.Component {
	var c *component.Component
	r.WithSession(sessionID, func() {
		c = r.build(violit.CurrentStore(), id)
	})
	return c
}

func (r *Runtime) build(st *store.Store, id string) *component.Component {
	b, ok := r.lookupBuilder(st, id)
	if !ok {
		return nil
	}

	var c *component.Component
	violit.WithRendering(id, func() {
		c = b()
	})
	return c
}

// RunAction executes the action registered for the component id inside
// the session's scope. An id with no registered action is a silent
// no-op. The rendering scope is deliberately not set during the
// callback: reads inside actions do not create dependency edges.
// Returns whether an action ran.
func (r *Runtime) RunAction(sessionID, id string, value any) bool {
	ran := false
	r.WithSession(sessionID, func() {
		st := violit.CurrentStore()
		action, ok := r.lookupAction(st, id)
		if !ok {
			r.logger.Debug("no action registered", "component_id", id)
			return
		}
		action(value)
		ran = true
	})
	return ran
}

// DrainEvals returns and clears the session's queued client-side code.
func (r *Runtime) DrainEvals(sessionID string) []string {
	var evals []string
	r.WithSession(sessionID, func() {
		evals = violit.CurrentStore().DrainEvals()
	})
	return evals
}
