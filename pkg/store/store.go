package store

import (
	"fmt"
	"sync"

	"github.com/violit-dev/violit/pkg/component"
)

// Builder produces a fresh Component. Builders run once per render pass;
// the resulting Component is never mutated, only replaced by id.
type Builder func() *component.Component

// Action is a component callback invoked when the client interacts with
// the component. The value is nil for plain clicks, the submitted value
// otherwise.
type Action func(value any)

// Store is the isolated record of all reactive and UI state for one
// session (or, for the static registry, for the whole process).
//
// All exported methods are safe for concurrent use. Builders and actions
// are stored under the lock but must be invoked outside it.
type Store struct {
	mu sync.Mutex

	values  map[string]any
	tracker *Tracker

	builders map[string]Builder
	actions  map[string]Action

	componentCount int

	mainOrder        []string
	sidebarOrder     []string
	fragmentChildren map[string][]string

	dirty map[string]struct{}

	evalQueue []string
}

// New creates an empty Store whose component counter starts at baseline.
// Session stores pass the static registry's counter as the baseline so
// that static and session component ids never collide.
func New(baseline int) *Store {
	return &Store{
		values:           make(map[string]any),
		tracker:          NewTracker(),
		builders:         make(map[string]Builder),
		actions:          make(map[string]Action),
		componentCount:   baseline,
		fragmentChildren: make(map[string][]string),
		dirty:            make(map[string]struct{}),
	}
}

// Tracker returns the store's dependency tracker.
func (s *Store) Tracker() *Tracker {
	return s.tracker
}

// Value returns the current value of the named signal, if set.
func (s *Store) Value(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok
}

// SetValue stores a new value for the named signal and marks it dirty.
func (s *Store) SetValue(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	s.dirty[name] = struct{}{}
}

// DrainDirty returns the set of signals written since the last drain and
// clears it. A second drain with no intervening write returns nothing.
func (s *Store) DrainDirty() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.dirty) == 0 {
		return nil
	}

	names := make([]string, 0, len(s.dirty))
	for name := range s.dirty {
		names = append(names, name)
	}
	s.dirty = make(map[string]struct{})
	return names
}

// NextID returns the next component id for the given prefix and advances
// the counter. Ids are unique within one store but not stable across
// render passes; callers needing referential stability supply their own
// explicit key instead.
func (s *Store) NextID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("%s_%d", prefix, s.componentCount)
	s.componentCount++
	return id
}

// ComponentCount returns the current value of the component counter.
func (s *Store) ComponentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.componentCount
}

// SetBuilder registers (or overwrites) the builder for a component id.
func (s *Store) SetBuilder(id string, b Builder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builders[id] = b
}

// Builder returns the builder registered for the component id, if any.
func (s *Store) Builder(id string) (Builder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.builders[id]
	return b, ok
}

// SetAction registers (or overwrites) the action for a component id.
func (s *Store) SetAction(id string, a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[id] = a
}

// Action returns the action registered for the component id, if any.
func (s *Store) Action(id string) (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[id]
	return a, ok
}

// AppendMain appends a component id to the main-area order. When dedupe
// is set (the static registration pass) an id already present is left in
// place, so re-running the pass does not duplicate entries.
func (s *Store) AppendMain(id string, dedupe bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mainOrder = appendOrder(s.mainOrder, id, dedupe)
}

// AppendSidebar appends a component id to the sidebar order.
func (s *Store) AppendSidebar(id string, dedupe bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarOrder = appendOrder(s.sidebarOrder, id, dedupe)
}

func appendOrder(order []string, id string, dedupe bool) []string {
	if dedupe {
		for _, existing := range order {
			if existing == id {
				return order
			}
		}
	}
	return append(order, id)
}

// MainOrder returns a copy of the main-area registration order.
func (s *Store) MainOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.mainOrder...)
}

// SidebarOrder returns a copy of the sidebar registration order.
func (s *Store) SidebarOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sidebarOrder...)
}

// ResetFragment clears the child list for a fragment. Fragment builders
// call this before re-executing the fragment body so children register
// fresh on every pass.
func (s *Store) ResetFragment(fragmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragmentChildren[fragmentID] = nil
}

// AppendFragmentChild appends a component id to a fragment's child list.
func (s *Store) AppendFragmentChild(fragmentID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragmentChildren[fragmentID] = append(s.fragmentChildren[fragmentID], id)
}

// FragmentChildren returns a copy of a fragment's child ids in
// registration order.
func (s *Store) FragmentChildren(fragmentID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fragmentChildren[fragmentID]...)
}

// QueueEval queues raw client-side code for delivery with the next push.
// This is the transport primitive behind ephemeral effects.
func (s *Store) QueueEval(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evalQueue = append(s.evalQueue, code)
}

// DrainEvals returns and clears the queued client-side code snippets.
func (s *Store) DrainEvals() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	evals := s.evalQueue
	s.evalQueue = nil
	return evals
}
