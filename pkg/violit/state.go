package violit

// State is a named, session-scoped reactive value cell. The State itself
// is a key, not a container: the current value lives in the ambient
// session store, so one State handle can be shared safely across
// concurrent sessions, each resolving it against its own store.
type State[T any] struct {
	name string
	def  T
}

// NewState creates a signal with the given name and default value.
// Names are unique within a session; two States with the same name are
// the same signal.
func NewState[T any](name string, def T) State[T] {
	return State[T]{name: name, def: def}
}

// Name returns the signal's name.
func (s State[T]) Name() string {
	return s.name
}

// Default returns the signal's default value.
func (s State[T]) Default() T {
	return s.def
}

// Value returns the signal's current value in the ambient session store.
// If a component is currently rendering, a dependency edge from this
// signal to that component is registered. Outside any session, or after
// TTL eviction wiped the store, the default is returned.
func (s State[T]) Value() T {
	st := CurrentStore()
	if st == nil {
		return s.def
	}

	if cid := RenderingComponent(); cid != "" {
		st.Tracker().Register(s.name, cid)
	}

	return s.resolve(st.Value(s.name))
}

// Peek returns the current value without registering a dependency.
func (s State[T]) Peek() T {
	st := CurrentStore()
	if st == nil {
		return s.def
	}
	return s.resolve(st.Value(s.name))
}

// Set writes a new value into the ambient session store and marks the
// signal dirty for the next incremental render. Outside any session the
// write targets the static store.
func (s State[T]) Set(value T) {
	st := CurrentStore()
	if st == nil {
		return
	}
	st.SetValue(s.name, value)
}

// Update applies fn to the current value and stores the result.
func (s State[T]) Update(fn func(T) T) {
	s.Set(fn(s.Peek()))
}

func (s State[T]) resolve(raw any, ok bool) T {
	if !ok {
		return s.def
	}
	v, ok := raw.(T)
	if !ok {
		// A value of a different type under this name (e.g. left over
		// from a stale store) reads as the default, not an error.
		return s.def
	}
	return v
}
