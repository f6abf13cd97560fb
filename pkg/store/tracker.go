package store

import "sync"

// Tracker maps a signal name to the set of component ids that read it
// during a render pass. Edges accumulate monotonically: there is no
// removal operation. Stale edges (components that no longer exist) are
// harmless because the orchestrator skips ids with no registered builder.
type Tracker struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]struct{}
}

// NewTracker creates an empty dependency tracker.
func NewTracker() *Tracker {
	return &Tracker{
		subscribers: make(map[string]map[string]struct{}),
	}
}

// Register records that componentID read the named signal.
func (t *Tracker) Register(signal, componentID string) {
	if signal == "" || componentID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.subscribers[signal]
	if !ok {
		set = make(map[string]struct{})
		t.subscribers[signal] = set
	}
	set[componentID] = struct{}{}
}

// DirtyComponents returns the ids of all components that depend on the
// named signal. The returned slice is a copy.
func (t *Tracker) DirtyComponents(signal string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set := t.subscribers[signal]
	if len(set) == 0 {
		return nil
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Depends reports whether componentID is subscribed to the named signal.
func (t *Tracker) Depends(signal, componentID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.subscribers[signal][componentID]
	return ok
}
