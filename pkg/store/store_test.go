package store

import (
	"sort"
	"testing"
)

func TestStoreValues(t *testing.T) {
	s := New(0)

	if _, ok := s.Value("count"); ok {
		t.Error("unset signal should report ok=false")
	}

	s.SetValue("count", 5)
	v, ok := s.Value("count")
	if !ok || v.(int) != 5 {
		t.Errorf("expected 5, got %v (ok=%v)", v, ok)
	}
}

func TestStoreDrainDirtyExactlyOnce(t *testing.T) {
	s := New(0)

	s.SetValue("count", 1)
	s.SetValue("count", 2)
	s.SetValue("name", "x")

	dirty := s.DrainDirty()
	sort.Strings(dirty)
	if len(dirty) != 2 || dirty[0] != "count" || dirty[1] != "name" {
		t.Errorf("expected [count name], got %v", dirty)
	}

	if again := s.DrainDirty(); again != nil {
		t.Errorf("second drain should be empty, got %v", again)
	}

	s.SetValue("count", 3)
	if dirty := s.DrainDirty(); len(dirty) != 1 || dirty[0] != "count" {
		t.Errorf("expected [count] after new write, got %v", dirty)
	}
}

func TestStoreNextID(t *testing.T) {
	s := New(0)

	if id := s.NextID("button"); id != "button_0" {
		t.Errorf("expected button_0, got %q", id)
	}
	if id := s.NextID("text"); id != "text_1" {
		t.Errorf("expected text_1, got %q", id)
	}
	if n := s.ComponentCount(); n != 2 {
		t.Errorf("expected counter 2, got %d", n)
	}
}

func TestStoreBaselineCounter(t *testing.T) {
	s := New(7)

	if id := s.NextID("button"); id != "button_7" {
		t.Errorf("expected button_7, got %q", id)
	}
}

func TestStoreOrderDedupe(t *testing.T) {
	s := New(0)

	s.AppendMain("c1", true)
	s.AppendMain("c1", true)
	s.AppendMain("c2", true)
	if order := s.MainOrder(); len(order) != 2 || order[0] != "c1" || order[1] != "c2" {
		t.Errorf("expected [c1 c2], got %v", order)
	}

	// Session passes do not dedupe.
	s.AppendSidebar("s1", false)
	s.AppendSidebar("s1", false)
	if order := s.SidebarOrder(); len(order) != 2 {
		t.Errorf("expected duplicate sidebar entries, got %v", order)
	}
}

func TestStoreFragmentChildren(t *testing.T) {
	s := New(0)

	s.AppendFragmentChild("frag", "c1")
	s.AppendFragmentChild("frag", "c2")
	if kids := s.FragmentChildren("frag"); len(kids) != 2 || kids[0] != "c1" {
		t.Errorf("expected [c1 c2], got %v", kids)
	}

	s.ResetFragment("frag")
	if kids := s.FragmentChildren("frag"); len(kids) != 0 {
		t.Errorf("expected empty child list after reset, got %v", kids)
	}
}

func TestStoreEvalQueue(t *testing.T) {
	s := New(0)

	s.QueueEval("a()")
	s.QueueEval("b()")

	evals := s.DrainEvals()
	if len(evals) != 2 || evals[0] != "a()" || evals[1] != "b()" {
		t.Errorf("expected [a() b()], got %v", evals)
	}
	if again := s.DrainEvals(); again != nil {
		t.Errorf("second drain should be empty, got %v", again)
	}
}
