package cdcset

import "testing"

func TestRemoveReportsHitAndMiss(t *testing.T) {
	s := New[int](intLess)
	s.Insert(1)
	s.Insert(2)

	if !s.Remove(1) {
		t.Fatalf("Remove(1) on a set containing 1: expected true")
	}
	if s.Contains(1) {
		t.Fatalf("Contains(1) after Remove(1): expected false")
	}
	if s.Remove(1) {
		t.Fatalf("Remove(1) a second time: expected false")
	}
	if s.Remove(99) {
		t.Fatalf("Remove(99) for a value never inserted: expected false")
	}
}

func TestRemoveCDCReturnsRemovedValue(t *testing.T) {
	s := New[int](intLess)
	s.Insert(5)

	removed, ok := s.RemoveCDC(5)
	if !ok || removed != 5 {
		t.Fatalf("RemoveCDC(5) = (%d, %v), want (5, true)", removed, ok)
	}
}

func TestRemoveCDCEventsInPlaceEmitsRemoveAt(t *testing.T) {
	s := New[int](intLess)
	s.Insert(1)
	s.Insert(2)
	s.Insert(3)

	_, ok, events := s.RemoveCDCEvents(2)
	if !ok {
		t.Fatalf("expected RemoveCDCEvents(2) to report ok=true")
	}
	if len(events) != 1 || events[0].Kind != RemoveAt || events[0].Element != 2 {
		t.Fatalf("events = %+v, want exactly one RemoveAt(2)", events)
	}
}

func TestRemoveLastElementRetiresLeaf(t *testing.T) {
	s := New[int](intLess)
	s.Insert(1)

	_, ok, events := s.RemoveCDCEvents(1)
	if !ok {
		t.Fatalf("expected RemoveCDCEvents(1) to report ok=true")
	}
	if len(events) != 1 || events[0].Kind != RemoveNode {
		t.Fatalf("events = %+v, want exactly one RemoveNode", events)
	}
	if !s.IsEmpty() {
		t.Fatalf("IsEmpty() after removing the only element: expected true")
	}
}

func TestRemoveUpdatesIndexWhenMaxChanges(t *testing.T) {
	s, err := WithMaximumNodeSize[int](intLess, MinimumNodeSize)
	if err != nil {
		t.Fatalf("WithMaximumNodeSize: %v", err)
	}

	// Force splits so there are several leaves (ascending inserts with a
	// node size of 2 leave [0], [1], ..., [17], [18 19]), then remove from
	// the top down: removing 19 removes the max of the two-element top
	// leaf, so its index entry must be rewritten under 18 rather than left
	// stale, or the later removes could not find their leaves.
	for i := 0; i < 20; i++ {
		s.Insert(i)
	}
	if !s.Contains(0) {
		t.Fatalf("sanity check: expected 0 present before the targeted remove")
	}

	removedSomething := false
	for i := 19; i >= 0; i-- {
		if s.Remove(i) {
			removedSomething = true
		}
	}
	if !removedSomething {
		t.Fatalf("expected at least one successful remove")
	}
	if got := s.Len(); got != 0 {
		t.Fatalf("Len() after removing every inserted element = %d, want 0", got)
	}
}

func TestRemoveRangeDeletesHalfOpenInterval(t *testing.T) {
	s := New[int](intLess)
	for i := 0; i < 10; i++ {
		s.Insert(i)
	}

	removedCount, events := s.RemoveRange(
		Bound[int]{Kind: Included, Value: 3},
		Bound[int]{Kind: Excluded, Value: 7},
	)
	if removedCount != 4 {
		t.Fatalf("RemoveRange([3,7)) removed %d elements, want 4", removedCount)
	}
	if len(events) == 0 {
		t.Fatalf("RemoveRange([3,7)) produced no events")
	}
	for _, v := range []int{3, 4, 5, 6} {
		if s.Contains(v) {
			t.Fatalf("Contains(%d) after RemoveRange([3,7)): expected false", v)
		}
	}
	for _, v := range []int{0, 1, 2, 7, 8, 9} {
		if !s.Contains(v) {
			t.Fatalf("Contains(%d) after RemoveRange([3,7)): expected true", v)
		}
	}
}

func TestRemoveRangeOnEmptySetIsNoop(t *testing.T) {
	s := New[int](intLess)
	removedCount, events := s.RemoveRange(Bound[int]{Kind: Unbounded}, Bound[int]{Kind: Unbounded})
	if removedCount != 0 || events != nil {
		t.Fatalf("RemoveRange on an empty set = (%d, %v), want (0, nil)", removedCount, events)
	}
}
