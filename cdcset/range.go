package cdcset

import "cdcset/internal/leaf"

// RemoveRange deletes every element within [start, end) and reports how
// many were removed, along with the change-data-capture events produced.
//
// Unlike Put/Remove, this is not an optimistic protocol: the whole
// operation runs under a single index writer-lock hold, since it may
// change the index entries of several leaves at once (retiring emptied
// leaves, re-keying leaves whose max was removed). Leaves whose max
// survives are edited in place and reported with RemoveAt events.
func (s *Set[T]) RemoveRange(start, end Bound[T]) (removedCount int, events []Event[T]) {
	s.idxLock.Lock()
	defer s.idxLock.Unlock()

	first, ok := s.locateRangeStart(start)
	if !ok {
		return 0, nil
	}
	last, ok := s.locateRangeEnd(end)
	if !ok {
		return 0, nil
	}

	type touched struct {
		key T
		l   *leaf.Leaf[T]
	}
	var leaves []touched
	cur := first
	for {
		leaves = append(leaves, touched{key: cur.Key, l: cur.Value})
		if s.eq(cur.Key, last.Key) {
			break
		}
		next, ok := s.index.Next(cur)
		if !ok {
			break
		}
		cur = next
	}

	for i, t := range leaves {
		isFirst := i == 0
		isLast := i == len(leaves)-1
		t.l.Lock()

		startIdx := 0
		if isFirst {
			startIdx = t.l.Rank(start, true)
		}
		endIdx := t.l.Len()
		if isLast {
			endIdx = t.l.Rank(end, false)
		}
		if startIdx >= endIdx {
			t.l.Unlock()
			continue
		}

		removedHere := t.l.RemoveMiddle(startIdx, endIdx)
		removedCount += len(removedHere)

		newMax, hasMax := t.l.Last()
		switch {
		case !hasMax:
			t.l.Unlock()
			s.index.Remove(t.key)
			events = append(events, removeNodeEvent[T](t.key))
		case !s.eq(newMax, t.key):
			contents := append([]T(nil), t.l.Elements()...)
			t.l.Unlock()
			s.index.Remove(t.key)
			s.index.Insert(newMax, t.l)
			events = append(events, removeNodeEvent[T](t.key), insertNodeEvent(newMax, contents))
		default:
			t.l.Unlock()
			for _, e := range removedHere {
				events = append(events, removeAtEvent(t.key, e))
			}
		}
	}

	return removedCount, events
}
