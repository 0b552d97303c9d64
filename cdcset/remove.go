package cdcset

import "cdcset/internal/leaf"

// Remove deletes the element equal to q, if present, reporting whether
// anything was removed.
func (s *Set[T]) Remove(q T) bool {
	_, ok := s.RemoveCDC(q)
	return ok
}

// RemoveCDC deletes the element equal to q and returns it, if present.
func (s *Set[T]) RemoveCDC(q T) (removed T, ok bool) {
	removed, ok, _ = s.removeCDC(q)
	return removed, ok
}

// RemoveCDCEvents is RemoveCDC plus the ordered batch of change-data-
// capture events the operation produced.
func (s *Set[T]) RemoveCDCEvents(q T) (removed T, ok bool, events []Event[T]) {
	return s.removeCDC(q)
}

func (s *Set[T]) removeCDC(q T) (removed T, ok bool, events []Event[T]) {
	for {
		s.idxLock.RLock()

		entry, found := s.index.LowerBound(q)
		if !found {
			s.idxLock.RUnlock()
			var zero T
			return zero, false, nil
		}

		target := entry.Value
		target.Lock()
		oldMax, hadMax := target.Last()
		if !hadMax {
			target.Unlock()
			s.idxLock.RUnlock()
			continue
		}

		removed, deleted := target.Delete(q)
		if !deleted {
			target.Unlock()
			s.idxLock.RUnlock()
			var zero T
			return zero, false, nil
		}

		if target.Len() > 0 {
			newMax, _ := target.Last()
			if s.eq(newMax, oldMax) {
				events = []Event[T]{removeAtEvent(oldMax, removed)}
				target.Unlock()
				s.idxLock.RUnlock()
				return removed, true, events
			}
			target.Unlock()
			s.idxLock.RUnlock()
			events, retryOK := s.commitRemoveUpdateMax(target, oldMax)
			if !retryOK {
				continue
			}
			return removed, true, events
		}

		target.Unlock()
		s.idxLock.RUnlock()
		events, retryOK := s.commitMakeUnreachable(target, oldMax)
		if !retryOK {
			continue
		}
		return removed, true, events
	}
}

func (s *Set[T]) commitRemoveUpdateMax(target *leaf.Leaf[T], oldMax T) (events []Event[T], validated bool) {
	s.idxLock.Lock()
	defer s.idxLock.Unlock()

	entry, found := s.index.Get(oldMax)
	if !found || entry.Value != target {
		return nil, false
	}

	target.Lock()
	newMax, _ := target.Last()
	contents := append([]T(nil), target.Elements()...)
	target.Unlock()

	s.index.Remove(oldMax)
	s.index.Insert(newMax, target)

	return []Event[T]{removeNodeEvent[T](oldMax), insertNodeEvent(newMax, contents)}, true
}

func (s *Set[T]) commitMakeUnreachable(target *leaf.Leaf[T], oldMax T) (events []Event[T], validated bool) {
	s.idxLock.Lock()
	defer s.idxLock.Unlock()

	entry, found := s.index.Get(oldMax)
	if !found || entry.Value != target {
		return nil, false
	}

	target.Lock()
	empty := target.Len() == 0
	target.Unlock()
	if !empty {
		// A racing insert repopulated the leaf between our two lock
		// windows. The index's max for it may now be stale, so this
		// attempt must retry from the top rather than report success.
		return nil, false
	}

	s.index.Remove(oldMax)
	return []Event[T]{removeNodeEvent[T](oldMax)}, true
}
