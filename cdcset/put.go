package cdcset

import "cdcset/internal/leaf"

// Insert adds v to the set, reporting whether it was newly inserted (as
// opposed to replacing an element that compared equal).
func (s *Set[T]) Insert(v T) bool {
	_, hadOld := s.PutCDC(v)
	return !hadOld
}

// Put adds v to the set, returning the element it replaced, if any.
func (s *Set[T]) Put(v T) (old T, hadOld bool) {
	old, hadOld = s.PutCDC(v)
	return old, hadOld
}

// PutCDC adds v to the set and returns the element it replaced (normalized:
// hadOld is true only for a genuine equality replacement, never merely
// because the target leaf already existed — spec.md §9.1).
func (s *Set[T]) PutCDC(v T) (old T, hadOld bool) {
	old, hadOld, _ = s.putCDC(v)
	return old, hadOld
}

// PutCDCEvents is PutCDC plus the ordered batch of change-data-capture
// events the operation produced.
func (s *Set[T]) PutCDCEvents(v T) (old T, hadOld bool, events []Event[T]) {
	return s.putCDC(v)
}

func (s *Set[T]) putCDC(v T) (old T, hadOld bool, events []Event[T]) {
	for {
		s.idxLock.RLock()

		target, ok := s.locateForInsert(v)
		if !ok {
			// Index is empty: bootstrap its first leaf under the writer,
			// with v already inside it (an empty leaf has no max to key
			// the index entry on). bootstrap reports the insert itself, so
			// there is no separate in-place phase to run for this v.
			s.idxLock.RUnlock()
			done, events2 := s.bootstrap(v)
			if !done {
				continue
			}
			var zero T
			return zero, false, events2
		}

		target.Lock()
		oldMax, hadMax := target.Last()
		if !hadMax {
			// A concurrent Remove emptied this leaf and has not yet
			// retired it from the index; retry locates a leaf again with
			// an up-to-date view.
			target.Unlock()
			s.idxLock.RUnlock()
			continue
		}

		if target.Len() < s.capacity {
			inserted, idx := target.Insert(v)
			if !inserted {
				replaced := target.Replace(idx, v)
				events = []Event[T]{removeAtEvent(oldMax, replaced), insertAtEvent(oldMax, v)}
				target.Unlock()
				s.idxLock.RUnlock()
				return replaced, true, events
			}

			newMax, _ := target.Last()
			if s.eq(newMax, oldMax) {
				events = []Event[T]{insertAtEvent(oldMax, v)}
				target.Unlock()
				s.idxLock.RUnlock()
				var zero T
				return zero, false, events
			}

			target.Unlock()
			s.idxLock.RUnlock()
			old, hadOld, events, ok = s.commitUpdateMax(target, oldMax)
			if !ok {
				continue
			}
			return old, hadOld, events
		}

		// Full: plan a split.
		target.Unlock()
		s.idxLock.RUnlock()
		old, hadOld, events, ok = s.commitSplit(target, oldMax, v)
		if !ok {
			continue
		}
		return old, hadOld, events
	}
}

// bootstrap creates the set's first leaf containing v, reporting the
// InsertNode event this produces. Returns done=false if another goroutine
// already bootstrapped the index first, in which case the caller must
// retry from the top and let the normal in-place path handle v instead.
func (s *Set[T]) bootstrap(v T) (done bool, events []Event[T]) {
	s.idxLock.Lock()
	defer s.idxLock.Unlock()

	if _, ok := s.index.Front(); ok {
		return false, nil
	}

	l := leaf.New(s.less, s.capacity)
	l.Lock()
	l.Insert(v)
	contents := append([]T(nil), l.Elements()...)
	l.Unlock()
	s.index.Insert(v, l)
	return true, []Event[T]{insertNodeEvent(v, contents)}
}

// commitUpdateMax re-locks target under the index writer, validates it is
// still the entry indexed under oldMax, and rewrites the index entry to
// target's current max. Returns ok=false if validation failed, meaning
// another writer epoch already changed this leaf's identity underneath
// us and the whole operation must retry from the top.
func (s *Set[T]) commitUpdateMax(target *leaf.Leaf[T], oldMax T) (old T, hadOld bool, events []Event[T], ok bool) {
	s.idxLock.Lock()
	defer s.idxLock.Unlock()

	entry, found := s.index.Get(oldMax)
	if !found || entry.Value != target {
		return old, hadOld, nil, false
	}

	target.Lock()
	newMax, _ := target.Last()
	contents := append([]T(nil), target.Elements()...)
	target.Unlock()

	s.index.Remove(oldMax)
	s.index.Insert(newMax, target)

	events = []Event[T]{removeNodeEvent[T](oldMax), insertNodeEvent(newMax, contents)}
	var zero T
	return zero, false, events, true
}

// commitSplit re-locks target under the index writer, validates it is
// still the entry indexed under oldMax, halves it, places v in whichever
// half it belongs, and installs both halves in the index. Returns
// ok=false on validation failure (caller must retry).
func (s *Set[T]) commitSplit(target *leaf.Leaf[T], oldMax, v T) (old T, hadOld bool, events []Event[T], ok bool) {
	s.idxLock.Lock()
	defer s.idxLock.Unlock()

	entry, found := s.index.Get(oldMax)
	if !found || entry.Value != target {
		return old, hadOld, nil, false
	}

	target.Lock()
	if target.Len() < s.capacity {
		// Someone else already relieved the pressure (e.g. a concurrent
		// remove) between our two lock acquisitions; fall back to the
		// in-place path now that there's room.
		inserted, idx := target.Insert(v)
		newMax, _ := target.Last()
		if !inserted {
			replaced := target.Replace(idx, v)
			target.Unlock()
			return replaced, true, []Event[T]{removeAtEvent(oldMax, replaced), insertAtEvent(oldMax, v)}, true
		}
		if s.eq(newMax, oldMax) {
			target.Unlock()
			var zero T
			return zero, false, []Event[T]{insertAtEvent(oldMax, v)}, true
		}
		contents := append([]T(nil), target.Elements()...)
		target.Unlock()
		s.index.Remove(oldMax)
		s.index.Insert(newMax, target)
		var zero T
		return zero, false, []Event[T]{removeNodeEvent[T](oldMax), insertNodeEvent(newMax, contents)}, true
	}

	upper := target.Halve()
	newLeaf := leaf.FromElements(s.less, upper)
	newLeaf.Lock()

	lowerMax, _ := target.Last()
	if s.less(lowerMax, v) {
		// v belongs to the upper half.
		inserted, idx := newLeaf.Insert(v)
		if !inserted {
			old = newLeaf.Replace(idx, v)
			hadOld = true
		}
	} else {
		inserted, idx := target.Insert(v)
		if !inserted {
			old = target.Replace(idx, v)
			hadOld = true
		}
	}

	lowerContents := append([]T(nil), target.Elements()...)
	upperContents := append([]T(nil), newLeaf.Elements()...)
	newLowerMax, _ := target.Last()
	newUpperMax, _ := newLeaf.Last()
	target.Unlock()
	newLeaf.Unlock()

	s.index.Remove(oldMax)
	s.index.Insert(newLowerMax, target)
	s.index.Insert(newUpperMax, newLeaf)

	events = []Event[T]{
		removeNodeEvent[T](oldMax),
		insertNodeEvent(newLowerMax, lowerContents),
		insertNodeEvent(newUpperMax, upperContents),
	}
	return old, hadOld, events, true
}
