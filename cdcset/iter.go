package cdcset

import (
	"cdcset/internal/leaf"
	"cdcset/internal/skiplist"
)

// Iter is a fused, double-ended iterator over a Set's elements in
// ascending order. It holds at most two leaf locks at any time (one if
// the front and back cursors have converged onto the same leaf), and the
// index's reader lock for its entire lifetime — so a long-lived Iter
// blocks index-shape-changing writers (splits, retirements) and any
// operation that needs one of the leaves it currently holds locked.
//
// Once either Next or NextBack reports exhaustion, every subsequent call
// to either also reports exhaustion (a fused iterator), even if the
// underlying set gains new elements in the meantime.
//
// An Iter is not safe for concurrent use by multiple goroutines, and must
// be Closed (or drained to exhaustion, which closes it automatically) to
// release its leaf locks and its hold on the index reader lock.
type Iter[T any] struct {
	s *Set[T]

	sameLeaf bool

	frontEntry   skiplist.Entry[T, *leaf.Leaf[T]]
	frontHasNode bool
	frontLeaf    *leaf.Leaf[T]
	frontLocked  bool
	frontPos     int

	backEntry   skiplist.Entry[T, *leaf.Leaf[T]]
	backHasNode bool
	backLeaf    *leaf.Leaf[T]
	backLocked  bool
	backPos     int

	exhausted bool
	closed    bool
}

// Iter returns an iterator over every element in the set, ascending.
func (s *Set[T]) Iter() *Iter[T] {
	return s.Range(Bound[T]{Kind: Unbounded}, Bound[T]{Kind: Unbounded})
}

// Range returns a fused double-ended iterator over the elements within
// [start, end) (subject to each bound's Included/Excluded/Unbounded
// kind), ascending. Both bounds use internal/leaf's Rank semantics to
// position the cursor within a leaf, including the degenerate case where
// start and end fall within the same leaf.
func (s *Set[T]) Range(start, end Bound[T]) *Iter[T] {
	s.idxLock.RLock()

	it := &Iter[T]{s: s}

	frontEntry, ok := s.locateRangeStart(start)
	if !ok {
		s.idxLock.RUnlock()
		it.exhausted = true
		it.closed = true
		return it
	}
	backEntry, ok := s.locateRangeEnd(end)
	if !ok {
		s.idxLock.RUnlock()
		it.exhausted = true
		it.closed = true
		return it
	}

	it.frontEntry, it.frontHasNode = frontEntry, true
	it.backEntry, it.backHasNode = backEntry, true

	if skiplist.Equal(frontEntry, backEntry) {
		l := frontEntry.Value
		l.Lock()
		it.sameLeaf = true
		it.frontLeaf = l
		it.backLeaf = l
		it.frontLocked = true
		it.frontPos = l.Rank(start, true)
		it.backPos = l.Rank(end, false)
	} else {
		fl := frontEntry.Value
		fl.Lock()
		it.frontLeaf = fl
		it.frontLocked = true
		it.frontPos = fl.Rank(start, true)

		bl := backEntry.Value
		bl.Lock()
		it.backLeaf = bl
		it.backLocked = true
		it.backPos = bl.Rank(end, false)
	}

	if it.frontPos >= it.backPos && it.sameLeaf {
		it.finish()
	}
	return it
}

// locateRangeStart finds the leftmost leaf that could hold an element
// satisfying start.
func (s *Set[T]) locateRangeStart(start Bound[T]) (skiplist.Entry[T, *leaf.Leaf[T]], bool) {
	if start.Kind == Unbounded {
		return s.index.Front()
	}
	return s.index.LowerBound(start.Value)
}

// locateRangeEnd finds the rightmost leaf that could hold an element
// satisfying end.
func (s *Set[T]) locateRangeEnd(end Bound[T]) (skiplist.Entry[T, *leaf.Leaf[T]], bool) {
	if end.Kind == Unbounded {
		return s.index.Back()
	}
	if entry, ok := s.index.LowerBound(end.Value); ok {
		return entry, true
	}
	return s.index.Back()
}

// Next returns the next element in ascending order, or (zero, false) if
// the iterator is exhausted.
func (it *Iter[T]) Next() (T, bool) {
	if it.exhausted {
		var zero T
		return zero, false
	}
	for {
		if it.sameLeaf {
			if it.frontPos < it.backPos {
				v := it.frontLeaf.At(it.frontPos)
				it.frontPos++
				return v, true
			}
			it.finish()
			var zero T
			return zero, false
		}

		if it.frontPos < it.frontLeaf.Len() {
			v := it.frontLeaf.At(it.frontPos)
			it.frontPos++
			return v, true
		}

		it.frontLeaf.Unlock()
		it.frontLocked = false
		next, ok := it.s.index.Next(it.frontEntry)
		if !ok {
			it.finish()
			var zero T
			return zero, false
		}
		it.frontEntry = next

		if it.backHasNode && skiplist.Equal(next, it.backEntry) {
			it.sameLeaf = true
			it.frontLeaf = it.backLeaf
			it.frontLocked = it.backLocked
			it.frontPos = 0
			continue
		}

		it.frontLeaf = next.Value
		it.frontLeaf.Lock()
		it.frontLocked = true
		it.frontPos = 0
	}
}

// NextBack returns the next element in descending order (i.e. the
// current largest remaining element), or (zero, false) if the iterator
// is exhausted.
func (it *Iter[T]) NextBack() (T, bool) {
	if it.exhausted {
		var zero T
		return zero, false
	}
	for {
		if it.sameLeaf {
			if it.backPos > it.frontPos {
				it.backPos--
				v := it.frontLeaf.At(it.backPos)
				return v, true
			}
			it.finish()
			var zero T
			return zero, false
		}

		if it.backPos > 0 {
			it.backPos--
			v := it.backLeaf.At(it.backPos)
			return v, true
		}

		it.backLeaf.Unlock()
		it.backLocked = false
		prev, ok := it.s.index.Prev(it.backEntry)
		if !ok {
			it.finish()
			var zero T
			return zero, false
		}
		it.backEntry = prev

		if it.frontHasNode && skiplist.Equal(prev, it.frontEntry) {
			it.sameLeaf = true
			it.backLeaf = it.frontLeaf
			it.backLocked = it.frontLocked
			it.backPos = it.frontLeaf.Len()
			continue
		}

		it.backLeaf = prev.Value
		it.backLeaf.Lock()
		it.backLocked = true
		it.backPos = it.backLeaf.Len()
	}
}

// finish releases any held leaf locks, the index reader hold, and marks
// the iterator permanently exhausted. Idempotent.
func (it *Iter[T]) finish() {
	if it.closed {
		return
	}
	if it.frontLocked {
		it.frontLeaf.Unlock()
		it.frontLocked = false
	}
	if !it.sameLeaf && it.backLocked {
		it.backLeaf.Unlock()
		it.backLocked = false
	}
	it.s.idxLock.RUnlock()
	it.exhausted = true
	it.closed = true
}

// Close releases the iterator's locks early, before exhaustion. Safe to
// call after exhaustion or more than once.
func (it *Iter[T]) Close() {
	it.finish()
}

// Reverse returns a view of it that walks in descending order: its Next
// calls it.NextBack and vice versa. It shares the underlying cursor
// state, so draining the Reverse view also exhausts it.
func (it *Iter[T]) Reverse() *ReverseIter[T] {
	return &ReverseIter[T]{it: it}
}

// ReverseIter walks an Iter's elements back-to-front.
type ReverseIter[T any] struct {
	it *Iter[T]
}

// Next returns the next element in descending order.
func (r *ReverseIter[T]) Next() (T, bool) {
	return r.it.NextBack()
}

// NextBack returns the next element in ascending order (i.e. reversing a
// reversed iterator walks forward again).
func (r *ReverseIter[T]) NextBack() (T, bool) {
	return r.it.Next()
}

// Close releases the underlying Iter's locks.
func (r *ReverseIter[T]) Close() {
	r.it.Close()
}
