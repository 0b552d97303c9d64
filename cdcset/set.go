// Package cdcset implements a concurrent ordered set: a lock-free ordered
// index over bounded, exclusively-locked leaves, with an optimistic
// put/remove protocol, a change-data-capture event stream, and a fused
// double-ended iterator.
//
// Grounded on the teacher's pkg/btree package (node-max indexing, split
// machinery, lock-crabbing cursors) and the concurrent index design
// described in original_source/src/concurrent/set.rs, reworked from a
// disk-paged B+Tree into an in-memory structure with two independently
// lockable levels: internal/skiplist (C2, the index) and internal/leaf
// (C1, the leaves).
package cdcset

import (
	"errors"

	"cdcset/internal/idxlock"
	"cdcset/internal/leaf"
	"cdcset/internal/skiplist"
)

// DefaultMaximumNodeSize is used by New when the caller has no particular
// capacity in mind. Tests that need splits with few elements build their
// sets with WithMaximumNodeSize and a small capacity instead.
const DefaultMaximumNodeSize = 1024

// MinimumNodeSize is the smallest capacity WithMaximumNodeSize accepts.
// A node of size 1 can never be usefully split (Halve would produce an
// empty half), so the protocol requires at least 2.
const MinimumNodeSize = 2

// ErrNodeSizeTooSmall is returned by WithMaximumNodeSize when capacity is
// below MinimumNodeSize.
var ErrNodeSizeTooSmall = errors.New("cdcset: maximum node size must be at least 2")

// Bound is a range endpoint, re-exported from internal/leaf so callers of
// Range never need to import an internal package.
type Bound[T any] = leaf.Bound[T]

const (
	Unbounded = leaf.Unbounded
	Included  = leaf.Included
	Excluded  = leaf.Excluded
)

// Set is a concurrent ordered set of elements of type T.
//
// Reads that don't change index shape (Get, Contains, Iter, Range, Len)
// proceed under the index's reader lock and one leaf lock at a time (or
// two, for the fused iterator). Mutations that change index shape
// (inserting/removing a leaf from the index, or changing a leaf's max)
// escalate to the index's writer lock and revalidate before committing,
// per the optimistic two-phase protocol in put.go and remove.go.
type Set[T any] struct {
	less     func(a, b T) bool
	capacity int

	idxLock *idxlock.RWLock
	index   *skiplist.Index[T, *leaf.Leaf[T]]
}

// New constructs an empty Set ordered by less, using DefaultMaximumNodeSize.
func New[T any](less func(a, b T) bool) *Set[T] {
	s, err := WithMaximumNodeSize(less, DefaultMaximumNodeSize)
	if err != nil {
		// DefaultMaximumNodeSize is a package constant known to satisfy
		// MinimumNodeSize; a failure here would mean the constant itself
		// was misconfigured, which is a programmer error, not a runtime
		// condition callers of New should have to handle.
		panic(err)
	}
	return s
}

// WithMaximumNodeSize constructs an empty Set whose leaves split once
// they would exceed capacity elements. Returns ErrNodeSizeTooSmall if
// capacity < MinimumNodeSize.
func WithMaximumNodeSize[T any](less func(a, b T) bool, capacity int) (*Set[T], error) {
	if capacity < MinimumNodeSize {
		return nil, ErrNodeSizeTooSmall
	}
	return &Set[T]{
		less:     less,
		capacity: capacity,
		idxLock:  idxlock.New(),
		index:    skiplist.New[T, *leaf.Leaf[T]](less),
	}, nil
}

func (s *Set[T]) eq(a, b T) bool {
	return !s.less(a, b) && !s.less(b, a)
}

// Contains reports whether q is present in the set.
func (s *Set[T]) Contains(q T) bool {
	s.idxLock.RLock()
	defer s.idxLock.RUnlock()

	entry, ok := s.index.LowerBound(q)
	if !ok {
		return false
	}
	l := entry.Value
	l.Lock()
	defer l.Unlock()
	return l.Contains(q)
}

// GetOwned returns a copy of the element equal to q, if present. Unlike
// Get, it never keeps a leaf lock alive past the call returning.
func (s *Set[T]) GetOwned(q T) (T, bool) {
	s.idxLock.RLock()
	defer s.idxLock.RUnlock()

	entry, ok := s.index.LowerBound(q)
	if !ok {
		var zero T
		return zero, false
	}
	l := entry.Value
	l.Lock()
	defer l.Unlock()
	idx, ok := l.TrySelect(q)
	if !ok {
		var zero T
		return zero, false
	}
	return l.At(idx), true
}

// Ref is a live handle to an element found by Get. It holds the element's
// leaf locked until Close is called, so the caller can observe a value
// that is guaranteed not to be concurrently removed — but must not be
// held across another call into the same Set, or retained indefinitely.
type Ref[T any] struct {
	leaf  *leaf.Leaf[T]
	idx   int
	valid bool
}

// Value returns the referenced element.
func (r *Ref[T]) Value() T {
	return r.leaf.At(r.idx)
}

// Close releases the leaf lock backing this reference. Safe to call more
// than once.
func (r *Ref[T]) Close() {
	if r.valid {
		r.leaf.Unlock()
		r.valid = false
	}
}

// Get returns a locked reference to the element equal to q, if present.
// The caller must Close the reference when done with it.
func (s *Set[T]) Get(q T) (*Ref[T], bool) {
	s.idxLock.RLock()
	entry, ok := s.index.LowerBound(q)
	if !ok {
		s.idxLock.RUnlock()
		return nil, false
	}
	l := entry.Value
	l.Lock()
	s.idxLock.RUnlock()

	idx, ok := l.TrySelect(q)
	if !ok {
		l.Unlock()
		return nil, false
	}
	return &Ref[T]{leaf: l, idx: idx, valid: true}, true
}

// Len reports the number of elements currently in the set. It is computed
// by summing leaf lengths under individual leaf locks and is not a
// snapshot: a concurrent mutation may cause it to reflect neither the
// pre- nor the post-mutation count exactly.
func (s *Set[T]) Len() int {
	s.idxLock.RLock()
	defer s.idxLock.RUnlock()

	total := 0
	it := s.index.Iter()
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		l := entry.Value
		l.Lock()
		total += l.Len()
		l.Unlock()
	}
	return total
}

// IsEmpty reports whether the set has no elements.
func (s *Set[T]) IsEmpty() bool {
	s.idxLock.RLock()
	defer s.idxLock.RUnlock()
	_, ok := s.index.Front()
	return !ok
}

// locateForInsert returns the leaf that should receive v: the leaf
// returned by lower_bound(Included(v)), or the last leaf if none has a
// max >= v, or nothing if the index is empty. Caller must hold the
// reader lock.
func (s *Set[T]) locateForInsert(v T) (*leaf.Leaf[T], bool) {
	if entry, ok := s.index.LowerBound(v); ok {
		return entry.Value, true
	}
	if entry, ok := s.index.Back(); ok {
		return entry.Value, true
	}
	return nil, false
}

// locateForEnd returns the rightmost leaf that could contain an element
// strictly less than v: the same target-leaf rule locateForInsert uses,
// since both ask "which leaf's max is the first >= v, or the last leaf if
// none is". Nothing in this package calls it; Range locates its end leaf
// with locateRangeEnd.
func (s *Set[T]) locateForEnd(v T) (*leaf.Leaf[T], bool) {
	return s.locateForInsert(v)
}
