// Package leaf implements the bounded sorted sequence that is a B-tree
// "leaf" node (C1 of the design): sorted insert, replace, delete, rank,
// select, and split, all assuming the caller already holds the leaf's
// exclusive lock.
//
// Grounded on the teacher's pkg/btree/leafNode.go (LeafNode.insert/delete/
// search), generalized from int64 keys to a comparator over a type
// parameter and from on-disk pages to an in-memory slice.
package leaf

import (
	"sort"

	"cdcset/internal/idxlock"
)

// BoundKind identifies which kind of range endpoint a Bound carries.
type BoundKind int

const (
	Unbounded BoundKind = iota
	Included
	Excluded
)

// Bound is one endpoint of a range query, mirroring Rust's
// std::ops::Bound the way spec.md describes Rank's argument.
type Bound[T any] struct {
	Kind  BoundKind
	Value T
}

// Leaf is a bounded, sorted sequence of elements of type T, held behind
// its own exclusive lock. Identity is the *Leaf pointer: two handles
// refer to the same leaf iff their pointer values are equal. Go's garbage
// collector retires a Leaf once its last reference (index entry, live
// iterator cursor, or live Ref) drops, which is how this module realizes
// the "reference-counted handle" spec.md describes without manual
// refcounting.
type Leaf[T any] struct {
	mu       *idxlock.Mutex
	elements []T
	less     func(a, b T) bool
}

// New constructs an empty leaf with the given comparator, preallocating
// room for capacityHint elements. The hint is not enforced here; the
// caller keeps the leaf within its capacity.
func New[T any](less func(a, b T) bool, capacityHint int) *Leaf[T] {
	return &Leaf[T]{
		mu:       idxlock.NewMutex(),
		elements: make([]T, 0, capacityHint),
		less:     less,
	}
}

// Lock acquires the leaf's exclusive lock.
func (l *Leaf[T]) Lock() { l.mu.Lock() }

// Unlock releases the leaf's exclusive lock.
func (l *Leaf[T]) Unlock() { l.mu.Unlock() }

// eq reports whether a and b compare equal under less.
func (l *Leaf[T]) eq(a, b T) bool {
	return !l.less(a, b) && !l.less(b, a)
}

// lowerBound returns the first index with elements[idx] >= v (elements
// strictly ascending, so this is also the unique candidate position for
// an element equal to v).
func (l *Leaf[T]) lowerBound(v T) int {
	return sort.Search(len(l.elements), func(i int) bool {
		return !l.less(l.elements[i], v)
	})
}

// Insert finds the lower-bound position for v. If an equal element is
// already present, it reports (false, idx) without mutating the leaf;
// otherwise it inserts v at idx and reports (true, idx).
//
// Caller must hold the leaf's lock.
func (l *Leaf[T]) Insert(v T) (inserted bool, idx int) {
	idx = l.lowerBound(v)
	if idx < len(l.elements) && l.eq(l.elements[idx], v) {
		return false, idx
	}
	l.elements = append(l.elements, v)
	copy(l.elements[idx+1:], l.elements[idx:])
	l.elements[idx] = v
	return true, idx
}

// Replace swaps the element at idx with v, returning the displaced
// value. Used when Insert reported an equality collision.
//
// Caller must hold the leaf's lock.
func (l *Leaf[T]) Replace(idx int, v T) (old T) {
	old = l.elements[idx]
	l.elements[idx] = v
	return old
}

// Delete removes the element equal to q, if present, and returns it.
//
// Caller must hold the leaf's lock.
func (l *Leaf[T]) Delete(q T) (removed T, ok bool) {
	idx := l.lowerBound(q)
	if idx >= len(l.elements) || !l.eq(l.elements[idx], q) {
		var zero T
		return zero, false
	}
	removed = l.elements[idx]
	l.elements = append(l.elements[:idx], l.elements[idx+1:]...)
	return removed, true
}

// Rank returns the leftmost position consistent with a range bound: for
// an Included(k) start, the first index with elem >= k; for Excluded(k)
// start, the first index with elem > k; symmetrically for an end bound
// (Included(k) end means the first index with elem > k, i.e. one past
// the last element <= k; Excluded(k) end means the first index with
// elem >= k).
func (l *Leaf[T]) Rank(bound Bound[T], isStart bool) int {
	switch bound.Kind {
	case Unbounded:
		if isStart {
			return 0
		}
		return len(l.elements)
	case Included:
		if isStart {
			return l.lowerBound(bound.Value)
		}
		return l.upperBound(bound.Value)
	case Excluded:
		if isStart {
			return l.upperBound(bound.Value)
		}
		return l.lowerBound(bound.Value)
	default:
		panic("leaf: invalid bound kind")
	}
}

// upperBound returns the first index with elements[idx] > v.
func (l *Leaf[T]) upperBound(v T) int {
	return sort.Search(len(l.elements), func(i int) bool {
		return l.less(v, l.elements[i])
	})
}

// TrySelect returns the position of the element equal to q, if present.
func (l *Leaf[T]) TrySelect(q T) (idx int, ok bool) {
	i := l.lowerBound(q)
	if i < len(l.elements) && l.eq(l.elements[i], q) {
		return i, true
	}
	return 0, false
}

// Contains reports whether q is present in the leaf.
func (l *Leaf[T]) Contains(q T) bool {
	_, ok := l.TrySelect(q)
	return ok
}

// At returns the element at idx. Caller must hold the leaf's lock and
// know idx is in range (used by iterators walking an already-rank'd
// cursor position).
func (l *Leaf[T]) At(idx int) T {
	return l.elements[idx]
}

// FromElements wraps an already-sorted slice as a new leaf, taking
// ownership of it. Used by Split to give the upper half produced by
// Halve its own lock and identity.
func FromElements[T any](less func(a, b T) bool, elements []T) *Leaf[T] {
	return &Leaf[T]{mu: idxlock.NewMutex(), elements: elements, less: less}
}

// RemoveMiddle deletes elements[from:to] and returns the removed values,
// used by RemoveRange to drop a contiguous run from a boundary leaf.
//
// Caller must hold the leaf's lock.
func (l *Leaf[T]) RemoveMiddle(from, to int) []T {
	removed := append([]T(nil), l.elements[from:to]...)
	l.elements = append(l.elements[:from], l.elements[to:]...)
	return removed
}

// Halve splits the sequence at the midpoint, returning the upper half
// and leaving the lower half in place. Used only during a split; caller
// must hold the leaf's lock for its entire duration (including the
// caller's subsequent insert of the triggering value into whichever
// half it belongs in).
func (l *Leaf[T]) Halve() []T {
	mid := len(l.elements) / 2
	upper := append([]T(nil), l.elements[mid:]...)
	l.elements = l.elements[:mid:mid]
	return upper
}

// Last returns the leaf's maximum element (its last, since elements are
// strictly ascending) and whether the leaf is non-empty.
func (l *Leaf[T]) Last() (last T, ok bool) {
	if len(l.elements) == 0 {
		var zero T
		return zero, false
	}
	return l.elements[len(l.elements)-1], true
}

// Len returns the number of elements currently in the leaf.
func (l *Leaf[T]) Len() int {
	return len(l.elements)
}

// Elements returns the leaf's elements in ascending order. The returned
// slice aliases the leaf's backing array and is only valid while the
// leaf's lock is held.
func (l *Leaf[T]) Elements() []T {
	return l.elements
}
