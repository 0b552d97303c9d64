// Package cdcmap adapts cdcset.Set into a key-ordered map (C7): pairs
// ordered by key alone, with values carried along for the ride and
// ignored by comparison.
package cdcmap

import "cdcset/cdcset"

// pair is the element type stored in the underlying set. Two pairs
// compare equal, for the set's purposes, iff their keys compare equal —
// Value never participates in ordering or equality, which is what lets
// Insert's "equal element" fast path double as "same key, new value".
type pair[K, V any] struct {
	key   K
	value V
}

// Map is a concurrent ordered map keyed by K, built on cdcset.Set.
type Map[K, V any] struct {
	set *cdcset.Set[pair[K, V]]
}

// New constructs an empty Map ordered by less, comparing keys only.
func New[K, V any](less func(a, b K) bool) *Map[K, V] {
	return &Map[K, V]{set: cdcset.New[pair[K, V]](pairLess(less))}
}

// WithMaximumNodeSize constructs an empty Map whose underlying leaves
// split once they would exceed capacity pairs.
func WithMaximumNodeSize[K, V any](less func(a, b K) bool, capacity int) (*Map[K, V], error) {
	set, err := cdcset.WithMaximumNodeSize[pair[K, V]](pairLess(less), capacity)
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{set: set}, nil
}

func pairLess[K, V any](less func(a, b K) bool) func(a, b pair[K, V]) bool {
	return func(a, b pair[K, V]) bool {
		return less(a.key, b.key)
	}
}

// Insert associates key with value, returning the value it previously
// held and whether the key was already present.
func (m *Map[K, V]) Insert(key K, value V) (old V, hadOld bool) {
	replaced, hadOld := m.set.Put(pair[K, V]{key: key, value: value})
	if !hadOld {
		var zero V
		return zero, false
	}
	return replaced.value, true
}

// InsertCDC is Insert plus the change-data-capture events the insert
// produced.
func (m *Map[K, V]) InsertCDC(key K, value V) (old V, hadOld bool, events []cdcset.Event[pair[K, V]]) {
	replaced, hadOld, events := m.set.PutCDCEvents(pair[K, V]{key: key, value: value})
	if !hadOld {
		var zero V
		return zero, false, events
	}
	return replaced.value, true, events
}

// Get returns the value associated with key, if present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	p, ok := m.set.GetOwned(pair[K, V]{key: key})
	if !ok {
		var zero V
		return zero, false
	}
	return p.value, true
}

// ContainsKey reports whether key is present in the map.
func (m *Map[K, V]) ContainsKey(key K) bool {
	return m.set.Contains(pair[K, V]{key: key})
}

// Remove deletes key from the map, returning its value, if present.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	p, ok := m.set.RemoveCDC(pair[K, V]{key: key})
	if !ok {
		var zero V
		return zero, false
	}
	return p.value, true
}

// RemoveCDC is Remove plus the change-data-capture events produced.
func (m *Map[K, V]) RemoveCDC(key K) (V, bool, []cdcset.Event[pair[K, V]]) {
	p, ok, events := m.set.RemoveCDCEvents(pair[K, V]{key: key})
	if !ok {
		var zero V
		return zero, false, events
	}
	return p.value, true, events
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int { return m.set.Len() }

// IsEmpty reports whether the map has no entries.
func (m *Map[K, V]) IsEmpty() bool { return m.set.IsEmpty() }

// Entry is one key/value pair yielded by Iter or Range.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Iter returns a fused double-ended iterator over every entry, ascending
// by key.
func (m *Map[K, V]) Iter() *Iter[K, V] {
	return &Iter[K, V]{inner: m.set.Iter()}
}

// Range returns a fused double-ended iterator over entries whose key
// falls within [start, end), ascending.
func (m *Map[K, V]) Range(start, end cdcset.Bound[K]) *Iter[K, V] {
	return &Iter[K, V]{inner: m.set.Range(keyBound(start), keyBound(end))}
}

func keyBound[K, V any](b cdcset.Bound[K]) cdcset.Bound[pair[K, V]] {
	switch b.Kind {
	case cdcset.Included:
		return cdcset.Bound[pair[K, V]]{Kind: cdcset.Included, Value: pair[K, V]{key: b.Value}}
	case cdcset.Excluded:
		return cdcset.Bound[pair[K, V]]{Kind: cdcset.Excluded, Value: pair[K, V]{key: b.Value}}
	default:
		return cdcset.Bound[pair[K, V]]{Kind: cdcset.Unbounded}
	}
}

// Iter walks a Map's entries in key order. See cdcset.Iter for its
// locking and fusing contract.
type Iter[K, V any] struct {
	inner *cdcset.Iter[pair[K, V]]
}

// Next returns the next entry in ascending key order.
func (it *Iter[K, V]) Next() (Entry[K, V], bool) {
	p, ok := it.inner.Next()
	if !ok {
		return Entry[K, V]{}, false
	}
	return Entry[K, V]{Key: p.key, Value: p.value}, true
}

// NextBack returns the next entry in descending key order.
func (it *Iter[K, V]) NextBack() (Entry[K, V], bool) {
	p, ok := it.inner.NextBack()
	if !ok {
		return Entry[K, V]{}, false
	}
	return Entry[K, V]{Key: p.key, Value: p.value}, true
}

// Close releases the iterator's locks early.
func (it *Iter[K, V]) Close() { it.inner.Close() }
