// Package skiplist implements the ordered index (C2): a concurrent
// ordered mapping from node-max-key to leaf handle.
//
// spec.md treats this as an external collaborator named only by its
// required interface (lower_bound, front, back, get, insert, remove,
// next/prev, iter) — a stand-in for something like crossbeam_skiplist in
// the original source, or Go's skip-list-backed ordered maps in the
// wider example pack (other_examples' skipList/skiplist/concurrent_skipmap
// files). This is the concrete implementation that expansion supplies.
//
// Lookups (Get, LowerBound, Front, Back, Next, Prev, Iter) only ever read
// atomic pointers and are safe to call from any number of goroutines at
// any time, including while a mutation is in flight. Insert and Remove
// are not internally synchronized: the caller (cdcset's put/remove
// protocol, via internal/idxlock.RWLock) is required to serialize them
// one at a time, which is exactly the "mutations inside a writer epoch
// appear serially" contract spec.md §4.2 asks of this component.
package skiplist

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

const maxLevel = 24

// node is one tower of the skip list. forward[i] is the next node at
// level i or nil; prev is the level-0 predecessor, giving the base level
// the doubly-linked shape internal/list.List uses elsewhere in this
// module.
type node[K, V any] struct {
	key      K
	val      V
	forward  []atomic.Pointer[node[K, V]]
	prev     atomic.Pointer[node[K, V]]
}

// Index is the concurrent ordered index (C2).
type Index[K, V any] struct {
	less func(a, b K) bool

	head  *node[K, V]
	tail  atomic.Pointer[node[K, V]]
	level atomic.Int32

	seed    uint64
	counter atomic.Uint64
}

// New constructs an empty Index ordered by less.
func New[K, V any](less func(a, b K) bool) *Index[K, V] {
	head := &node[K, V]{forward: make([]atomic.Pointer[node[K, V]], maxLevel)}
	id := uuid.New()
	seed := binary.LittleEndian.Uint64(id[:8])
	idx := &Index[K, V]{less: less, head: head, seed: seed}
	idx.level.Store(1)
	return idx
}

// eq reports whether a and b compare equal under less.
func (idx *Index[K, V]) eq(a, b K) bool {
	return !idx.less(a, b) && !idx.less(b, a)
}

// randLevel picks a tower height using a hash-derived coin flip instead
// of math/rand, so level assignment needs no shared PRNG lock and no
// hashable key type. See SPEC_FULL.md §4.2.
func (idx *Index[K, V]) randLevel() int {
	n := idx.counter.Add(1)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], idx.seed)
	a := xxhash.Sum64(buf[:])
	binary.LittleEndian.PutUint64(buf[:], n)
	b := murmur3.Sum64(buf[:])
	mixed := a ^ b

	level := 1
	for mixed&1 == 1 && level < maxLevel {
		level++
		mixed >>= 1
	}
	return level
}

// Entry is a snapshot of one index entry.
type Entry[K, V any] struct {
	Key   K
	Value V
	n     *node[K, V]
}

// findPredecessors walks from the head to the last node at each level
// whose key is strictly less than key, filling update with those
// predecessors. Returns the immediate level-0 successor candidate.
func (idx *Index[K, V]) findPredecessors(key K) (update [maxLevel]*node[K, V], candidate *node[K, V]) {
	cur := idx.head
	for i := int(idx.level.Load()) - 1; i >= 0; i-- {
		for {
			next := cur.forward[i].Load()
			if next == nil || !idx.less(next.key, key) {
				break
			}
			cur = next
		}
		update[i] = cur
	}
	candidate = cur.forward[0].Load()
	return update, candidate
}

// Get returns the value stored under a key exactly equal to key.
func (idx *Index[K, V]) Get(key K) (V, bool) {
	_, candidate := idx.findPredecessors(key)
	if candidate != nil && idx.eq(candidate.key, key) {
		return candidate.val, true
	}
	var zero V
	return zero, false
}

// LowerBound returns the leftmost entry with Key >= key.
func (idx *Index[K, V]) LowerBound(key K) (Entry[K, V], bool) {
	_, candidate := idx.findPredecessors(key)
	if candidate == nil {
		return Entry[K, V]{}, false
	}
	return Entry[K, V]{Key: candidate.key, Value: candidate.val, n: candidate}, true
}

// Front returns the entry with the smallest key.
func (idx *Index[K, V]) Front() (Entry[K, V], bool) {
	n := idx.head.forward[0].Load()
	if n == nil {
		return Entry[K, V]{}, false
	}
	return Entry[K, V]{Key: n.key, Value: n.val, n: n}, true
}

// Back returns the entry with the largest key.
func (idx *Index[K, V]) Back() (Entry[K, V], bool) {
	n := idx.tail.Load()
	if n == nil {
		return Entry[K, V]{}, false
	}
	return Entry[K, V]{Key: n.key, Value: n.val, n: n}, true
}

// Next returns the entry immediately after e, in ascending order.
func (idx *Index[K, V]) Next(e Entry[K, V]) (Entry[K, V], bool) {
	n := e.n.forward[0].Load()
	if n == nil {
		return Entry[K, V]{}, false
	}
	return Entry[K, V]{Key: n.key, Value: n.val, n: n}, true
}

// Prev returns the entry immediately before e, in ascending order.
func (idx *Index[K, V]) Prev(e Entry[K, V]) (Entry[K, V], bool) {
	n := e.n.prev.Load()
	if n == nil || n == idx.head {
		return Entry[K, V]{}, false
	}
	return Entry[K, V]{Key: n.key, Value: n.val, n: n}, true
}

// Equal reports whether two entries name the same index slot (same key,
// same underlying node), used by the iterator to detect front/back
// convergence.
func Equal[K, V any](a, b Entry[K, V]) bool {
	return a.n == b.n
}

// Insert adds or overwrites the entry for key. Caller must already hold
// the index writer lock (internal/idxlock.RWLock.Lock).
func (idx *Index[K, V]) Insert(key K, val V) {
	update, candidate := idx.findPredecessors(key)
	if candidate != nil && idx.eq(candidate.key, key) {
		candidate.val = val
		return
	}

	newLevel := idx.randLevel()
	if newLevel > int(idx.level.Load()) {
		for i := int(idx.level.Load()); i < newLevel; i++ {
			update[i] = idx.head
		}
		idx.level.Store(int32(newLevel))
	}

	n := &node[K, V]{key: key, val: val, forward: make([]atomic.Pointer[node[K, V]], newLevel)}
	for i := 0; i < newLevel; i++ {
		n.forward[i].Store(update[i].forward[i].Load())
		update[i].forward[i].Store(n)
	}

	n.prev.Store(update[0])
	if next := n.forward[0].Load(); next != nil {
		next.prev.Store(n)
	} else {
		idx.tail.Store(n)
	}
}

// Remove deletes the entry for key, if present, and returns its value.
// Caller must already hold the index writer lock.
func (idx *Index[K, V]) Remove(key K) (V, bool) {
	update, candidate := idx.findPredecessors(key)
	if candidate == nil || !idx.eq(candidate.key, key) {
		var zero V
		return zero, false
	}

	for i := 0; i < len(candidate.forward); i++ {
		if update[i].forward[i].Load() == candidate {
			update[i].forward[i].Store(candidate.forward[i].Load())
		}
	}
	if next := candidate.forward[0].Load(); next != nil {
		next.prev.Store(candidate.prev.Load())
	} else {
		prev := candidate.prev.Load()
		if prev == idx.head {
			prev = nil
		}
		idx.tail.Store(prev)
	}
	return candidate.val, true
}

// Len counts entries by walking the base level. O(n); intended for tests
// and diagnostics, not the hot path (the set itself tracks no separate
// count — spec.md §6 defines Len as "sum of leaf lengths; not a
// snapshot").
func (idx *Index[K, V]) Len() int {
	n := 0
	for cur := idx.head.forward[0].Load(); cur != nil; cur = cur.forward[0].Load() {
		n++
	}
	return n
}

// Iter returns a forward-only snapshot-free iterator starting at Front.
func (idx *Index[K, V]) Iter() *Iterator[K, V] {
	return &Iterator[K, V]{idx: idx}
}

// Iterator walks the index in ascending key order.
type Iterator[K, V any] struct {
	idx     *Index[K, V]
	started bool
	cur     Entry[K, V]
	done    bool
}

// Next advances the iterator and returns the next entry, if any.
func (it *Iterator[K, V]) Next() (Entry[K, V], bool) {
	if it.done {
		return Entry[K, V]{}, false
	}
	var e Entry[K, V]
	var ok bool
	if !it.started {
		it.started = true
		e, ok = it.idx.Front()
	} else {
		e, ok = it.idx.Next(it.cur)
	}
	if !ok {
		it.done = true
		return Entry[K, V]{}, false
	}
	it.cur = e
	return e, true
}
