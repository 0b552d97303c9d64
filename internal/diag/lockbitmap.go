//go:build cdcset_diag

package diag

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// LockBitmap tracks which leaves (identified by a small integer handed
// out on first sight of a pointer) its callers have marked as locked,
// backed by a bitset.BitSet instead of a map[uintptr]bool so that
// checking "how many bits are set" — the thing callers actually want to
// assert on — is a single Count() call rather than a map-length walk
// under a lock. One LockBitmap is shared by all goroutines that mark it.
//
// Every Set/Range operation in package cdcset holds at most two leaf
// locks at once (the fused iterator's front and back cursors).
// LockBitmap records only what callers mark through MarkLocked and
// MarkUnlocked; internal/leaf's Lock and Unlock do not call it.
type LockBitmap struct {
	mu   sync.Mutex
	bits *bitset.BitSet
	ids  map[uintptr]uint
	next uint
}

// NewLockBitmap constructs an empty LockBitmap.
func NewLockBitmap() *LockBitmap {
	return &LockBitmap{bits: bitset.New(64), ids: make(map[uintptr]uint)}
}

func (b *LockBitmap) idFor(ptr uintptr) uint {
	if id, ok := b.ids[ptr]; ok {
		return id
	}
	id := b.next
	b.next++
	b.ids[ptr] = id
	return id
}

// MarkLocked records that the leaf at ptr is now held.
func (b *LockBitmap) MarkLocked(ptr uintptr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bits.Set(b.idFor(ptr))
}

// MarkUnlocked records that the leaf at ptr is no longer held.
func (b *LockBitmap) MarkUnlocked(ptr uintptr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bits.Clear(b.idFor(ptr))
}

// Count returns the number of leaves currently marked locked.
func (b *LockBitmap) Count() uint {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bits.Count()
}

// AssertAtMost panics if more than max leaves are currently marked
// locked. Intended for test assertions under the cdcset_diag tag, not
// for production error handling.
func (b *LockBitmap) AssertAtMost(max uint) {
	if n := b.Count(); n > max {
		panic(fmt.Sprintf("diag: %d leaf locks held, expected at most %d", n, max))
	}
}
