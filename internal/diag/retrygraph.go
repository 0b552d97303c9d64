//go:build cdcset_diag

// Package diag holds optional diagnostics for the put/remove retry
// protocol: a livelock detector and a lock-order bitmap, both compiled in
// only under the cdcset_diag build tag so the hot path never pays for
// them.
//
// RetryGraph is adapted from the teacher's pkg/concurrency/deadlock.go
// WaitsForGraph: that package tracked which 2PL transaction waited on
// which other transaction's held lock, flagging a cycle as deadlock. Our
// optimistic protocol never blocks — it restarts — so there's no lock
// cycle to find, but a pathological retry storm (attempt A always loses
// its validation race to attempt B, which always loses to A) is the same
// shape of problem with "waits for" replaced by "was invalidated by".
package diag

import (
	"sync"

	"github.com/google/uuid"
)

// RetryGraph records "invalidated by" edges between in-flight Put/Remove
// attempts, identified by a uuid.UUID minted once per call. An edge
// a -> b means attempt a retried because its writer-phase validation
// found attempt b had already changed the leaf it targeted.
type RetryGraph struct {
	mu    sync.RWMutex
	edges map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewRetryGraph constructs an empty RetryGraph.
func NewRetryGraph() *RetryGraph {
	return &RetryGraph{edges: make(map[uuid.UUID]map[uuid.UUID]struct{})}
}

// RecordInvalidation adds an edge: attempt was invalidated by winner.
func (g *RetryGraph) RecordInvalidation(attempt, winner uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.edges[attempt] == nil {
		g.edges[attempt] = make(map[uuid.UUID]struct{})
	}
	g.edges[attempt][winner] = struct{}{}
}

// Forget drops every edge touching attempt, called once it finally
// commits or gives up.
func (g *RetryGraph) Forget(attempt uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges, attempt)
	for _, outs := range g.edges {
		delete(outs, attempt)
	}
}

// HasCycle reports whether the invalidation graph currently contains a
// cycle — a set of attempts each waiting, transitively, on one another's
// retry to clear, which is the livelock analogue of a 2PL deadlock.
func (g *RetryGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[uuid.UUID]int, len(g.edges))
	var visit func(uuid.UUID) bool
	visit = func(n uuid.UUID) bool {
		color[n] = gray
		for next := range g.edges[n] {
			switch color[next] {
			case gray:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}
	for n := range g.edges {
		if color[n] == white {
			if visit(n) {
				return true
			}
		}
	}
	return false
}
