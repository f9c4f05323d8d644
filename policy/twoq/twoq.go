// Package twoq implements the simplified 2Q eviction policy.
package twoq

import (
	"container/list"

	"github.com/IvanBrykalov/tiercache/policy"
)

// twoQ keeps first-time entries in a bounded probation queue (A1in) and
// remembers the keys it pushed out (ghosts, A1out). A key that comes back
// while still remembered skips probation. Everything not in A1in is the
// main queue (Am), ordered by the shard list itself.
//
// All methods run under the shard lock.
type twoQ[K comparable, V any] struct {
	h policy.Hooks[K, V]

	capIn    int
	capGhost int

	// A1in, MRU at Front()
	inList *list.List
	inIdx  map[policy.Node[K, V]]*list.Element

	// A1out, keys only, MRU at Front()
	ghostList *list.List
	ghostIdx  map[K]*list.Element
}

// New constructs a 2Q policy factory with per-shard queue sizes.
// A common choice is capIn ≈ 25% and capGhost ≈ 50% of the shard's count limit.
// The memory tier runs a single shard by default, so the full sizes apply there.
func New[K comparable, V any](capIn, capGhost int) policy.Policy[K, V] {
	if capIn < 1 {
		capIn = 1
	}
	if capGhost < 1 {
		capGhost = 1
	}
	return twoQPolicy[K, V]{capIn: capIn, capGhost: capGhost}
}

type twoQPolicy[K comparable, V any] struct {
	capIn    int
	capGhost int
}

func (p twoQPolicy[K, V]) New(h policy.Hooks[K, V]) policy.ShardPolicy[K, V] {
	return &twoQ[K, V]{
		h:         h,
		capIn:     p.capIn,
		capGhost:  p.capGhost,
		inList:    list.New(),
		inIdx:     make(map[policy.Node[K, V]]*list.Element),
		ghostList: list.New(),
		ghostIdx:  make(map[K]*list.Element),
	}
}

// OnAdd admits a remembered key straight into Am; anything else goes to
// A1in, and an overflowing A1in nominates its LRU node for eviction.
func (q *twoQ[K, V]) OnAdd(n policy.Node[K, V]) (evict policy.Node[K, V]) {
	k := n.Key()
	if ge, ok := q.ghostIdx[k]; ok {
		q.ghostList.Remove(ge)
		delete(q.ghostIdx, k)
		q.h.PushFront(n)
		return nil
	}

	q.h.PushFront(n)
	q.inIdx[n] = q.inList.PushFront(n)

	if q.inList.Len() > q.capIn {
		if lruEl := q.inList.Back(); lruEl != nil {
			return lruEl.Value.(policy.Node[K, V])
		}
	}
	return nil
}

// OnGet graduates an A1in node into Am and promotes it.
func (q *twoQ[K, V]) OnGet(n policy.Node[K, V]) {
	if el, ok := q.inIdx[n]; ok {
		q.inList.Remove(el)
		delete(q.inIdx, n)
	}
	q.h.MoveToFront(n)
}

func (q *twoQ[K, V]) OnUpdate(n policy.Node[K, V]) { q.OnGet(n) }

// OnRemove turns a leaving A1in node into a ghost. Am removals leave no trace.
func (q *twoQ[K, V]) OnRemove(n policy.Node[K, V]) {
	el, ok := q.inIdx[n]
	if !ok {
		return
	}
	q.inList.Remove(el)
	delete(q.inIdx, n)

	k := n.Key()
	if old := q.ghostIdx[k]; old != nil {
		q.ghostList.Remove(old)
	}
	q.ghostIdx[k] = q.ghostList.PushFront(k)

	for q.ghostList.Len() > q.capGhost {
		tail := q.ghostList.Back()
		if tail == nil {
			break
		}
		delete(q.ghostIdx, tail.Value.(K))
		q.ghostList.Remove(tail)
	}
}
