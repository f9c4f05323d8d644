package cache

import (
	"sync"

	"github.com/IvanBrykalov/tiercache/internal/util"
	"github.com/IvanBrykalov/tiercache/policy"
)

// shard is an independent partition of the cache with its own lock, map,
// and an intrusive doubly linked list (head=MRU, tail=LRU).
type shard[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu      sync.RWMutex
	m       map[K]*node[K, V]
	head    *node[K, V] // MRU
	tail    *node[K, V] // LRU
	len     int
	cost    int64
	cap     int   // per-shard entry limit (0 = unbounded)
	maxCost int64 // per-shard cost limit (0 = unbounded)

	factory policy.Policy[K, V]
	pol     policy.ShardPolicy[K, V]
	opt     Options[K, V]

	// ---- hot counters ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

func newShard[K comparable, V any](capacity int, maxCost int64, factory policy.Policy[K, V], opt Options[K, V]) *shard[K, V] {
	s := &shard[K, V]{
		m:       make(map[K]*node[K, V]),
		cap:     capacity,
		maxCost: maxCost,
		factory: factory,
		opt:     opt,
	}
	s.pol = factory.New(shardHooks[K, V]{s: s})
	return s
}

// Set inserts or updates an entry and promotes it according to the policy.
func (s *shard[K, V]) Set(k K, v V, cost int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.m[k]; ok {
		s.cost += cost - n.cost
		n.val = v
		n.cost = cost

		s.pol.OnUpdate(n)
		s.enforceLimitsLocked()
		return
	}

	n := &node[K, V]{key: k, val: v, cost: cost}
	s.m[k] = n

	if ev := s.pol.OnAdd(n); ev != nil {
		s.evictNode(ev.(*node[K, V]), EvictPolicy)
	}
	s.enforceLimitsLocked()
}

// Get returns the value and promotes the entry according to the policy.
func (s *shard[K, V]) Get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		var zero V
		return zero, false
	}

	s.pol.OnGet(n)
	s.hits.Add(1)
	s.opt.Metrics.Hit()
	return n.val, true
}

// Peek returns the value without promotion or hit/miss accounting.
func (s *shard[K, V]) Peek(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, ok := s.m[k]; ok {
		return n.val, true
	}
	var zero V
	return zero, false
}

// Remove deletes an entry by key. Returns true if the entry existed.
// Explicit removals are not counted as evictions.
func (s *shard[K, V]) Remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		return false
	}
	s.pol.OnRemove(n)
	s.removeNode(n)
	delete(s.m, k)
	s.opt.Metrics.Size(s.len, s.cost)
	return true
}

// Clear drops every entry and rebuilds the policy instance so that
// policy-internal state (e.g. 2Q ghosts) does not outlive the data.
func (s *shard[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m = make(map[K]*node[K, V])
	s.head, s.tail = nil, nil
	s.len, s.cost = 0, 0
	s.pol = s.factory.New(shardHooks[K, V]{s: s})
	s.opt.Metrics.Size(0, 0)
}

func (s *shard[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.len
}

func (s *shard[K, V]) Cost() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cost
}

// -------------------- internals (mu held) --------------------

// insertFront inserts n at MRU in O(1).
func (s *shard[K, V]) insertFront(n *node[K, V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
	s.cost += n.cost
}

// moveToFront promotes n to MRU in O(1).
func (s *shard[K, V]) moveToFront(n *node[K, V]) {
	if n == s.head {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

// removeNode unlinks n and updates counters in O(1).
func (s *shard[K, V]) removeNode(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
	s.cost -= n.cost
	if s.cost < 0 {
		s.cost = 0
	}
}

func (s *shard[K, V]) back() *node[K, V] { return s.tail }

// evictNode removes the node, updates counters and calls OnEvict.
func (s *shard[K, V]) evictNode(n *node[K, V], reason EvictReason) {
	s.pol.OnRemove(n)
	s.removeNode(n)
	delete(s.m, n.key)
	s.evicts.Add(1)
	s.opt.Metrics.Evict(reason)
	if cb := s.opt.OnEvict; cb != nil {
		cb(n.key, n.val, reason)
	}
}

// enforceLimitsLocked evicts from the LRU end until both limits hold.
func (s *shard[K, V]) enforceLimitsLocked() {
	if s.cap > 0 {
		for s.len > s.cap {
			tail := s.back()
			if tail == nil {
				break
			}
			s.evictNode(tail, EvictCount)
		}
	}
	if s.maxCost > 0 {
		for s.cost > s.maxCost {
			tail := s.back()
			if tail == nil {
				break
			}
			s.evictNode(tail, EvictCost)
		}
	}
	s.opt.Metrics.Size(s.len, s.cost)
}

// -------------------- policy hooks --------------------

// shardHooks adapts the shard's list operations to policy.Hooks.
type shardHooks[K comparable, V any] struct{ s *shard[K, V] }

func (h shardHooks[K, V]) MoveToFront(x policy.Node[K, V]) { h.s.moveToFront(x.(*node[K, V])) }
func (h shardHooks[K, V]) PushFront(x policy.Node[K, V])   { h.s.insertFront(x.(*node[K, V])) }

// Remove only detaches the node; the shard owns the map.
func (h shardHooks[K, V]) Remove(x policy.Node[K, V]) { h.s.removeNode(x.(*node[K, V])) }
func (h shardHooks[K, V]) Back() policy.Node[K, V] {
	if t := h.s.back(); t != nil {
		return t
	}
	return nil
}
func (h shardHooks[K, V]) Len() int { return h.s.len }
