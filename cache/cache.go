package cache

import (
	"sync/atomic"

	"github.com/IvanBrykalov/tiercache/internal/util"
	"github.com/IvanBrykalov/tiercache/policy/lru"
)

// cache is a sharded in-memory KV store with a pluggable eviction policy.
type cache[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	closed atomic.Bool
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics  -> NoopMetrics
//   - nil Policy   -> LRU
//   - Shards <= 0  -> auto, rounded up to the next power of two
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[K, V]()
	}

	sh := util.ShardCount(opt.Shards)

	// split both budgets evenly (ceil) so that the sum is never below the limit
	perShardCap := 0
	if opt.CountLimit > 0 {
		perShardCap = (opt.CountLimit + sh - 1) / sh
	}
	var perShardCost int64
	if opt.MaxCost > 0 {
		perShardCost = (opt.MaxCost + int64(sh) - 1) / int64(sh)
	}

	cs := make([]*shard[K, V], sh)
	for i := range cs {
		cs[i] = newShard[K, V](perShardCap, perShardCost, opt.Policy, opt)
	}

	return &cache[K, V]{
		shards: cs,
		hash:   util.ShardHash[K],
	}
}

// Set inserts or updates k→v with cost.
func (c *cache[K, V]) Set(k K, v V, cost int) {
	if c.closed.Load() {
		return
	}
	if cost < 0 {
		cost = 0
	}
	c.getShard(k).Set(k, v, int64(cost))
}

// Get returns the value for k and a presence flag.
func (c *cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.getShard(k).Get(k)
}

// Peek returns the value for k without promotion.
func (c *cache[K, V]) Peek(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.getShard(k).Peek(k)
}

// Remove deletes k if present and returns true on success.
func (c *cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).Remove(k)
}

// Clear empties every shard.
func (c *cache[K, V]) Clear() {
	for _, s := range c.shards {
		s.Clear()
	}
}

// Len returns the total number of resident entries across all shards.
func (c *cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

// Cost returns the total resident cost across all shards.
func (c *cache[K, V]) Cost() int64 {
	var total int64
	for _, s := range c.shards {
		total += s.Cost()
	}
	return total
}

// Close marks the cache as closed. It always returns nil.
func (c *cache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *cache[K, V]) getShard(k K) *shard[K, V] {
	return c.shards[util.ShardIndex(c.hash(k), len(c.shards))]
}
