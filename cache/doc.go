// Package cache provides a generic, sharded, bounded in-memory store with
// pluggable eviction policies (LRU by default), an entry-count limit, a
// total-cost limit, an eviction callback and lightweight metrics hooks.
//
// It is the memory-pressure primitive underneath storage.MemoryStorage:
// the storage layer hands each value a cost and lets this package decide
// what to drop. Which entry goes first is a policy detail and is
// not part of the Cache contract.
//
// Design
//
//   - Concurrency: the cache is split into shards, each protected by an
//     RWMutex. The default shard count is nextPow2(2*GOMAXPROCS), clamped
//     to 256. Limits are split evenly across shards, so with more than one
//     shard a limit is enforced per partition rather than globally.
//
//   - Storage: each shard keeps a map[K]*node for lookups and an intrusive
//     MRU↔LRU doubly linked list for ordering. Operations are O(1) expected.
//
//   - Policies: see package policy. LRU is the default; 2Q resists scans.
//
//   - Limits: CountLimit caps resident entries, MaxCost caps the sum of the
//     costs passed to Set. Zero disables either limit.
//
// Basic usage
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{CountLimit: 10_000})
//	c.Set("a", []byte("1"), 1)
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Remove("a")
package cache
