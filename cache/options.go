package cache

import (
	"github.com/IvanBrykalov/tiercache/policy"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictPolicy: chosen by the eviction policy itself (e.g. 2Q's A1in overflow).
	EvictPolicy EvictReason = iota
	// EvictCount: removed to satisfy the entry-count limit.
	EvictCount
	// EvictCost: removed to satisfy the total-cost limit.
	EvictCost
)

// String returns a stable label for the reason.
func (r EvictReason) String() string {
	switch r {
	case EvictCount:
		return "count"
	case EvictCost:
		return "cost"
	default:
		return "policy"
	}
}

// Metrics exposes cache-level observability hooks.
// NoopMetrics is used when none is configured.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, cost int64)
}

// Options configures the cache. Zero values are safe:
//   - CountLimit <= 0 => no entry-count limit
//   - MaxCost <= 0    => no cost limit
//   - Shards <= 0     => auto (rounded up to power of two)
//   - nil Policy      => LRU
//   - nil Metrics     => NoopMetrics
type Options[K comparable, V any] struct {
	// CountLimit is the entry-count limit, split evenly across shards.
	CountLimit int

	// MaxCost is the total cost limit, split evenly across shards.
	MaxCost int64

	// Shards defines the number of shards (rounded up to a power of two).
	Shards int

	// Policy is a pluggable eviction policy; nil => LRU.
	Policy policy.Policy[K, V]

	// OnEvict is called for every eviction under the shard lock; keep it light
	// and never call back into the cache from it.
	OnEvict func(k K, v V, reason EvictReason)

	Metrics Metrics
}
