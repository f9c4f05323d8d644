package cache

// Cache is a sharded, bounded in-memory key/value store.
// All methods are safe for concurrent use by multiple goroutines.
//
// The cache enforces an entry-count limit and a total-cost limit. Which entry
// is dropped to satisfy them is decided by the configured policy and is not
// part of the contract: callers must be prepared for any resident entry to
// disappear after any Set.
type Cache[K comparable, V any] interface {
	// Set inserts or replaces k→v with the given cost (negative is treated as 0).
	// The entry is promoted according to the active policy and limits are
	// enforced before Set returns.
	Set(k K, v V, cost int)

	// Get returns the value for k and promotes it on hit.
	Get(k K) (V, bool)

	// Peek returns the value for k without touching policy state.
	Peek(k K) (V, bool)

	// Remove deletes k if present and reports whether it was resident.
	Remove(k K) bool

	// Clear drops every entry and resets policy state. OnEvict is not invoked.
	Clear()

	// Len returns the number of resident entries across all shards.
	Len() int

	// Cost returns the total resident cost across all shards.
	Cost() int64

	// Close marks the cache closed; later writes are ignored and reads miss.
	Close() error
}
