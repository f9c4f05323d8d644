package cache

// node is an intrusive doubly linked list element owned by a shard.
type node[K comparable, V any] struct {
	key K
	val V

	// head is MRU, tail is LRU
	prev *node[K, V]
	next *node[K, V]

	// cost is the caller-supplied weight; 0 when cost limiting is unused.
	cost int64
}

// Key returns the node key (policy.Node).
func (n *node[K, V]) Key() K { return n.key }

// Value returns a pointer to the stored value (policy.Node).
// Only dereference it while holding the shard lock.
func (n *node[K, V]) Value() *V { return &n.val }
