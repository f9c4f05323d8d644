// Package policy defines the contract between a cache shard and the
// eviction strategy that orders its entries.
//
// A policy never owns entries. The shard keeps the key->node map and the
// intrusive list; the policy only decides where nodes go in that list and,
// optionally, which node should leave on admission.
package policy

// Node is the minimal view of a cache entry a policy may see.
type Node[K comparable, V any] interface {
	Key() K
	Value() *V
}

// Hooks are the O(1) list operations a shard exposes to its policy.
// All calls happen under the shard lock.
type Hooks[K comparable, V any] interface {
	// MoveToFront promotes the node to MRU.
	MoveToFront(Node[K, V])
	// PushFront inserts the node at MRU (admission).
	PushFront(Node[K, V])
	// Remove detaches the node from the list; map bookkeeping stays with the shard.
	Remove(Node[K, V])
	// Back returns the current LRU node, or nil when the shard is empty.
	Back() Node[K, V]
	// Len returns the number of resident nodes in the shard.
	Len() int
}

// ShardPolicy is a per-shard policy instance bound to shard hooks.
//
//   - OnAdd must place the node and may return an eviction candidate; the
//     shard evicts it and then calls OnRemove for it.
//   - OnGet/OnUpdate record use.
//   - OnRemove lets the policy drop internal state for a leaving node.
type ShardPolicy[K comparable, V any] interface {
	OnAdd(Node[K, V]) (evict Node[K, V])
	OnGet(Node[K, V])
	OnUpdate(Node[K, V])
	OnRemove(Node[K, V])
}

// Policy is a factory for shard-local instances. A shard calls New again
// whenever it is cleared, so instances must not share mutable state.
type Policy[K comparable, V any] interface {
	New(Hooks[K, V]) ShardPolicy[K, V]
}
