// Package lru orders a shard by recency of use. Reads and overwrites move an
// entry to the MRU end and the shard evicts from the other end once a count
// or cost limit is exceeded. It is the memory tier's default policy.
package lru

import "github.com/IvanBrykalov/tiercache/policy"

type factory[K comparable, V any] struct{}

// New returns a Policy that builds one recency list per shard.
func New[K comparable, V any]() policy.Policy[K, V] { return factory[K, V]{} }

func (factory[K, V]) New(h policy.Hooks[K, V]) policy.ShardPolicy[K, V] {
	return recency[K, V]{hooks: h}
}

// recency never nominates a victim on admission; limits belong to the shard.
type recency[K comparable, V any] struct {
	hooks policy.Hooks[K, V]
}

func (r recency[K, V]) OnAdd(n policy.Node[K, V]) policy.Node[K, V] {
	r.hooks.PushFront(n)
	return nil
}

func (r recency[K, V]) OnGet(n policy.Node[K, V]) { r.touch(n) }

// OnUpdate treats re-setting a resident key like reading it.
func (r recency[K, V]) OnUpdate(n policy.Node[K, V]) { r.touch(n) }

func (recency[K, V]) OnRemove(policy.Node[K, V]) {}

func (r recency[K, V]) touch(n policy.Node[K, V]) { r.hooks.MoveToFront(n) }
