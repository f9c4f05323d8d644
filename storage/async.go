package storage

import (
	"sync/atomic"

	"github.com/IvanBrykalov/tiercache/internal/serial"
)

// AsyncStorage enqueues every operation and returns at once. Each completion
// is called exactly once, on the queue's worker goroutine, never on the
// caller's. A nil completion is allowed.
//
// If the owning Storage is closed before a queued operation runs, the
// completion receives ErrDeallocated instead.
type AsyncStorage[K comparable, V any] struct {
	inner  *HybridStorage[K, V]
	queue  *serial.Queue
	closed *atomic.Bool
}

func newAsyncStorage[K comparable, V any](h *HybridStorage[K, V], q *serial.Queue, closed *atomic.Bool) *AsyncStorage[K, V] {
	return &AsyncStorage[K, V]{inner: h, queue: q, closed: closed}
}

func asyncCall[K comparable, V, T any](s *AsyncStorage[K, V], fn func(h *HybridStorage[K, V]) (T, error), completion func(T, error)) {
	if completion == nil {
		completion = func(T, error) {}
	}
	var zero T
	ok := s.queue.Async(func() {
		if s.closed.Load() {
			completion(zero, ErrDeallocated)
			return
		}
		completion(fn(s.inner))
	})
	if !ok {
		// The queue no longer runs tasks; deliver off the caller's stack anyway.
		go completion(zero, ErrDeallocated)
	}
}

func asyncDo[K comparable, V any](s *AsyncStorage[K, V], fn func(h *HybridStorage[K, V]) error, completion func(error)) {
	var done func(struct{}, error)
	if completion != nil {
		done = func(_ struct{}, err error) { completion(err) }
	}
	asyncCall(s, func(h *HybridStorage[K, V]) (struct{}, error) { return struct{}{}, fn(h) }, done)
}

func (s *AsyncStorage[K, V]) Entry(key K, completion func(Entry[V], error)) {
	asyncCall(s, func(h *HybridStorage[K, V]) (Entry[V], error) { return h.Entry(key) }, completion)
}

func (s *AsyncStorage[K, V]) Object(key K, completion func(V, error)) {
	asyncCall(s, func(h *HybridStorage[K, V]) (V, error) { return h.Object(key) }, completion)
}

// SetObject stores object with the configured default expiry.
func (s *AsyncStorage[K, V]) SetObject(key K, object V, completion func(error)) {
	asyncDo(s, func(h *HybridStorage[K, V]) error { return h.SetObject(key, object) }, completion)
}

// SetObjectWithExpiry stores object with an explicit expiry.
func (s *AsyncStorage[K, V]) SetObjectWithExpiry(key K, object V, expiry Expiry, completion func(error)) {
	asyncDo(s, func(h *HybridStorage[K, V]) error { return h.SetObject(key, object, expiry) }, completion)
}

func (s *AsyncStorage[K, V]) RemoveObject(key K, completion func(error)) {
	asyncDo(s, func(h *HybridStorage[K, V]) error { return h.RemoveObject(key) }, completion)
}

func (s *AsyncStorage[K, V]) RemoveInMemoryObject(key K, completion func(error)) {
	asyncDo(s, func(h *HybridStorage[K, V]) error { return h.RemoveInMemoryObject(key) }, completion)
}

func (s *AsyncStorage[K, V]) RemoveAll(completion func(error)) {
	asyncDo(s, func(h *HybridStorage[K, V]) error { return h.RemoveAll() }, completion)
}

func (s *AsyncStorage[K, V]) RemoveExpiredObjects(completion func(error)) {
	asyncDo(s, func(h *HybridStorage[K, V]) error { return h.RemoveExpiredObjects() }, completion)
}

func (s *AsyncStorage[K, V]) ObjectExists(key K, completion func(bool, error)) {
	asyncCall(s, func(h *HybridStorage[K, V]) (bool, error) { return h.ObjectExists(key), nil }, completion)
}

func (s *AsyncStorage[K, V]) IsExpiredObject(key K, completion func(bool, error)) {
	asyncCall(s, func(h *HybridStorage[K, V]) (bool, error) { return h.IsExpiredObject(key) }, completion)
}
