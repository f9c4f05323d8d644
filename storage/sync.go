package storage

import (
	"sync/atomic"

	"github.com/IvanBrykalov/tiercache/internal/serial"
)

// SyncStorage runs every operation on a serial queue and blocks until it
// finishes. Once the owning Storage is closed every call returns
// ErrDeallocated.
//
// Calling SyncStorage from an observer callback deadlocks: callbacks already
// run on the queue and receive the HybridStorage to work with directly.
type SyncStorage[K comparable, V any] struct {
	inner  *HybridStorage[K, V]
	queue  *serial.Queue
	closed *atomic.Bool
}

func newSyncStorage[K comparable, V any](h *HybridStorage[K, V], q *serial.Queue, closed *atomic.Bool) *SyncStorage[K, V] {
	return &SyncStorage[K, V]{inner: h, queue: q, closed: closed}
}

// run executes fn on the queue. It reports false if fn was not run.
func (s *SyncStorage[K, V]) run(fn func(h *HybridStorage[K, V])) bool {
	if s.closed.Load() {
		return false
	}
	ran := false
	s.queue.Sync(func() {
		if s.closed.Load() {
			return
		}
		fn(s.inner)
		ran = true
	})
	return ran
}

func syncCall[K comparable, V, T any](s *SyncStorage[K, V], fn func(h *HybridStorage[K, V]) (T, error)) (T, error) {
	var (
		out T
		err error
	)
	if !s.run(func(h *HybridStorage[K, V]) { out, err = fn(h) }) {
		var zero T
		return zero, ErrDeallocated
	}
	return out, err
}

func (s *SyncStorage[K, V]) Entry(key K) (Entry[V], error) {
	return syncCall(s, func(h *HybridStorage[K, V]) (Entry[V], error) { return h.Entry(key) })
}

func (s *SyncStorage[K, V]) Object(key K) (V, error) {
	return syncCall(s, func(h *HybridStorage[K, V]) (V, error) { return h.Object(key) })
}

func (s *SyncStorage[K, V]) SetObject(key K, object V, expiry ...Expiry) error {
	_, err := syncCall(s, func(h *HybridStorage[K, V]) (struct{}, error) {
		return struct{}{}, h.SetObject(key, object, expiry...)
	})
	return err
}

func (s *SyncStorage[K, V]) RemoveObject(key K) error {
	_, err := syncCall(s, func(h *HybridStorage[K, V]) (struct{}, error) {
		return struct{}{}, h.RemoveObject(key)
	})
	return err
}

func (s *SyncStorage[K, V]) RemoveInMemoryObject(key K) error {
	_, err := syncCall(s, func(h *HybridStorage[K, V]) (struct{}, error) {
		return struct{}{}, h.RemoveInMemoryObject(key)
	})
	return err
}

func (s *SyncStorage[K, V]) RemoveAll() error {
	_, err := syncCall(s, func(h *HybridStorage[K, V]) (struct{}, error) {
		return struct{}{}, h.RemoveAll()
	})
	return err
}

func (s *SyncStorage[K, V]) RemoveExpiredObjects() error {
	_, err := syncCall(s, func(h *HybridStorage[K, V]) (struct{}, error) {
		return struct{}{}, h.RemoveExpiredObjects()
	})
	return err
}

// ObjectExists reports false once the storage is closed.
func (s *SyncStorage[K, V]) ObjectExists(key K) bool {
	ok, _ := syncCall(s, func(h *HybridStorage[K, V]) (bool, error) { return h.ObjectExists(key), nil })
	return ok
}

func (s *SyncStorage[K, V]) IsExpiredObject(key K) (bool, error) {
	return syncCall(s, func(h *HybridStorage[K, V]) (bool, error) { return h.IsExpiredObject(key) })
}

func (s *SyncStorage[K, V]) AllKeys() []K {
	keys, _ := syncCall(s, func(h *HybridStorage[K, V]) ([]K, error) { return h.AllKeys(), nil })
	return keys
}

func (s *SyncStorage[K, V]) AllObjects() []V {
	objs, _ := syncCall(s, func(h *HybridStorage[K, V]) ([]V, error) { return h.AllObjects(), nil })
	return objs
}

func (s *SyncStorage[K, V]) TotalDiskStorageSize() (int64, error) {
	return syncCall(s, func(h *HybridStorage[K, V]) (int64, error) { return h.TotalDiskStorageSize() })
}

var _ StorageAware[string, int] = (*SyncStorage[string, int])(nil)
