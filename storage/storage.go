package storage

import (
	"sync/atomic"

	"github.com/IvanBrykalov/tiercache/internal/serial"
	"github.com/IvanBrykalov/tiercache/transformer"
)

// Storage is the front door: a HybridStorage behind one serial queue, with a
// blocking view (Sync) and a callback view (Async) over that same queue.
// All operations on one Storage happen in submission order, one at a time.
//
// Storage's own methods are the Sync ones. The observer methods also run on
// the queue; callbacks run there too and must use the HybridStorage they are
// handed, never the Storage, or they deadlock.
type Storage[K comparable, V any] struct {
	*SyncStorage[K, V]
	Async *AsyncStorage[K, V]

	inner  *HybridStorage[K, V]
	queue  *serial.Queue
	closed *atomic.Bool
	owner  bool // whether Close stops the queue
}

// New builds both tiers from the configs and wraps them.
func New[K comparable, V any](disk DiskConfig, memory MemoryConfig, t Transformer[V], opts ...MemoryOption[V]) (*Storage[K, V], error) {
	d, err := NewDiskStorage[K](disk, t)
	if err != nil {
		return nil, err
	}
	m, err := NewMemoryStorage[K](memory, opts...)
	if err != nil {
		return nil, err
	}
	return Wrap(NewHybridStorage(m, d)), nil
}

// Wrap puts h behind a new serial queue. h must not be used directly afterwards.
func Wrap[K comparable, V any](h *HybridStorage[K, V]) *Storage[K, V] {
	return wrapOn(h, serial.New(), true)
}

func wrapOn[K comparable, V any](h *HybridStorage[K, V], q *serial.Queue, owner bool) *Storage[K, V] {
	closed := new(atomic.Bool)
	return &Storage[K, V]{
		SyncStorage: newSyncStorage(h, q, closed),
		Async:       newAsyncStorage(h, q, closed),
		inner:       h,
		queue:       q,
		closed:      closed,
		owner:       owner,
	}
}

// Sync returns the blocking view. Storage's promoted methods are the same.
func (s *Storage[K, V]) Sync() *SyncStorage[K, V] { return s.SyncStorage }

// Close tears the storage down. Operations still queued complete with
// ErrDeallocated, later ones fail the same way. Close waits for the queue to
// drain when this Storage owns it; it must not be called from a callback.
func (s *Storage[K, V]) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.owner {
		s.queue.Close()
		s.queue.Wait()
	}
	return nil
}

// AddStorageObserver registers fn for every storage-level change.
func (s *Storage[K, V]) AddStorageObserver(fn StorageObserver[K, V]) *ObservationToken {
	return s.addStorageObservation(func(h *HybridStorage[K, V], c StorageChange[K]) bool {
		fn(h, c)
		return true
	})
}

// AddObserver registers fn for key, replacing any existing observer of key.
func (s *Storage[K, V]) AddObserver(key K, fn KeyObserver[K, V]) *ObservationToken {
	return s.addKeyObservation(key, func(h *HybridStorage[K, V], c KeyChange[V]) bool {
		fn(h, c)
		return true
	})
}

func (s *Storage[K, V]) RemoveObserver(key K) {
	s.run(func(h *HybridStorage[K, V]) { h.RemoveObserver(key) })
}

func (s *Storage[K, V]) RemoveAllStorageObservers() {
	s.run(func(h *HybridStorage[K, V]) { h.RemoveAllStorageObservers() })
}

func (s *Storage[K, V]) RemoveAllKeyObservers() {
	s.run(func(h *HybridStorage[K, V]) { h.RemoveAllKeyObservers() })
}

func (s *Storage[K, V]) addStorageObservation(fn storageObservation[K, V]) *ObservationToken {
	var tok *ObservationToken
	s.run(func(h *HybridStorage[K, V]) { tok = h.addStorageObservation(fn) })
	return s.queuedToken(tok)
}

func (s *Storage[K, V]) addKeyObservation(key K, fn func(*HybridStorage[K, V], KeyChange[V]) bool) *ObservationToken {
	var tok *ObservationToken
	s.run(func(h *HybridStorage[K, V]) { tok = h.addKeyObservation(key, fn) })
	return s.queuedToken(tok)
}

// queuedToken moves cancellation onto the queue. Cancel may be called from a
// callback, so it never waits.
func (s *Storage[K, V]) queuedToken(inner *ObservationToken) *ObservationToken {
	if inner == nil {
		return newToken(nil)
	}
	return newToken(func() { s.queue.Async(inner.Cancel) })
}

// TransformData returns a byte-slice view of the same directory.
func (s *Storage[K, V]) TransformData() *Storage[K, []byte] {
	return TransformStorage[K, V, []byte](s, transformer.Data())
}

// TransformString returns a string view of the same directory.
func (s *Storage[K, V]) TransformString() *Storage[K, string] {
	return TransformStorage[K, V, string](s, transformer.String())
}

// TransformJSON returns a view of the same directory decoding JSON into U.
func TransformJSON[K comparable, V, U any](s *Storage[K, V]) *Storage[K, U] {
	return TransformStorage[K, V, U](s, transformer.JSON[U]())
}

// TransformStorage returns a Storage over the same directory decoding with t.
// It has a fresh memory tier and no observers, and shares s's queue so the two
// never touch the directory at the same time. Closing it leaves s running.
func TransformStorage[K comparable, V, U any](s *Storage[K, V], t Transformer[U], opts ...MemoryOption[U]) *Storage[K, U] {
	var h *HybridStorage[K, U]
	s.queue.Sync(func() { h = TransformHybrid(s.inner, t, opts...) })
	if h == nil {
		// s's queue is gone; build without it and hand back a closed Storage.
		h = TransformHybrid(s.inner, t, opts...)
		out := wrapOn(h, s.queue, false)
		out.closed.Store(true)
		return out
	}
	return wrapOn(h, s.queue, false)
}

var (
	_ StorageAware[string, int] = (*Storage[string, int])(nil)
	_ Observable[string, int]   = (*Storage[string, int])(nil)
	_ Observable[string, int]   = (*HybridStorage[string, int])(nil)
)
