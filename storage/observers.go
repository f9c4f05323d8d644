package storage

import (
	"maps"
	"slices"
	"weak"
)

// StorageObserver receives every StorageChange of a HybridStorage.
type StorageObserver[K comparable, V any] func(h *HybridStorage[K, V], change StorageChange[K])

// KeyObserver receives the KeyChange events of one key.
type KeyObserver[K comparable, V any] func(h *HybridStorage[K, V], change KeyChange[V])

// Registrations report false when their owner is gone; they are then pruned.
type storageObservation[K comparable, V any] func(*HybridStorage[K, V], StorageChange[K]) bool

type keyObservation[K comparable, V any] struct {
	id uint64
	fn func(*HybridStorage[K, V], KeyChange[V]) bool
}

// Observable is implemented by HybridStorage and Storage; it is what the
// weak-owner helpers ObserveStorage and ObserveKey register on.
type Observable[K comparable, V any] interface {
	addStorageObservation(fn storageObservation[K, V]) *ObservationToken
	addKeyObservation(key K, fn func(*HybridStorage[K, V], KeyChange[V]) bool) *ObservationToken
}

type registry[K comparable, V any] struct {
	nextID  uint64
	storage map[uint64]storageObservation[K, V]
	keys    map[K]keyObservation[K, V]
}

func newRegistry[K comparable, V any]() registry[K, V] {
	return registry[K, V]{
		storage: make(map[uint64]storageObservation[K, V]),
		keys:    make(map[K]keyObservation[K, V]),
	}
}

func (r *registry[K, V]) id() uint64 {
	r.nextID++
	return r.nextID
}

// AddStorageObserver registers fn for every storage-level change. Observers
// are called in registration order.
func (h *HybridStorage[K, V]) AddStorageObserver(fn StorageObserver[K, V]) *ObservationToken {
	return h.addStorageObservation(func(s *HybridStorage[K, V], c StorageChange[K]) bool {
		fn(s, c)
		return true
	})
}

// AddObserver registers fn for key, replacing any existing observer of key.
func (h *HybridStorage[K, V]) AddObserver(key K, fn KeyObserver[K, V]) *ObservationToken {
	return h.addKeyObservation(key, func(s *HybridStorage[K, V], c KeyChange[V]) bool {
		fn(s, c)
		return true
	})
}

// ObserveStorage registers fn on behalf of owner, which is held weakly. Once
// owner has been garbage collected the registration removes itself the next
// time an event fires. owner must not be nil.
//
// K and V are inferred from fn.
func ObserveStorage[O any, K comparable, V any](h Observable[K, V], owner *O, fn func(*O, *HybridStorage[K, V], StorageChange[K])) *ObservationToken {
	wp := weak.Make(owner)
	return h.addStorageObservation(func(s *HybridStorage[K, V], c StorageChange[K]) bool {
		o := wp.Value()
		if o == nil {
			return false
		}
		fn(o, s, c)
		return true
	})
}

// ObserveKey is AddObserver with a weakly held owner, see ObserveStorage.
func ObserveKey[O any, K comparable, V any](h Observable[K, V], owner *O, key K, fn func(*O, *HybridStorage[K, V], KeyChange[V])) *ObservationToken {
	wp := weak.Make(owner)
	return h.addKeyObservation(key, func(s *HybridStorage[K, V], c KeyChange[V]) bool {
		o := wp.Value()
		if o == nil {
			return false
		}
		fn(o, s, c)
		return true
	})
}

// RemoveObserver drops the observer of key, if any.
func (h *HybridStorage[K, V]) RemoveObserver(key K) {
	delete(h.obs.keys, key)
}

func (h *HybridStorage[K, V]) RemoveAllStorageObservers() {
	clear(h.obs.storage)
}

func (h *HybridStorage[K, V]) RemoveAllKeyObservers() {
	clear(h.obs.keys)
}

// HasObserver reports whether key currently has an observer.
func (h *HybridStorage[K, V]) HasObserver(key K) bool {
	_, ok := h.obs.keys[key]
	return ok
}

func (h *HybridStorage[K, V]) addStorageObservation(fn storageObservation[K, V]) *ObservationToken {
	id := h.obs.id()
	h.obs.storage[id] = fn
	return newToken(func() { delete(h.obs.storage, id) })
}

func (h *HybridStorage[K, V]) addKeyObservation(key K, fn func(*HybridStorage[K, V], KeyChange[V]) bool) *ObservationToken {
	id := h.obs.id()
	h.obs.keys[key] = keyObservation[K, V]{id: id, fn: fn}
	return newToken(func() { h.dropKeyObservation(key, id) })
}

func (h *HybridStorage[K, V]) dropKeyObservation(key K, id uint64) {
	if cur, ok := h.obs.keys[key]; ok && cur.id == id {
		delete(h.obs.keys, key)
	}
}

// Observers may register or cancel from inside a callback, so every notify
// iterates over a snapshot.

func (h *HybridStorage[K, V]) notifyStorageObservers(c StorageChange[K]) {
	for _, id := range slices.Sorted(maps.Keys(h.obs.storage)) {
		fn, ok := h.obs.storage[id]
		if !ok {
			continue
		}
		if !fn(h, c) {
			delete(h.obs.storage, id)
		}
	}
}

func (h *HybridStorage[K, V]) notifyKeyObserver(key K, c KeyChange[V]) {
	ob, ok := h.obs.keys[key]
	if !ok {
		return
	}
	if !ob.fn(h, c) {
		h.dropKeyObservation(key, ob.id)
	}
}

func (h *HybridStorage[K, V]) notifyAllKeyObservers(c KeyChange[V]) {
	snapshot := maps.Clone(h.obs.keys)
	for key, ob := range snapshot {
		if cur, ok := h.obs.keys[key]; !ok || cur.id != ob.id {
			continue
		}
		if !ob.fn(h, c) {
			h.dropKeyObservation(key, ob.id)
		}
	}
}
