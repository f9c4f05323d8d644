package storage

import "path/filepath"

// HybridStorage keeps a memory tier in front of a disk tier. Reads try memory
// first and promote disk hits; writes and removals go to both tiers.
// Every completed mutation is announced to storage observers, and key
// observers receive per-key diffs.
//
// HybridStorage is not safe for concurrent use. Storage wraps it with a
// serial queue.
type HybridStorage[K comparable, V any] struct {
	memory *MemoryStorage[K, V]
	disk   *DiskStorage[K, V]
	obs    registry[K, V]
}

// NewHybridStorage combines the two tiers and takes over disk's removal
// callback. Each tier should belong to one HybridStorage only.
func NewHybridStorage[K comparable, V any](memory *MemoryStorage[K, V], disk *DiskStorage[K, V]) *HybridStorage[K, V] {
	h := &HybridStorage[K, V]{
		memory: memory,
		disk:   disk,
		obs:    newRegistry[K, V](),
	}
	disk.onRemove = h.handleRemovedObject
	return h
}

func (h *HybridStorage[K, V]) Memory() *MemoryStorage[K, V] { return h.memory }
func (h *HybridStorage[K, V]) Disk() *DiskStorage[K, V]     { return h.disk }

// handleRemovedObject maps a file deleted by the disk tier back to the
// observed key that owns it and tells that observer.
func (h *HybridStorage[K, V]) handleRemovedObject(path string) {
	name := filepath.Base(path)
	for key := range h.obs.keys {
		if h.disk.MakeFileName(key) == name {
			h.notifyKeyObserver(key, KeyRemoveChange[V]())
			return
		}
	}
}

// Entry returns the memory copy if there is one. Otherwise it reads disk and,
// on a hit, writes the value back into memory with the disk expiry.
// Disk errors are returned unchanged.
func (h *HybridStorage[K, V]) Entry(key K) (Entry[V], error) {
	if e, err := h.memory.Entry(key); err == nil {
		return e, nil
	}
	e, err := h.disk.Entry(key)
	if err != nil {
		return Entry[V]{}, err
	}
	_ = h.memory.SetObject(key, e.Object, e.Expiry)
	return e, nil
}

func (h *HybridStorage[K, V]) Object(key K) (V, error) {
	e, err := h.Entry(key)
	return e.Object, err
}

// SetObject writes both tiers. If key is observed the previous value is read
// first, and once both writes succeed the observer gets Edit(before, after)
// ahead of the storage-level Add. A failed write notifies nobody.
func (h *HybridStorage[K, V]) SetObject(key K, object V, expiry ...Expiry) error {
	var change *KeyChange[V]
	if h.HasObserver(key) {
		var before *V
		if v, err := h.Object(key); err == nil {
			before = &v
		}
		c := EditChange(before, object)
		change = &c
	}

	// An explicit expiry is resolved once so both tiers carry the same instant.
	memExp, diskExp := h.memory.cfg.Expiry, h.disk.cfg.Expiry
	if len(expiry) > 0 {
		memExp = expiry[0].Resolve()
		diskExp = memExp
	}

	if err := h.memory.SetObject(key, object, memExp); err != nil {
		return err
	}
	if err := h.disk.SetObject(key, object, diskExp); err != nil {
		return err
	}

	if change != nil {
		h.notifyKeyObserver(key, *change)
	}
	h.notifyStorageObservers(AddChange(key))
	return nil
}

// RemoveObject removes key from both tiers. A disk error, ErrNotFound
// included, is returned after the memory copy is already gone.
func (h *HybridStorage[K, V]) RemoveObject(key K) error {
	_ = h.memory.RemoveObject(key)
	if err := h.disk.RemoveObject(key); err != nil {
		return err
	}
	h.notifyStorageObservers(RemoveChange(key))
	return nil
}

// RemoveInMemoryObject drops only the memory copy. The disk copy stays and a
// later read promotes it again.
func (h *HybridStorage[K, V]) RemoveInMemoryObject(key K) error {
	_ = h.memory.RemoveObject(key)
	h.notifyStorageObservers(RemoveInMemoryChange(key))
	return nil
}

// RemoveAll clears both tiers, announces RemoveAll and then sends Remove to
// every key observer, whether or not its key held data.
func (h *HybridStorage[K, V]) RemoveAll() error {
	_ = h.memory.RemoveAll()
	if err := h.disk.RemoveAll(); err != nil {
		return err
	}
	h.notifyStorageObservers(RemoveAllChange[K]())
	h.notifyAllKeyObservers(KeyRemoveChange[V]())
	return nil
}

// RemoveExpiredObjects sweeps both tiers and announces one RemoveExpired.
// Observed keys whose files were swept hear about it through the disk
// removal callback.
func (h *HybridStorage[K, V]) RemoveExpiredObjects() error {
	_ = h.memory.RemoveExpiredObjects()
	if err := h.disk.RemoveExpiredObjects(); err != nil {
		return err
	}
	h.notifyStorageObservers(RemoveExpiredChange[K]())
	return nil
}

func (h *HybridStorage[K, V]) ObjectExists(key K) bool {
	_, err := h.Entry(key)
	return err == nil
}

func (h *HybridStorage[K, V]) IsExpiredObject(key K) (bool, error) {
	e, err := h.Entry(key)
	if err != nil {
		return false, err
	}
	return e.Expiry.IsExpired(), nil
}

// AllKeys reports the memory tier's keys; the disk tier cannot enumerate keys.
func (h *HybridStorage[K, V]) AllKeys() []K { return h.memory.AllKeys() }

func (h *HybridStorage[K, V]) AllObjects() []V { return h.memory.AllObjects() }

// TotalDiskStorageSize returns the allocated bytes of the disk tier.
func (h *HybridStorage[K, V]) TotalDiskStorageSize() (int64, error) {
	return h.disk.TotalSize()
}

// TransformHybrid returns a store over the same disk directory decoding with
// t and a fresh memory tier. Observers are not carried over.
func TransformHybrid[K comparable, V, U any](h *HybridStorage[K, V], t Transformer[U], opts ...MemoryOption[U]) *HybridStorage[K, U] {
	return NewHybridStorage(TransformMemory[K, V, U](h.memory, opts...), TransformDisk[K, V, U](h.disk, t))
}

var _ StorageAware[string, int] = (*HybridStorage[string, int])(nil)
