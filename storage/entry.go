package storage

// Entry is a cached object together with its resolved expiry.
// FilePath is set only by the disk tier.
type Entry[V any] struct {
	Object   V
	Expiry   Expiry
	FilePath string
}

// StorageChangeKind tags a StorageChange.
type StorageChangeKind uint8

const (
	ChangeAdd StorageChangeKind = iota + 1
	ChangeRemove
	ChangeRemoveAll
	ChangeRemoveExpired
	ChangeRemoveInMemory
)

func (k StorageChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeRemove:
		return "remove"
	case ChangeRemoveAll:
		return "removeAll"
	case ChangeRemoveExpired:
		return "removeExpired"
	case ChangeRemoveInMemory:
		return "removeInMemory"
	default:
		return "unknown"
	}
}

// StorageChange describes one completed mutating operation on a hybrid store.
// Key is meaningful for Add, Remove and RemoveInMemory only. Values are
// comparable with == when K is.
type StorageChange[K comparable] struct {
	Kind StorageChangeKind
	Key  K
}

func AddChange[K comparable](key K) StorageChange[K] {
	return StorageChange[K]{Kind: ChangeAdd, Key: key}
}

func RemoveChange[K comparable](key K) StorageChange[K] {
	return StorageChange[K]{Kind: ChangeRemove, Key: key}
}

func RemoveInMemoryChange[K comparable](key K) StorageChange[K] {
	return StorageChange[K]{Kind: ChangeRemoveInMemory, Key: key}
}

func RemoveAllChange[K comparable]() StorageChange[K] {
	return StorageChange[K]{Kind: ChangeRemoveAll}
}

func RemoveExpiredChange[K comparable]() StorageChange[K] {
	return StorageChange[K]{Kind: ChangeRemoveExpired}
}

// KeyChangeKind tags a KeyChange.
type KeyChangeKind uint8

const (
	KeyEdit KeyChangeKind = iota + 1
	KeyRemove
)

// KeyChange is the per-key diff delivered to a key observer.
// For KeyEdit, Before is nil when the key had no readable value.
type KeyChange[V any] struct {
	Kind   KeyChangeKind
	Before *V
	After  V
}

func EditChange[V any](before *V, after V) KeyChange[V] {
	return KeyChange[V]{Kind: KeyEdit, Before: before, After: after}
}

func KeyRemoveChange[V any]() KeyChange[V] {
	return KeyChange[V]{Kind: KeyRemove}
}
