package storage

// Transformer is the byte codec a disk tier uses for values of type V.
// Implementations live in package transformer.
type Transformer[V any] interface {
	ToData(v V) ([]byte, error)
	FromData(b []byte) (V, error)
}

// TransformerFuncs adapts a pair of functions to Transformer.
type TransformerFuncs[V any] struct {
	Encode func(V) ([]byte, error)
	Decode func([]byte) (V, error)
}

func (t TransformerFuncs[V]) ToData(v V) ([]byte, error)   { return t.Encode(v) }
func (t TransformerFuncs[V]) FromData(b []byte) (V, error) { return t.Decode(b) }

// StorageAware is the operation set shared by every store in this package.
// Stores are not safe for concurrent use; wrap them in a Storage for that.
type StorageAware[K comparable, V any] interface {
	Entry(key K) (Entry[V], error)
	Object(key K) (V, error)
	SetObject(key K, object V, expiry ...Expiry) error
	RemoveObject(key K) error
	RemoveAll() error
	RemoveExpiredObjects() error
	ObjectExists(key K) bool
	IsExpiredObject(key K) (bool, error)
	AllKeys() []K
	AllObjects() []V
}
