package storage

import (
	"log/slog"
	"strings"
	"time"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/policy"
	"github.com/IvanBrykalov/tiercache/policy/lru"
	"github.com/IvanBrykalov/tiercache/policy/twoq"
)

// capsule is what the memory tier stores in the primitive: the value and its
// resolved expiry instant.
type capsule[V any] struct {
	object V
	expiry time.Time
}

// MemoryOption customises a MemoryStorage.
type MemoryOption[V any] func(*memoryOptions[V])

type memoryOptions[V any] struct {
	cost func(V) int
}

// WithCost sets the per-value cost charged against TotalCostLimit.
// Without it every entry costs 0 and only CountLimit applies.
func WithCost[V any](fn func(V) int) MemoryOption[V] {
	return func(o *memoryOptions[V]) { o.cost = fn }
}

// MemoryStorage is the bounded in-process tier. Raw eviction under pressure is
// left to a cache.Cache; expiry is layered on top.
//
// The primitive may drop entries at any Set, so the storage keeps its own key
// set and reconciles it on enumeration.
//
// MemoryStorage is not safe for concurrent use.
type MemoryStorage[K comparable, V any] struct {
	cfg   MemoryConfig
	opts  memoryOptions[V]
	cache cache.Cache[K, capsule[V]]
	keys  map[K]struct{}
	log   *slog.Logger
}

// NewMemoryStorage builds a memory tier from cfg.
func NewMemoryStorage[K comparable, V any](cfg MemoryConfig, opts ...MemoryOption[V]) (*MemoryStorage[K, V], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &MemoryStorage[K, V]{
		cfg:  cfg,
		keys: make(map[K]struct{}),
		log:  loggerOr(cfg.Logger).With("tier", "memory"),
	}
	for _, o := range opts {
		o(&m.opts)
	}

	shards := cfg.Shards
	if shards <= 0 {
		shards = 1
	}
	m.cache = cache.New(cache.Options[K, capsule[V]]{
		CountLimit: cfg.CountLimit,
		MaxCost:    cfg.TotalCostLimit,
		Shards:     shards,
		Policy:     memoryPolicy[K, capsule[V]](cfg.Policy, cfg.CountLimit, shards),
		Metrics:    cfg.Metrics,
		OnEvict: func(k K, _ capsule[V], reason cache.EvictReason) {
			delete(m.keys, k)
			m.log.Debug("memory eviction", "reason", reason.String())
		},
	})
	return m, nil
}

func memoryPolicy[K comparable, V any](name string, countLimit, shards int) policy.Policy[K, V] {
	switch strings.ToLower(name) {
	case "2q", "twoq":
		perShard := 1024
		if countLimit > 0 {
			perShard = (countLimit + shards - 1) / shards
		}
		return twoq.New[K, V](perShard/4, perShard/2)
	default:
		return lru.New[K, V]()
	}
}

// Entry returns the stored value and its resolved expiry. An entry past its
// expiry is still returned until it is swept; check Expiry.IsExpired.
func (m *MemoryStorage[K, V]) Entry(key K) (Entry[V], error) {
	c, ok := m.cache.Get(key)
	if !ok {
		return Entry[V]{}, ErrNotFound
	}
	return Entry[V]{Object: c.object, Expiry: At(c.expiry)}, nil
}

func (m *MemoryStorage[K, V]) Object(key K) (V, error) {
	e, err := m.Entry(key)
	return e.Object, err
}

// SetObject stores object under key. The expiry, explicit or the configured
// default, is resolved now and never recomputed. It never fails.
func (m *MemoryStorage[K, V]) SetObject(key K, object V, expiry ...Expiry) error {
	exp := pick(m.cfg.Expiry, expiry).Date()
	cost := 0
	if m.opts.cost != nil {
		cost = m.opts.cost(object)
	}
	m.keys[key] = struct{}{}
	m.cache.Set(key, capsule[V]{object: object, expiry: exp}, cost)
	return nil
}

// RemoveObject drops key. Removing an absent key is not an error.
func (m *MemoryStorage[K, V]) RemoveObject(key K) error {
	m.cache.Remove(key)
	delete(m.keys, key)
	return nil
}

func (m *MemoryStorage[K, V]) RemoveAll() error {
	m.cache.Clear()
	clear(m.keys)
	return nil
}

// RemoveExpiredObjects sweeps every tracked key.
func (m *MemoryStorage[K, V]) RemoveExpiredObjects() error {
	now := time.Now()
	removed := 0
	for k := range m.keys {
		c, ok := m.cache.Peek(k)
		if !ok {
			delete(m.keys, k)
			continue
		}
		if c.expiry.Before(now) {
			m.cache.Remove(k)
			delete(m.keys, k)
			removed++
		}
	}
	if removed > 0 {
		m.log.Debug("memory sweep", "removed", removed)
	}
	return nil
}

// RemoveObjectIfExpired drops key only if it is resident and expired.
func (m *MemoryStorage[K, V]) RemoveObjectIfExpired(key K) {
	if c, ok := m.cache.Peek(key); ok && c.expiry.Before(time.Now()) {
		_ = m.RemoveObject(key)
	}
}

func (m *MemoryStorage[K, V]) ObjectExists(key K) bool {
	_, ok := m.cache.Peek(key)
	return ok
}

func (m *MemoryStorage[K, V]) IsExpiredObject(key K) (bool, error) {
	c, ok := m.cache.Peek(key)
	if !ok {
		return false, ErrNotFound
	}
	return c.expiry.Before(time.Now()), nil
}

// AllKeys returns the tracked keys that are still resident, in no particular
// order. Keys the primitive dropped are forgotten here.
func (m *MemoryStorage[K, V]) AllKeys() []K {
	out := make([]K, 0, len(m.keys))
	for k := range m.keys {
		if _, ok := m.cache.Peek(k); !ok {
			delete(m.keys, k)
			continue
		}
		out = append(out, k)
	}
	return out
}

func (m *MemoryStorage[K, V]) AllObjects() []V {
	keys := m.AllKeys()
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		if c, ok := m.cache.Peek(k); ok {
			out = append(out, c.object)
		}
	}
	return out
}

// Len returns the number of resident entries.
func (m *MemoryStorage[K, V]) Len() int { return m.cache.Len() }

// Config returns the configuration the storage was built with.
func (m *MemoryStorage[K, V]) Config() MemoryConfig { return m.cfg }

// TransformMemory returns an empty memory tier with the same configuration
// holding values of type U. Memory holds typed values, so nothing carries over.
func TransformMemory[K comparable, V, U any](m *MemoryStorage[K, V], opts ...MemoryOption[U]) *MemoryStorage[K, U] {
	// cfg was validated when m was built.
	out, _ := NewMemoryStorage[K, U](m.cfg, opts...)
	return out
}

var _ StorageAware[string, int] = (*MemoryStorage[string, int])(nil)
