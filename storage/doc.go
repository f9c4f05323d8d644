// Package storage implements a two-tier object cache: a bounded memory tier
// in front of a persistent disk tier, presented as one key/value store with
// expiry, size-bounded eviction and change notification.
//
// Tiers
//
//   - MemoryStorage wraps a cache.Cache (count and cost limits) and stores
//     every value with its resolved expiry instant.
//   - DiskStorage keeps one file per key. The file name is derived from the
//     key with a stable hash (see FileName) and the file's modification time
//     is the expiry. RemoveExpiredObjects deletes expired files and, when
//     MaxSize is exceeded, the least recently modified survivors until the
//     directory is below MaxSize/2.
//   - HybridStorage reads memory first, promotes disk hits, writes both tiers
//     and notifies storage and key observers.
//
// None of the tiers is safe for concurrent use. Storage puts a HybridStorage
// behind a serial queue and offers a blocking view and a callback view that
// share that queue, so every operation on one Storage runs in submission
// order.
//
// Basic usage
//
//	s, err := storage.New[string, User](
//	    storage.DiskConfig{Name: "users", MaxSize: 64 << 20},
//	    storage.MemoryConfig{CountLimit: 1000, Expiry: storage.After(time.Hour)},
//	    transformer.JSON[User](),
//	)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	_ = s.SetObject("john", john)
//	u, err := s.Object("john")
//	s.Async.Object("john", func(u User, err error) { ... })
//
// Errors
//
// Every failure matches one of ErrNotFound, ErrMalformed, ErrTypeMismatch,
// ErrDirectoryEnumerationFailed, ErrDeallocated or ErrInvalidConfig with
// errors.Is. The underlying OS or codec error stays in the chain.
package storage
