package storage

import (
	"errors"
	"fmt"

	platformerrors "github.com/jmgilman/go/errors"
)

// Error taxonomy. Every failure surfaced by this package matches exactly one
// of these with errors.Is; the underlying cause, when there is one, stays in
// the chain as well.
var (
	// ErrNotFound means there is no entry for the key. It is an expected outcome.
	ErrNotFound = platformerrors.New(platformerrors.CodeNotFound, "storage: object not found")

	// ErrMalformed means an on-disk entry exists but cannot be read back.
	ErrMalformed = platformerrors.New(platformerrors.CodeInternal, "storage: malformed entry")

	// ErrWriteFailed means an entry could not be written or stamped with its
	// expiry. No partial file is left behind.
	ErrWriteFailed = platformerrors.New(platformerrors.CodeInternal, "storage: cannot write entry")

	// ErrTypeMismatch means the stored bytes did not decode into the expected type.
	ErrTypeMismatch = platformerrors.New(platformerrors.CodeInvalidInput, "storage: type mismatch")

	// ErrDirectoryEnumerationFailed means a sweep could not list the cache
	// directory. Nothing was removed by that sweep.
	ErrDirectoryEnumerationFailed = platformerrors.New(platformerrors.CodeInternal, "storage: cannot enumerate cache directory")

	// ErrDeallocated means the facade was closed before the queued operation ran.
	ErrDeallocated = platformerrors.New(platformerrors.CodeUnavailable, "storage: cache has been closed")

	// ErrInvalidConfig means a configuration value cannot be used.
	ErrInvalidConfig = platformerrors.New(platformerrors.CodeInvalidConfig, "storage: invalid configuration")
)

// wrap chains a taxonomy sentinel in front of a cause.
func wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
