package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/IvanBrykalov/tiercache/cache"
)

// DiskConfig configures a DiskStorage.
type DiskConfig struct {
	// Name is the cache directory name under Directory. Required.
	Name string `yaml:"name"`

	// Expiry applies to writes that do not pass one. Zero value is Never.
	Expiry Expiry `yaml:"expiry"`

	// MaxSize caps the allocated bytes of the directory; 0 means unbounded.
	// The cap is enforced by RemoveExpiredObjects, not on write.
	MaxSize int64 `yaml:"max_size"`

	// Directory is the parent directory; empty means os.UserCacheDir().
	Directory string `yaml:"directory"`

	// ProtectionType is passed through to the filesystem. Any non-empty value
	// creates the cache directory owner-only. Contents are not encrypted.
	ProtectionType string `yaml:"protection_type"`

	Logger  *slog.Logger `yaml:"-"`
	Metrics DiskMetrics  `yaml:"-"`
}

// MemoryConfig configures a MemoryStorage.
type MemoryConfig struct {
	// Expiry applies to writes that do not pass one. Zero value is Never.
	Expiry Expiry `yaml:"expiry"`

	// CountLimit is the maximum number of entries; 0 means unbounded.
	CountLimit int `yaml:"count_limit"`

	// TotalCostLimit caps the summed entry cost; 0 means unbounded.
	TotalCostLimit int64 `yaml:"total_cost_limit"`

	// Shards of the underlying primitive; 0 means a single shard.
	Shards int `yaml:"shards"`

	// Policy selects the eviction policy: "lru" (default) or "2q".
	Policy string `yaml:"policy"`

	Logger  *slog.Logger  `yaml:"-"`
	Metrics cache.Metrics `yaml:"-"`
}

// path resolves the cache directory for c.
func (c DiskConfig) path() (string, error) {
	if c.Name == "" {
		return "", fmt.Errorf("%w: disk config name is empty", ErrInvalidConfig)
	}
	if strings.ContainsRune(c.Name, filepath.Separator) || c.Name == "." || c.Name == ".." {
		return "", fmt.Errorf("%w: disk config name %q is not a single path element", ErrInvalidConfig, c.Name)
	}
	if c.MaxSize < 0 {
		return "", fmt.Errorf("%w: negative max size %d", ErrInvalidConfig, c.MaxSize)
	}
	dir := c.Directory
	if dir == "" {
		d, err := os.UserCacheDir()
		if err != nil {
			return "", wrap(ErrInvalidConfig, err)
		}
		dir = d
	}
	return filepath.Join(dir, c.Name), nil
}

func (c MemoryConfig) validate() error {
	if c.CountLimit < 0 {
		return fmt.Errorf("%w: negative count limit %d", ErrInvalidConfig, c.CountLimit)
	}
	if c.TotalCostLimit < 0 {
		return fmt.Errorf("%w: negative total cost limit %d", ErrInvalidConfig, c.TotalCostLimit)
	}
	switch strings.ToLower(c.Policy) {
	case "", "lru", "2q", "twoq":
		return nil
	default:
		return fmt.Errorf("%w: unknown memory policy %q", ErrInvalidConfig, c.Policy)
	}
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
