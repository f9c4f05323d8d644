package storage

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DiskStorage is the persistent tier: one file per key in one directory.
// The file content is the Transformer-encoded value and the file's
// modification time is the resolved expiry. There is no index file.
//
// DiskStorage is not safe for concurrent use, and it assumes it is the only
// writer to its directory.
type DiskStorage[K comparable, V any] struct {
	cfg         DiskConfig
	path        string
	transformer Transformer[V]
	log         *slog.Logger
	metrics     DiskMetrics

	// onRemove is called with the path of every file the storage deletes
	// one by one. RemoveAll does not call it.
	onRemove func(path string)
}

// NewDiskStorage resolves cfg to a directory, creates it and returns a store
// encoding values with t.
func NewDiskStorage[K comparable, V any](cfg DiskConfig, t Transformer[V]) (*DiskStorage[K, V], error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transformer", ErrInvalidConfig)
	}
	path, err := cfg.path()
	if err != nil {
		return nil, err
	}
	d := newDisk[K](cfg, path, t)
	if err := d.createDirectory(); err != nil {
		return nil, err
	}
	d.log.Debug("disk storage ready", "max_size", cfg.MaxSize)
	return d, nil
}

func newDisk[K comparable, V any](cfg DiskConfig, path string, t Transformer[V]) *DiskStorage[K, V] {
	m := cfg.Metrics
	if m == nil {
		m = NoopDiskMetrics{}
	}
	return &DiskStorage[K, V]{
		cfg:         cfg,
		path:        path,
		transformer: t,
		log:         loggerOr(cfg.Logger).With("tier", "disk", "path", path),
		metrics:     m,
	}
}

// Path returns the cache directory.
func (d *DiskStorage[K, V]) Path() string { return d.path }

// Config returns the configuration the storage was built with.
func (d *DiskStorage[K, V]) Config() DiskConfig { return d.cfg }

// MakeFileName returns the file name key is stored under.
func (d *DiskStorage[K, V]) MakeFileName(key K) string { return FileName(key) }

// MakeFilePath returns the absolute file path key is stored under.
func (d *DiskStorage[K, V]) MakeFilePath(key K) string {
	return filepath.Join(d.path, FileName(key))
}

// Entry reads key back. A missing file is ErrNotFound, an unreadable
// timestamp is ErrMalformed and undecodable content is ErrTypeMismatch.
// Expired entries are returned as-is.
func (d *DiskStorage[K, V]) Entry(key K) (Entry[V], error) {
	path := d.MakeFilePath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.metrics.DiskMiss()
			return Entry[V]{}, wrap(ErrNotFound, err)
		}
		return Entry[V]{}, wrap(ErrMalformed, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Entry[V]{}, wrap(ErrMalformed, err)
	}
	if fi.ModTime().IsZero() {
		return Entry[V]{}, wrap(ErrMalformed, errors.New("missing modification time"))
	}
	obj, err := d.transformer.FromData(data)
	if err != nil {
		return Entry[V]{}, wrap(ErrTypeMismatch, err)
	}
	d.metrics.DiskHit()
	return Entry[V]{Object: obj, Expiry: At(fi.ModTime()), FilePath: path}, nil
}

func (d *DiskStorage[K, V]) Object(key K) (V, error) {
	e, err := d.Entry(key)
	return e.Object, err
}

// SetObject encodes object and writes it, then stamps the file's modification
// time with the resolved expiry.
func (d *DiskStorage[K, V]) SetObject(key K, object V, expiry ...Expiry) error {
	exp := pick(d.cfg.Expiry, expiry).Date()
	data, err := d.transformer.ToData(object)
	if err != nil {
		return wrap(ErrTypeMismatch, err)
	}
	path := d.MakeFilePath(key)
	if err := os.WriteFile(path, data, d.fileMode()); err != nil {
		return wrap(ErrWriteFailed, err)
	}
	if err := chtimes(path, time.Now(), exp); err != nil {
		// Without the stamp the file would carry the wrong expiry.
		_ = os.Remove(path)
		return wrap(ErrWriteFailed, err)
	}
	d.log.Debug("disk write", "file", filepath.Base(path), "bytes", len(data), "expiry", exp)
	return nil
}

// RemoveObject deletes key's file. A missing file is ErrNotFound.
func (d *DiskStorage[K, V]) RemoveObject(key K) error {
	path := d.MakeFilePath(key)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wrap(ErrNotFound, err)
		}
		return err
	}
	d.removed(path)
	return nil
}

// RemoveAll deletes the cache directory itself and recreates it empty.
func (d *DiskStorage[K, V]) RemoveAll() error {
	if err := os.RemoveAll(d.path); err != nil {
		return err
	}
	d.log.Debug("disk cleared")
	return d.createDirectory()
}

// chtimes is replaced in tests.
var chtimes = os.Chtimes

type diskFile struct {
	path    string
	modTime time.Time
	size    int64
}

// RemoveExpiredObjects sweeps the directory. Expired files go first; then,
// if MaxSize is set and the survivors exceed it, the least recently modified
// survivors are deleted until the total drops below MaxSize/2.
//
// The directory is listed completely before anything is deleted, so a listing
// failure (ErrDirectoryEnumerationFailed) leaves the cache untouched.
func (d *DiskStorage[K, V]) RemoveExpiredObjects() error {
	files, err := d.listFiles()
	if err != nil {
		return err
	}

	now := time.Now()
	var (
		survivors []diskFile
		total     int64
		expired   int
	)
	for _, f := range files {
		if f.modTime.Before(now) {
			if err := d.removeFile(f.path, EvictExpired); err != nil {
				return err
			}
			expired++
			continue
		}
		total += f.size
		survivors = append(survivors, f)
	}

	evicted := 0
	if limit := d.cfg.MaxSize; limit > 0 && total > limit {
		target := limit / 2
		slices.SortStableFunc(survivors, func(a, b diskFile) int {
			if c := a.modTime.Compare(b.modTime); c != 0 {
				return c
			}
			return cmp.Compare(a.path, b.path)
		})
		for _, f := range survivors {
			if err := d.removeFile(f.path, EvictSize); err != nil {
				return err
			}
			evicted++
			total -= f.size
			if total < target {
				break
			}
		}
	}

	d.metrics.DiskSize(total)
	d.log.Info("disk sweep", "expired", expired, "evicted", evicted, "size", total)
	return nil
}

// RemoveObjectIfExpired deletes key's file only if its expiry has passed.
func (d *DiskStorage[K, V]) RemoveObjectIfExpired(key K) error {
	path := d.MakeFilePath(key)
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wrap(ErrNotFound, err)
		}
		return wrap(ErrMalformed, err)
	}
	if !fi.ModTime().Before(time.Now()) {
		return nil
	}
	return d.removeFile(path, EvictExpired)
}

func (d *DiskStorage[K, V]) ObjectExists(key K) bool {
	_, err := d.Entry(key)
	return err == nil
}

func (d *DiskStorage[K, V]) IsExpiredObject(key K) (bool, error) {
	e, err := d.Entry(key)
	if err != nil {
		return false, err
	}
	return e.Expiry.IsExpired(), nil
}

// AllKeys is always empty: hashed file names cannot be mapped back to keys.
func (d *DiskStorage[K, V]) AllKeys() []K { return nil }

// AllObjects is always empty, see AllKeys.
func (d *DiskStorage[K, V]) AllObjects() []V { return nil }

// TotalSize returns the allocated bytes of the files a sweep accounts for:
// hidden entries are not counted.
func (d *DiskStorage[K, V]) TotalSize() (int64, error) {
	files, err := d.listFiles()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	return total, nil
}

// TransformDisk returns a store over the same directory and configuration
// decoding with t. No data is migrated.
func TransformDisk[K comparable, V, U any](d *DiskStorage[K, V], t Transformer[U]) *DiskStorage[K, U] {
	return newDisk[K](d.cfg, d.path, t)
}

// listFiles walks the directory, skipping hidden entries and directories.
func (d *DiskStorage[K, V]) listFiles() ([]diskFile, error) {
	var files []diskFile
	err := filepath.WalkDir(d.path, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == d.path {
			return nil
		}
		if strings.HasPrefix(de.Name(), ".") {
			if de.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if de.IsDir() {
			return nil
		}
		fi, err := de.Info()
		if err != nil {
			return err
		}
		files = append(files, diskFile{path: path, modTime: fi.ModTime(), size: allocatedSize(fi)})
		return nil
	})
	if err != nil {
		return nil, wrap(ErrDirectoryEnumerationFailed, err)
	}
	return files, nil
}

func (d *DiskStorage[K, V]) removeFile(path, reason string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	d.metrics.DiskEvict(reason)
	d.log.Debug("disk eviction", "file", filepath.Base(path), "reason", reason)
	d.removed(path)
	return nil
}

func (d *DiskStorage[K, V]) removed(path string) {
	if d.onRemove != nil {
		d.onRemove(path)
	}
}

func (d *DiskStorage[K, V]) createDirectory() error {
	perm := fs.FileMode(0o755)
	if d.cfg.ProtectionType != "" {
		perm = 0o700
	}
	if err := os.MkdirAll(d.path, perm); err != nil {
		return err
	}
	if d.cfg.ProtectionType != "" {
		return os.Chmod(d.path, perm)
	}
	return nil
}

func (d *DiskStorage[K, V]) fileMode() fs.FileMode {
	if d.cfg.ProtectionType != "" {
		return 0o600
	}
	return 0o644
}

var _ StorageAware[string, []byte] = (*DiskStorage[string, []byte])(nil)
