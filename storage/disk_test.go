package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/tiercache/transformer"
)

type fakeDiskMetrics struct {
	mu     sync.Mutex
	hits   int
	misses int
	evicts map[string]int
	size   int64
}

func (f *fakeDiskMetrics) DiskHit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++
}

func (f *fakeDiskMetrics) DiskMiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses++
}

func (f *fakeDiskMetrics) DiskEvict(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.evicts == nil {
		f.evicts = map[string]int{}
	}
	f.evicts[reason]++
}

func (f *fakeDiskMetrics) DiskSize(b int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.size = b
}

func TestDisk_SetWritesFileWithExpiryAsModTime(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	at := time.Now().Add(time.Hour).Truncate(time.Second)

	require.NoError(t, d.SetObject("user", john, At(at)))

	fi, err := os.Stat(d.MakeFilePath("user"))
	require.NoError(t, err)
	assert.True(t, at.Equal(fi.ModTime()))

	e, err := d.Entry("user")
	require.NoError(t, err)
	assert.Equal(t, john, e.Object)
	assert.True(t, at.Equal(e.Expiry.Date()))
	assert.Equal(t, d.MakeFilePath("user"), e.FilePath)
}

func TestDisk_DefaultExpiry(t *testing.T) {
	d := newTestDisk(t, DiskConfig{Expiry: After(time.Minute)})
	require.NoError(t, d.SetObject("user", john))

	e, err := d.Entry("user")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), e.Expiry.Date(), 2*time.Second)

	never := newTestDisk(t, DiskConfig{})
	require.NoError(t, never.SetObject("user", john))
	e, err = never.Entry("user")
	require.NoError(t, err)
	assert.WithinDuration(t, neverDate, e.Expiry.Date(), time.Second)
}

func TestDisk_EntryErrors(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})

	_, err := d.Entry("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(d.MakeFilePath("garbage"), []byte("{not json"), 0o644))
	_, err = d.Entry("garbage")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	require.NoError(t, os.Mkdir(d.MakeFilePath("dir"), 0o755))
	_, err = d.Entry("dir")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDisk_ObjectExistsAndIsExpired(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	require.NoError(t, d.SetObject("stale", john, Seconds(-60)))
	require.NoError(t, d.SetObject("fresh", john, After(time.Hour)))

	assert.True(t, d.ObjectExists("stale"))
	assert.False(t, d.ObjectExists("missing"))

	expired, err := d.IsExpiredObject("stale")
	require.NoError(t, err)
	assert.True(t, expired)

	expired, err = d.IsExpiredObject("fresh")
	require.NoError(t, err)
	assert.False(t, expired)

	_, err = d.IsExpiredObject("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDisk_RemoveObject(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	var removed []string
	d.onRemove = func(p string) { removed = append(removed, p) }

	require.NoError(t, d.SetObject("user", john))
	require.NoError(t, d.RemoveObject("user"))
	assert.Equal(t, []string{d.MakeFilePath("user")}, removed)

	err := d.RemoveObject("user")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, removed, 1)
}

func TestDisk_RemoveAllRecreatesDirectory(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	require.NoError(t, d.SetObject("a", john))
	require.NoError(t, os.WriteFile(filepath.Join(d.Path(), ".hidden"), []byte("x"), 0o644))

	require.NoError(t, d.RemoveAll())

	fi, err := os.Stat(d.Path())
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	entries, err := os.ReadDir(d.Path())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDisk_RemoveExpiredObjects(t *testing.T) {
	m := &fakeDiskMetrics{}
	d := newTestDisk(t, DiskConfig{Metrics: m})
	var removed []string
	d.onRemove = func(p string) { removed = append(removed, p) }

	require.NoError(t, d.SetObject("stale1", john, Seconds(-10)))
	require.NoError(t, d.SetObject("stale2", john, Seconds(-1000)))
	require.NoError(t, d.SetObject("fresh", arya, After(time.Hour)))

	hidden := filepath.Join(d.Path(), ".keep")
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(hidden, old, old))

	require.NoError(t, d.RemoveExpiredObjects())

	assert.ElementsMatch(t, []string{d.MakeFilePath("stale1"), d.MakeFilePath("stale2")}, removed)
	assert.False(t, d.ObjectExists("stale1"))
	assert.False(t, d.ObjectExists("stale2"))
	assert.True(t, d.ObjectExists("fresh"))
	assert.FileExists(t, hidden)
	assert.Equal(t, 2, m.evicts[EvictExpired])
	assert.Zero(t, m.evicts[EvictSize])
}

func TestDisk_SizeCapEvictsLeastRecentlyModified(t *testing.T) {
	dir := t.TempDir()
	big := User{FirstName: "Big", LastName: strings.Repeat("x", 16*1024)}

	writer := newTestDisk(t, DiskConfig{Directory: dir})
	keys := make([]string, 10)
	base := time.Now().Add(time.Hour)
	for i := range keys {
		keys[i] = "user" + string(rune('0'+i))
		// later keys carry later modification times
		require.NoError(t, writer.SetObject(keys[i], big, At(base.Add(time.Duration(i)*time.Minute))))
	}
	total, err := writer.TotalSize()
	require.NoError(t, err)
	require.Positive(t, total)

	m := &fakeDiskMetrics{}
	capped := newTestDisk(t, DiskConfig{Directory: dir, MaxSize: total - 1, Metrics: m})
	var removed []string
	capped.onRemove = func(p string) { removed = append(removed, p) }

	require.NoError(t, capped.RemoveExpiredObjects())

	after, err := capped.TotalSize()
	require.NoError(t, err)
	assert.Less(t, after, (total-1)/2)
	assert.Equal(t, after, m.size)
	require.NotEmpty(t, removed)
	assert.Equal(t, len(removed), m.evicts[EvictSize])

	// removals are exactly the oldest prefix
	for i, p := range removed {
		assert.Equal(t, capped.MakeFilePath(keys[i]), p)
	}
	for _, k := range keys[len(removed):] {
		assert.True(t, capped.ObjectExists(k), k)
	}
	assert.True(t, capped.ObjectExists(keys[len(keys)-1]))
}

func TestDisk_UnboundedSizeNeverEvicts(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, d.SetObject(k, john))
	}
	require.NoError(t, d.RemoveExpiredObjects())
	for _, k := range []string{"a", "b", "c"} {
		assert.True(t, d.ObjectExists(k))
	}
}

func TestDisk_EnumerationFailure(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	require.NoError(t, os.RemoveAll(d.Path()))

	err := d.RemoveExpiredObjects()
	assert.ErrorIs(t, err, ErrDirectoryEnumerationFailed)

	_, err = d.TotalSize()
	assert.ErrorIs(t, err, ErrDirectoryEnumerationFailed)
}

func TestDisk_TotalSizeSkipsHiddenEntries(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	require.NoError(t, d.SetObject("a", john))
	before, err := d.TotalSize()
	require.NoError(t, err)
	require.Positive(t, before)

	require.NoError(t, os.WriteFile(filepath.Join(d.Path(), ".lock"), make([]byte, 64<<10), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(d.Path(), ".tmp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(d.Path(), ".tmp", "part"), make([]byte, 64<<10), 0o644))

	after, err := d.TotalSize()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDisk_SetObjectRemovesFileWhenExpiryCannotBeStamped(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	stampErr := errors.New("read-only mount")
	chtimes = func(string, time.Time, time.Time) error { return stampErr }
	t.Cleanup(func() { chtimes = os.Chtimes })

	err := d.SetObject("user", john)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorIs(t, err, stampErr)
	assert.NoFileExists(t, d.MakeFilePath("user"))
	assert.ErrorIs(t, d.RemoveObject("user"), ErrNotFound)
}

func TestDisk_RemoveObjectIfExpired(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	var removed []string
	d.onRemove = func(p string) { removed = append(removed, p) }

	require.NoError(t, d.SetObject("stale", john, Seconds(-5)))
	require.NoError(t, d.SetObject("fresh", john))

	require.NoError(t, d.RemoveObjectIfExpired("stale"))
	require.NoError(t, d.RemoveObjectIfExpired("fresh"))
	assert.ErrorIs(t, d.RemoveObjectIfExpired("missing"), ErrNotFound)

	assert.Equal(t, []string{d.MakeFilePath("stale")}, removed)
	assert.True(t, d.ObjectExists("fresh"))
}

func TestDisk_ProtectionTypeMakesDirectoryPrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	d := newTestDisk(t, DiskConfig{ProtectionType: "complete"})
	fi, err := os.Stat(d.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
}

func TestDisk_DefaultDirectory(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME is honoured on linux only")
	}
	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", home)

	d, err := NewDiskStorage[string, User](DiskConfig{Name: "Default"}, transformer.JSON[User]())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Default"), d.Path())
	assert.DirExists(t, d.Path())
}

func TestDisk_InvalidConfig(t *testing.T) {
	for _, cfg := range []DiskConfig{
		{Name: ""},
		{Name: "a/b"},
		{Name: ".."},
		{Name: "ok", MaxSize: -1},
	} {
		cfg.Directory = t.TempDir()
		_, err := NewDiskStorage[string, User](cfg, transformer.JSON[User]())
		assert.ErrorIs(t, err, ErrInvalidConfig, cfg.Name)
	}

	_, err := NewDiskStorage[string, User](DiskConfig{Name: "x", Directory: t.TempDir()}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDisk_Metrics(t *testing.T) {
	m := &fakeDiskMetrics{}
	d := newTestDisk(t, DiskConfig{Metrics: m})
	require.NoError(t, d.SetObject("a", john))

	_, _ = d.Entry("a")
	_, _ = d.Entry("b")
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)
}

func TestTransformDisk_SameFilesNewCodec(t *testing.T) {
	d := newTestDisk(t, DiskConfig{})
	require.NoError(t, d.SetObject("user", john))

	raw := TransformDisk[string, User, []byte](d, transformer.Data())
	assert.Equal(t, d.Path(), raw.Path())

	b, err := raw.Object("user")
	require.NoError(t, err)
	var decoded User
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, john, decoded)
	assert.Empty(t, raw.AllKeys())
}
