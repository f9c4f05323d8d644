package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/tiercache/transformer"
)

type User struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newTestDisk(t *testing.T, cfg DiskConfig) *DiskStorage[string, User] {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "Floppy"
	}
	if cfg.Directory == "" {
		cfg.Directory = t.TempDir()
	}
	d, err := NewDiskStorage[string, User](cfg, transformer.JSON[User]())
	require.NoError(t, err)
	return d
}

func newTestMemory(t *testing.T, cfg MemoryConfig) *MemoryStorage[string, User] {
	t.Helper()
	m, err := NewMemoryStorage[string, User](cfg)
	require.NoError(t, err)
	return m
}

func newTestHybrid(t *testing.T) *HybridStorage[string, User] {
	t.Helper()
	return NewHybridStorage(newTestMemory(t, MemoryConfig{}), newTestDisk(t, DiskConfig{}))
}

func newTestStorage(t *testing.T) *Storage[string, User] {
	t.Helper()
	s, err := New[string, User](
		DiskConfig{Name: "Thor", Directory: t.TempDir()},
		MemoryConfig{},
		transformer.JSON[User](),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
