// Package config loads storage configuration from YAML.
//
//	disk:
//	  name: thumbnails
//	  expiry: 72h
//	  max_size: 67108864
//	  directory: /var/cache/app
//	memory:
//	  expiry: 10m
//	  count_limit: 1000
//	  total_cost_limit: 0
//	  policy: 2q
//
// Expiry values are "never", a Go duration, or an RFC 3339 instant.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/IvanBrykalov/tiercache/storage"
)

// File is the top-level configuration document.
type File struct {
	Disk   storage.DiskConfig   `yaml:"disk"`
	Memory storage.MemoryConfig `yaml:"memory"`
}

// Parse decodes a YAML document. Unknown keys are rejected and disk.name
// is required.
func Parse(b []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("%w: %w", storage.ErrInvalidConfig, err)
	}
	if f.Disk.Name == "" {
		return File{}, fmt.Errorf("%w: disk.name is required", storage.ErrInvalidConfig)
	}
	return f, nil
}

// Load reads and parses the file at path.
func Load(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(b)
}

// WithLogger sets l on both tier configs.
func (f File) WithLogger(l *slog.Logger) File {
	f.Disk.Logger = l
	f.Memory.Logger = l
	return f
}
