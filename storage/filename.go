package storage

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/hashstructure/v2"
)

// FileName derives the on-disk name for key. The result is identical across
// processes and runs.
//
// String keys (including named string types) hash to lowercase hex MD5. When
// the key looks like a path with an alphanumeric extension the stem is hashed
// and the extension re-appended, so "movie.mp4" becomes md5("movie")+".mp4".
// Any other key is hashed structurally with xxhash and rendered in decimal.
func FileName[K comparable](key K) string {
	if rv := reflect.ValueOf(key); rv.Kind() == reflect.String {
		return stringFileName(rv.String())
	}
	return strconv.FormatUint(structuralHash(key), 10)
}

func stringFileName(key string) string {
	ext := filepath.Ext(key)
	stem := key[:len(key)-len(ext)]
	if len(ext) > 1 && stem != "" && isAlnum(ext[1:]) {
		return md5Hex(stem) + ext
	}
	return md5Hex(key)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

func structuralHash(key any) uint64 {
	if !walkable(reflect.TypeOf(key), map[reflect.Type]bool{}) {
		return renderedHash(key)
	}
	h, err := hashstructure.Hash(key, hashstructure.FormatV2, &hashstructure.HashOptions{
		Hasher: xxhash.New(),
	})
	if err != nil {
		// Types hashstructure cannot walk (channels, for one).
		return renderedHash(key)
	}
	return h
}

// renderedHash hashes the Go-syntax rendering, which includes unexported
// fields and is stable for value types.
func renderedHash(key any) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%T:%#v", key, key))
}

// walkable reports whether hashstructure sees every bit of t. It skips
// unexported struct fields, and an interface field may hold a value that has
// some, so either sends the key to renderedHash.
func walkable(t reflect.Type, seen map[reflect.Type]bool) bool {
	if t == nil || seen[t] {
		return true
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || !walkable(f.Type, seen) {
				return false
			}
		}
	case reflect.Array, reflect.Pointer:
		return walkable(t.Elem(), seen)
	case reflect.Interface:
		return false
	}
	return true
}
