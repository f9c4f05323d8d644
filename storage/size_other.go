//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package storage

import "io/fs"

// allocatedSize falls back to the logical size where block counts are not exposed.
func allocatedSize(fi fs.FileInfo) int64 {
	return fi.Size()
}
