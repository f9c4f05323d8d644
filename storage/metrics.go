package storage

// Disk eviction reasons reported to DiskMetrics.
const (
	EvictExpired = "expired"
	EvictSize    = "size"
)

// DiskMetrics exposes disk-tier observability hooks.
// NoopDiskMetrics is used when none is configured.
type DiskMetrics interface {
	DiskHit()
	DiskMiss()
	DiskEvict(reason string)
	DiskSize(bytes int64)
}

// NoopDiskMetrics is a DiskMetrics implementation that does nothing.
type NoopDiskMetrics struct{}

func (NoopDiskMetrics) DiskHit()         {}
func (NoopDiskMetrics) DiskMiss()        {}
func (NoopDiskMetrics) DiskEvict(string) {}
func (NoopDiskMetrics) DiskSize(int64)   {}

var _ DiskMetrics = NoopDiskMetrics{}
