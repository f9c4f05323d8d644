package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/storage"
)

// Adapter exports both tiers to Prometheus: it implements cache.Metrics for
// the memory tier and storage.DiskMetrics for the disk tier. One Adapter may
// serve both configs of a Storage. Safe for concurrent use.
type Adapter struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	evicts   *prometheus.CounterVec
	sizeEnt  prometheus.Gauge
	sizeCost prometheus.Gauge

	diskHits   prometheus.Counter
	diskMisses prometheus.Counter
	diskEvicts *prometheus.CounterVec
	diskBytes  prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "memory_hits_total",
			Help:        "Memory tier hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "memory_misses_total",
			Help:        "Memory tier misses",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "memory_evictions_total",
				Help:        "Memory tier evictions by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "memory_entries",
			Help:        "Resident memory tier entries (last shard reported)",
			ConstLabels: constLabels,
		}),
		sizeCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "memory_cost",
			Help:        "Resident memory tier cost (last shard reported)",
			ConstLabels: constLabels,
		}),
		diskHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "disk_hits_total",
			Help:        "Disk tier reads that found a file",
			ConstLabels: constLabels,
		}),
		diskMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "disk_misses_total",
			Help:        "Disk tier reads that found no file",
			ConstLabels: constLabels,
		}),
		diskEvicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "disk_evictions_total",
				Help:        "Files removed by disk sweeps, by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		diskBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "disk_bytes",
			Help:        "Allocated bytes of the disk tier after the last sweep",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(
		a.hits, a.misses, a.evicts, a.sizeEnt, a.sizeCost,
		a.diskHits, a.diskMisses, a.diskEvicts, a.diskBytes,
	)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates gauges for the number of entries and total cost.
func (a *Adapter) Size(entries int, cost int64) {
	a.sizeEnt.Set(float64(entries))
	a.sizeCost.Set(float64(cost))
}

func (a *Adapter) DiskHit()  { a.diskHits.Inc() }
func (a *Adapter) DiskMiss() { a.diskMisses.Inc() }

// DiskEvict counts one swept file; reason is storage.EvictExpired or storage.EvictSize.
func (a *Adapter) DiskEvict(reason string) {
	a.diskEvicts.WithLabelValues(reason).Inc()
}

func (a *Adapter) DiskSize(bytes int64) { a.diskBytes.Set(float64(bytes)) }

var (
	_ cache.Metrics       = (*Adapter)(nil)
	_ storage.DiskMetrics = (*Adapter)(nil)
)
