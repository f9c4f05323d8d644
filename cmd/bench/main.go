// Command bench runs a synthetic workload against a two-tier Storage and
// exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/tiercache/config"
	pmet "github.com/IvanBrykalov/tiercache/metrics/prom"
	"github.com/IvanBrykalov/tiercache/storage"
	"github.com/IvanBrykalov/tiercache/transformer"
)

func main() {
	// ---- Flags ----
	var (
		cfgPath  = flag.String("config", "", "YAML config (disk/memory sections); flags below fill the rest")
		dir      = flag.String("dir", "", "cache parent directory (default: a temp dir)")
		countLim = flag.Int("count", 10_000, "memory tier entry limit")
		maxSize  = flag.Int64("max-size", 64<<20, "disk tier size cap in bytes (0 = unbounded)")
		policy   = flag.String("policy", "lru", "memory eviction policy: lru | 2q")
		ttl      = flag.Duration("ttl", 0, "expiry for writes (0 = never)")
		sweep    = flag.Duration("sweep", 2*time.Second, "interval between RemoveExpiredObjects calls (0 = off)")

		workers  = flag.Int("workers", runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")
		async    = flag.Bool("async", false, "issue writes through the async facade")

		keys    = flag.Int("keys", 100_000, "keyspace size")
		valLen  = flag.Int("value", 512, "value size in bytes")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = count/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			logger.Info("pprof: serving", "addr", *pprofAddr)
			logger.Error("pprof stopped", "err", http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "tiercache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Info("metrics: serving", "addr", *metricsAddr)
		logger.Error("metrics stopped", "err", http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build storage ----
	cfg := config.File{
		Disk:   storage.DiskConfig{Name: "bench", MaxSize: *maxSize, Directory: *dir},
		Memory: storage.MemoryConfig{CountLimit: *countLim, Policy: *policy},
	}
	if *cfgPath != "" {
		f, err := config.Load(*cfgPath)
		if err != nil {
			logger.Error("load config", "err", err)
			os.Exit(1)
		}
		cfg = f
	}
	if cfg.Disk.Directory == "" {
		tmp, err := os.MkdirTemp("", "tiercache-bench-")
		if err != nil {
			logger.Error("temp dir", "err", err)
			os.Exit(1)
		}
		defer os.RemoveAll(tmp)
		cfg.Disk.Directory = tmp
	}
	if *ttl > 0 {
		cfg.Disk.Expiry = storage.After(*ttl)
		cfg.Memory.Expiry = storage.After(*ttl)
	}
	cfg = cfg.WithLogger(logger)
	cfg.Disk.Metrics = metrics
	cfg.Memory.Metrics = metrics

	s, err := storage.New[string, []byte](cfg.Disk, cfg.Memory, transformer.Data(),
		storage.WithCost(func(b []byte) int { return len(b) }))
	if err != nil {
		logger.Error("open storage", "err", err)
		os.Exit(1)
	}
	defer func() { _ = s.Close() }()

	value := make([]byte, *valLen)
	for i := range value {
		value[i] = byte('a' + i%26)
	}

	// ---- Preload to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = cfg.Memory.CountLimit / 2
	}
	for i := 0; i < pl; i++ {
		if err := s.SetObject("k:"+strconv.Itoa(i), value); err != nil {
			logger.Error("preload", "err", err)
			os.Exit(1)
		}
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var reads, writes, hits, misses, total, failures uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	if *sweep > 0 {
		g.Go(func() error {
			t := time.NewTicker(*sweep)
			defer t.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-t.C:
					if err := s.RemoveExpiredObjects(); err != nil {
						return err
					}
				}
			}
		})
	}
	for w := 0; w < workersN; w++ {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(w)*9973))
			localZipf := rand.NewZipf(localR, *zipfS, *zipfV, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if _, err := s.Object(keyByZipf()); err == nil {
						atomic.AddUint64(&hits, 1)
					} else if storage.IsNotFound(err) {
						atomic.AddUint64(&misses, 1)
					} else {
						return err
					}
					continue
				}

				atomic.AddUint64(&writes, 1)
				k := keyByZipf()
				if *async {
					s.Async.SetObject(k, value, func(err error) {
						if err != nil {
							atomic.AddUint64(&failures, 1)
						}
					})
					continue
				}
				if err := s.SetObject(k, value); err != nil {
					return err
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("workload", "err", err)
	}
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	hitsN := atomic.LoadUint64(&hits)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}
	diskBytes, _ := s.TotalDiskStorageSize()

	fmt.Printf("policy=%s count=%d max-size=%d workers=%d keys=%d dur=%v seed=%d\n",
		cfg.Memory.Policy, cfg.Memory.CountLimit, cfg.Disk.MaxSize, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d  async-failures=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, atomic.LoadUint64(&writes), atomic.LoadUint64(&failures))
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, atomic.LoadUint64(&misses), hitRate)
	fmt.Printf("memory keys=%d  disk bytes=%d\n", len(s.AllKeys()), diskBytes)
}
