package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sourcegraph/conc/pool"

	"github.com/xgzlucario/xtable"
)

const keySize = 32

func genKeys(n int) [][]byte {
	faker := gofakeit.New(1)
	keys := make([][]byte, n)
	for i := range keys {
		k := make([]byte, keySize)
		copy(k, fmt.Sprintf("%s-%d", faker.Username(), i))
		keys[i] = k
	}
	return keys
}

func main() {
	mode := ""
	entries := 0
	workers := 0
	chunkSize := 0
	flag.StringVar(&mode, "mode", "arena", "table to bench: heap, arena or sharded.")
	flag.IntVar(&entries, "entries", 100*10000, "number of entries to test")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "parallel writers for sharded mode")
	flag.IntVar(&chunkSize, "chunk", 64*1024, "arena chunk size")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	keys := genKeys(entries)
	val := make([]byte, 8)

	var set func(key []byte) error
	var get func(key, out []byte) bool
	var stats func() any

	switch mode {
	case "heap", "arena":
		options := xtable.Options{Logger: logger}
		var arena *xtable.Arena
		if mode == "arena" {
			a, err := xtable.NewArena(chunkSize, xtable.ArenaOptions{Logger: logger})
			if err != nil {
				logger.Error("create arena", "error", err)
				os.Exit(1)
			}
			arena = a
			options.Allocator = a.Allocator()
		}
		t, err := xtable.NewTable(keySize, len(val), nil, nil, options)
		if err != nil {
			logger.Error("create table", "error", err)
			os.Exit(1)
		}
		set = func(key []byte) error { return t.Set(key, val) }
		get = t.Get
		stats = func() any { return []any{t.Stats(), arena.Stats()} }

	case "sharded":
		options := xtable.DefaultShardedOptions
		options.ChunkSize = chunkSize
		options.Logger = logger
		s, err := xtable.NewSharded(keySize, len(val), options)
		if err != nil {
			logger.Error("create sharded", "error", err)
			os.Exit(1)
		}
		set = func(key []byte) error { return s.Set(key, val) }
		get = s.Get
		stats = func() any { return s.Stats() }

	default:
		logger.Error("unknown mode", "mode", mode)
		os.Exit(1)
	}

	start := time.Now()
	if mode == "sharded" {
		p := pool.New().WithErrors().WithMaxGoroutines(workers)
		step := (len(keys) + workers - 1) / workers
		for lo := 0; lo < len(keys); lo += step {
			part := keys[lo:min(lo+step, len(keys))]
			p.Go(func() error {
				for _, k := range part {
					if err := set(k); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			logger.Error("set failed", "error", err)
			os.Exit(1)
		}
	} else {
		for _, k := range keys {
			if err := set(k); err != nil {
				logger.Error("set failed", "error", err)
				os.Exit(1)
			}
		}
	}
	setCost := time.Since(start)

	lat := NewPercentile()
	out := make([]byte, len(val))
	for _, k := range keys {
		a := time.Now()
		if !get(k, out) {
			logger.Error("key lost", "key", string(k))
			os.Exit(1)
		}
		lat.Add(float64(time.Since(a)))
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Println("mode:", mode)
	fmt.Println("entries:", entries)
	fmt.Println("set cost:", setCost)
	fmt.Println("alloc:", mem.Alloc/1024/1024, "mb")
	fmt.Println("gc:", mem.NumGC)
	fmt.Printf("stats: %+v\n", stats())
	lat.Print()
}
