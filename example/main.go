package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/xgzlucario/xtable"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	arena, err := xtable.NewArena(4096, xtable.ArenaOptions{Logger: logger})
	if err != nil {
		logger.Error("create arena", "error", err)
		os.Exit(1)
	}
	defer arena.Destroy()

	// raw table: 16 byte C string keys, 8 byte values, arena backed.
	t, err := xtable.NewTable(16, 8, xtable.DJB2, xtable.CStringEqual, xtable.Options{
		Allocator: arena.Allocator(),
		Logger:    logger,
	})
	if err != nil {
		logger.Error("create table", "error", err)
		os.Exit(1)
	}

	key := make([]byte, 16)
	val := make([]byte, 8)
	for i := 0; i < 100; i++ {
		clear(key)
		copy(key, "user:"+strconv.Itoa(i))
		copy(val, fmt.Sprintf("%08d", i))
		if err := t.Set(key, val); err != nil {
			logger.Error("set", "error", err)
			os.Exit(1)
		}
	}

	clear(key)
	copy(key, "user:42")
	out := make([]byte, 8)
	if t.Get(key, out) {
		logger.Info("get", "key", "user:42", "value", string(out))
	}
	t.Remove(key)
	logger.Info("remove", "key", "user:42", "has", t.Has(key), "len", t.Len())
	logger.Info("table", "stats", t.Stats(), "arena", arena.Stats())

	snap, err := t.MarshalBinary()
	if err != nil {
		logger.Error("snapshot", "error", err)
		os.Exit(1)
	}
	t.Destroy()

	restored, _ := xtable.NewTable(16, 8, xtable.DJB2, xtable.CStringEqual, xtable.Options{Logger: logger})
	if err := restored.UnmarshalBinary(snap); err != nil {
		logger.Error("restore", "error", err)
		os.Exit(1)
	}
	logger.Info("restore", "bytes", len(snap), "len", restored.Len())

	// typed map over the same table machinery.
	scores, _ := xtable.NewMap(xtable.String(24), xtable.Number[float64]())
	scores.Set("alice", 91.5)
	scores.Set("bob", 78)
	scores.Set("alice", 95)
	score, _ := scores.Get("alice")
	logger.Info("map", "alice", score, "len", scores.Len())
	if err := scores.Set("a name much longer than twenty four bytes", 1); err != nil {
		logger.Warn("map set", "error", err)
	}

	// arena reuse: Reset keeps chunks, the next table writes over them.
	arena.Reset()
	logger.Info("arena reset", "stats", arena.Stats())

	options := xtable.DefaultShardedOptions
	options.ShardCount = 4
	options.Logger = logger
	s, err := xtable.NewSharded(16, 8, options)
	if err != nil {
		logger.Error("create sharded", "error", err)
		os.Exit(1)
	}
	defer s.Destroy()

	for i := 0; i < 1000; i++ {
		clear(key)
		copy(key, "k"+strconv.Itoa(i))
		copy(val, fmt.Sprintf("%08d", i))
		s.Set(key, val)
	}
	for i := 0; i < 900; i++ {
		clear(key)
		copy(key, "k"+strconv.Itoa(i))
		s.Remove(key)
	}
	stat := s.Stats()
	logger.Info("sharded", "len", stat.Len, "migrates", stat.Migrates, "utilization", stat.ArenaUtilization())
}
