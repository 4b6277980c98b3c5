package xtable

import (
	"errors"
	"io"
	"log/slog"
)

var (
	ErrNilTable         = errors.New("xtable: nil table")
	ErrInvalidSize      = errors.New("xtable: key and value size must be positive")
	ErrKeySize          = errors.New("xtable: key length does not match key size")
	ErrValueSize        = errors.New("xtable: value length does not match value size")
	ErrAllocFailed      = errors.New("xtable: allocation failed")
	ErrTableFull        = errors.New("xtable: probe cycle found no free slot")
	ErrInvalidChunkSize = errors.New("xtable/arena: chunk size must be positive")
)

// Options is the configuration of a Table.
type Options struct {
	// Allocator supplies key and value buffers.
	// A fresh HeapAllocator is used when nil.
	Allocator Allocator

	// Logger receives debug events such as rehash. Discarded when nil.
	Logger *slog.Logger
}

// ArenaOptions is the configuration of an Arena.
type ArenaOptions struct {
	// MaxChunks caps the number of chunks the arena may hold, 0 means unlimited.
	MaxChunks int

	Logger *slog.Logger
}

// ShardedOptions is the configuration of a Sharded table.
type ShardedOptions struct {
	// ShardCount is shard numbers, must be a power of two.
	ShardCount uint32

	// ChunkSize is the arena chunk size of every shard.
	// Shards allocate from the heap when it is 0.
	ChunkSize int

	// MaxChunks is passed to every shard arena.
	MaxChunks int

	// Migrate threshold for an arena backed shard to move its live entries
	// into a fresh arena, reclaiming the space of removed ones.
	MigrateRatio float64
	MigrateDelta uint64

	Logger *slog.Logger
}

// DefaultShardedOptions
var DefaultShardedOptions = ShardedOptions{
	ShardCount:   64,
	ChunkSize:    64 * 1024, // 64 KB
	MigrateRatio: 0.6,
	MigrateDelta: 4 * 1024, // 4 KB
}

func checkOptions(options ShardedOptions) error {
	if options.ShardCount == 0 || options.ShardCount&(options.ShardCount-1) != 0 {
		return errors.New("xtable/options: shard count must be a power of two")
	}
	if options.ChunkSize < 0 {
		return errors.New("xtable/options: negative chunk size")
	}
	if options.MaxChunks < 0 {
		return errors.New("xtable/options: negative max chunks")
	}
	if options.MigrateRatio < 0 || options.MigrateRatio > 1 {
		return errors.New("xtable/options: migrate ratio out of [0, 1]")
	}
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
