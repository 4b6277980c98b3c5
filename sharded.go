package xtable

import (
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"
)

// shard is the data container of Sharded.
type shard struct {
	sync.RWMutex

	// arena is nil when the shard allocates from the heap.
	arena *Arena
	table *Table

	// runtime stats.
	unused   uint64
	migrates uint64
}

// Sharded spreads keys over independently locked tables, each backed by its
// own arena. It is safe for concurrent use.
type Sharded struct {
	options   ShardedOptions
	keySize   int
	valueSize int
	shift     uint
	shards    []*shard
	logger    *slog.Logger
}

// ShardedStats
type ShardedStats struct {
	Len           int
	Capacity      int
	Rehashes      uint64
	Migrates      uint64
	Unused        uint64
	ArenaChunks   int
	ArenaCapacity int
	ArenaUsed     int
}

// ArenaUtilization returns used / capacity over every shard arena.
func (s ShardedStats) ArenaUtilization() float64 {
	if s.ArenaCapacity == 0 {
		return 0
	}
	return float64(s.ArenaUsed) / float64(s.ArenaCapacity)
}

func NewSharded(keySize, valueSize int, options ShardedOptions) (*Sharded, error) {
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	s := &Sharded{
		options:   options,
		keySize:   keySize,
		valueSize: valueSize,
		shift:     uint(64 - bits.TrailingZeros32(options.ShardCount)),
		shards:    make([]*shard, options.ShardCount),
		logger:    orDiscard(options.Logger),
	}
	for i := range s.shards {
		arena, table, err := s.newStorage()
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("xtable: shard %d: %w", i, err)
		}
		s.shards[i] = &shard{arena: arena, table: table}
	}
	return s, nil
}

func (s *Sharded) newStorage() (*Arena, *Table, error) {
	opt := Options{Logger: s.options.Logger}
	var arena *Arena
	if s.options.ChunkSize > 0 {
		var err error
		arena, err = NewArena(s.options.ChunkSize, ArenaOptions{
			MaxChunks: s.options.MaxChunks,
			Logger:    s.options.Logger,
		})
		if err != nil {
			return nil, nil, err
		}
		opt.Allocator = arena.Allocator()
	}
	table, err := NewTable(s.keySize, s.valueSize, XXH3, BytesEqual, opt)
	if err != nil {
		arena.Destroy()
		return nil, nil, err
	}
	return arena, table, nil
}

// getShard picks a shard from the high bits of the hash, the table
// itself indexes by the low bits.
func (s *Sharded) getShard(key []byte) *shard {
	return s.shards[XXH3(key)>>s.shift]
}

// Set stores key-value pair. When an arena backed shard runs out of chunks
// it migrates once to reclaim removed space and retries.
func (s *Sharded) Set(key, value []byte) error {
	b := s.getShard(key)
	b.Lock()
	defer b.Unlock()

	err := b.table.Set(key, value)
	if errors.Is(err, ErrAllocFailed) && b.arena != nil && b.unused > 0 {
		if merr := s.migrate(b); merr != nil {
			return err
		}
		err = b.table.Set(key, value)
	}
	return err
}

func (s *Sharded) Get(key, out []byte) bool {
	b := s.getShard(key)
	b.RLock()
	defer b.RUnlock()
	return b.table.Get(key, out)
}

func (s *Sharded) Has(key []byte) bool {
	b := s.getShard(key)
	b.RLock()
	defer b.RUnlock()
	return b.table.Has(key)
}

func (s *Sharded) Remove(key []byte) bool {
	b := s.getShard(key)
	b.Lock()
	defer b.Unlock()

	if !b.table.Remove(key) {
		return false
	}
	if b.arena != nil {
		b.unused += uint64(s.keySize + s.valueSize)
		s.eliminate(b)
	}
	return true
}

// eliminate migrates the shard when removed entries hold enough arena space.
func (s *Sharded) eliminate(b *shard) {
	used := b.arena.Stats().Used
	if used == 0 {
		return
	}
	rate := float64(b.unused) / float64(used)
	if b.unused >= s.options.MigrateDelta && rate >= s.options.MigrateRatio {
		if err := s.migrate(b); err != nil {
			s.logger.Warn("shard migrate failed", "error", err)
		}
	}
}

// migrate moves live entries into a fresh arena and drops the old one.
func (s *Sharded) migrate(b *shard) error {
	arena, table, err := s.newStorage()
	if err != nil {
		return err
	}

	b.table.Scan(func(key, value []byte) bool {
		err = table.Set(key, value)
		return err == nil
	})
	if err != nil {
		table.Destroy()
		arena.Destroy()
		return err
	}

	s.logger.Debug("shard migrate", "entries", table.Len(), "unused", b.unused)
	b.table.Destroy()
	b.arena.Destroy()
	b.arena, b.table = arena, table
	b.unused = 0
	b.migrates++
	return nil
}

// Len returns the number of entries over all shards.
func (s *Sharded) Len() (n int) {
	for _, b := range s.shards {
		b.RLock()
		n += b.table.Len()
		b.RUnlock()
	}
	return
}

// Scan calls f for every entry, one shard at a time, until f returns false.
// f must not call back into s.
func (s *Sharded) Scan(f func(key, value []byte) bool) {
	next := true
	for _, b := range s.shards {
		b.RLock()
		b.table.Scan(func(key, value []byte) bool {
			next = f(key, value)
			return next
		})
		b.RUnlock()
		if !next {
			return
		}
	}
}

// Reset drops every entry and rewinds every shard arena.
func (s *Sharded) Reset() {
	for _, b := range s.shards {
		b.Lock()
		b.table.Clear()
		b.arena.Reset()
		b.unused = 0
		b.Unlock()
	}
}

// Destroy releases every shard. s must not be used afterwards.
func (s *Sharded) Destroy() {
	for _, b := range s.shards {
		if b == nil {
			continue
		}
		b.Lock()
		b.table.Destroy()
		b.arena.Destroy()
		b.Unlock()
	}
}

func (s *Sharded) Stats() (stat ShardedStats) {
	for _, b := range s.shards {
		b.RLock()
		ts := b.table.Stats()
		as := b.arena.Stats()
		stat.Len += ts.Len
		stat.Capacity += ts.Capacity
		stat.Rehashes += ts.Rehashes
		stat.Migrates += b.migrates
		stat.Unused += b.unused
		stat.ArenaChunks += as.Chunks
		stat.ArenaCapacity += as.Capacity
		stat.ArenaUsed += as.Used
		b.RUnlock()
	}
	return
}
