package xtable

import (
	"log/slog"
)

// chunk is a fixed-capacity buffer, its backing array never moves.
type chunk struct {
	data []byte
	used int
}

func (c *chunk) remaining() int {
	return len(c.data) - c.used
}

// Arena is a chunked bump allocator. Memory is only reclaimed in bulk by
// Reset or Destroy, there is no per-allocation free.
// Arena is not safe for concurrent use.
type Arena struct {
	chunkSize int
	maxChunks int

	// chunks in creation order, scanned newest first.
	chunks []*chunk

	allocs uint64
	failed uint64
	logger *slog.Logger
}

// ArenaStats
type ArenaStats struct {
	Chunks   int
	Capacity int
	Used     int
	Allocs   uint64
	Failed   uint64
}

// NewArena returns an arena with one chunk of chunkSize bytes.
func NewArena(chunkSize int, options ...ArenaOptions) (*Arena, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	var opt ArenaOptions
	if len(options) > 0 {
		opt = options[0]
	}
	a := &Arena{
		chunkSize: chunkSize,
		maxChunks: opt.MaxChunks,
		logger:    orDiscard(opt.Logger),
	}
	a.grow(chunkSize)
	return a, nil
}

// Alloc returns size bytes from the first chunk with room for them,
// creating a new chunk when none fits. The slice has len == cap == size.
// It returns nil when size <= 0, the arena is nil or destroyed, or a new
// chunk cannot be created. Memory is not zeroed after Reset.
func (a *Arena) Alloc(size int) []byte {
	if a == nil || size <= 0 || a.chunks == nil {
		return nil
	}

	for i := len(a.chunks) - 1; i >= 0; i-- {
		c := a.chunks[i]
		if c.remaining() >= size {
			return a.bump(c, size)
		}
	}

	c := a.grow(max(size, a.chunkSize))
	if c == nil {
		a.failed++
		return nil
	}
	return a.bump(c, size)
}

func (a *Arena) bump(c *chunk, size int) []byte {
	start := c.used
	c.used += size
	a.allocs++
	return c.data[start:c.used:c.used]
}

func (a *Arena) grow(size int) *chunk {
	if a.maxChunks > 0 && len(a.chunks) >= a.maxChunks {
		a.logger.Debug("arena chunk limit reached", "chunks", len(a.chunks), "want", size)
		return nil
	}
	c := &chunk{data: make([]byte, size)}
	a.chunks = append(a.chunks, c)
	a.logger.Debug("arena grow", "chunk_size", size, "chunks", len(a.chunks))
	return c
}

// Reset marks every chunk empty and keeps them for reuse.
// Slices returned before Reset must not be used afterwards.
func (a *Arena) Reset() {
	if a == nil {
		return
	}
	for _, c := range a.chunks {
		c.used = 0
	}
}

// Destroy drops every chunk. Later Alloc calls return nil.
func (a *Arena) Destroy() {
	if a == nil {
		return
	}
	for i := range a.chunks {
		a.chunks[i].data = nil
		a.chunks[i] = nil
	}
	a.chunks = nil
}

// ChunkSize returns the default chunk size.
func (a *Arena) ChunkSize() int {
	return a.chunkSize
}

func (a *Arena) NumChunks() int {
	if a == nil {
		return 0
	}
	return len(a.chunks)
}

func (a *Arena) Stats() (stat ArenaStats) {
	if a == nil {
		return
	}
	stat.Chunks = len(a.chunks)
	stat.Allocs = a.allocs
	stat.Failed = a.failed
	for _, c := range a.chunks {
		stat.Capacity += len(c.data)
		stat.Used += c.used
	}
	return
}

// Utilization returns used / capacity over all chunks.
func (a *Arena) Utilization() float64 {
	stat := a.Stats()
	if stat.Capacity == 0 {
		return 0
	}
	return float64(stat.Used) / float64(stat.Capacity)
}

// Allocator exposes the arena as an Allocator whose Free is a no-op.
func (a *Arena) Allocator() Allocator {
	return arenaAllocator{a}
}

type arenaAllocator struct {
	a *Arena
}

func (w arenaAllocator) Alloc(size int) []byte {
	return w.a.Alloc(size)
}

// Free does nothing, arena memory comes back only through Reset or Destroy.
func (arenaAllocator) Free([]byte) {}
