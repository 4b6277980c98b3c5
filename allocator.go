package xtable

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Allocator hands out raw byte buffers.
// Alloc returns nil when size <= 0 or the memory cannot be obtained.
// Free may be a no-op, callers must not rely on the buffer being reclaimed.
type Allocator interface {
	Alloc(size int) []byte
	Free(buf []byte)
}

// HeapAllocator allocates from the Go heap.
type HeapAllocator struct {
	allocated atomic.Int64
	freed     atomic.Int64
}

// AllocatorStats
type AllocatorStats struct {
	Allocated int64
	Freed     int64
}

// InUse returns bytes handed out and not yet freed.
func (s AllocatorStats) InUse() int64 {
	return s.Allocated - s.Freed
}

func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{}
}

func (h *HeapAllocator) Alloc(size int) []byte {
	if size <= 0 {
		return nil
	}
	h.allocated.Add(int64(size))
	return make([]byte, size)
}

// Free only accounts the bytes, the buffer is left to the garbage collector.
func (h *HeapAllocator) Free(buf []byte) {
	if buf == nil {
		return
	}
	h.freed.Add(int64(len(buf)))
}

func (h *HeapAllocator) Stats() AllocatorStats {
	return AllocatorStats{
		Allocated: h.allocated.Load(),
		Freed:     h.freed.Load(),
	}
}

// LimitAllocator bounds the bytes its parent may hand out at once.
// Alloc never blocks, it fails as soon as the budget is exhausted.
type LimitAllocator struct {
	parent Allocator
	limit  int64
	sem    *semaphore.Weighted
	used   atomic.Int64
}

func NewLimitAllocator(parent Allocator, limit int64) *LimitAllocator {
	if parent == nil {
		parent = NewHeapAllocator()
	}
	return &LimitAllocator{
		parent: parent,
		limit:  limit,
		sem:    semaphore.NewWeighted(limit),
	}
}

func (l *LimitAllocator) Alloc(size int) []byte {
	if size <= 0 {
		return nil
	}
	if !l.sem.TryAcquire(int64(size)) {
		return nil
	}
	buf := l.parent.Alloc(size)
	if buf == nil {
		l.sem.Release(int64(size))
		return nil
	}
	l.used.Add(int64(size))
	return buf
}

// Free returns len(buf) bytes to the budget, capped at what is currently
// charged, so a double free cannot underflow it. The budget is returned even
// when the parent keeps the bytes, as an arena does until Reset.
func (l *LimitAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	l.parent.Free(buf)
	for {
		used := l.used.Load()
		n := min(int64(len(buf)), used)
		if n == 0 {
			return
		}
		if l.used.CompareAndSwap(used, used-n) {
			l.sem.Release(n)
			return
		}
	}
}

// Used returns the bytes currently charged against the budget.
func (l *LimitAllocator) Used() int64 {
	return l.used.Load()
}

func (l *LimitAllocator) Limit() int64 {
	return l.limit
}
