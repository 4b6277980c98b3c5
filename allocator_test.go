package xtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeapAllocator(t *testing.T) {
	assert := assert.New(t)

	h := NewHeapAllocator()
	b := h.Alloc(32)
	assert.Len(b, 32)
	assert.Nil(h.Alloc(0))

	h.Free(b)
	h.Free(nil)
	assert.Equal(AllocatorStats{Allocated: 32, Freed: 32}, h.Stats())
	assert.Equal(int64(0), h.Stats().InUse())
}

func TestLimitAllocator(t *testing.T) {
	assert := assert.New(t)

	l := NewLimitAllocator(nil, 64)
	x := l.Alloc(40)
	assert.Len(x, 40)
	assert.Nil(l.Alloc(32))
	assert.Equal(int64(40), l.Used())

	y := l.Alloc(24)
	assert.Len(y, 24)
	assert.Nil(l.Alloc(1))

	l.Free(x)
	assert.Equal(int64(24), l.Used())
	assert.NotNil(l.Alloc(32))
	assert.Equal(int64(64), l.Limit())
}

func TestLimitAllocatorParentFailure(t *testing.T) {
	assert := assert.New(t)

	a, _ := NewArena(32, ArenaOptions{MaxChunks: 1})
	l := NewLimitAllocator(a.Allocator(), 1024)

	assert.NotNil(l.Alloc(32))
	// the arena is full, the budget is handed back.
	assert.Nil(l.Alloc(16))
	assert.Equal(int64(32), l.Used())
}

func TestLimitAllocatorDoubleFree(t *testing.T) {
	assert := assert.New(t)

	l := NewLimitAllocator(nil, 64)
	x := l.Alloc(16)
	assert.NotPanics(func() {
		l.Free(x)
		l.Free(x)
		l.Free(make([]byte, 32))
	})
	assert.Equal(int64(0), l.Used())

	// the budget is intact after the extra frees.
	assert.NotNil(l.Alloc(64))
	assert.Nil(l.Alloc(1))
}
