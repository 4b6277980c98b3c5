package xtable

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64(n int) []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(n))
}

func TestShardedOptions(t *testing.T) {
	assert := assert.New(t)

	for _, count := range []uint32{0, 3, 100} {
		options := DefaultShardedOptions
		options.ShardCount = count
		_, err := NewSharded(8, 8, options)
		assert.NotNil(err, count)
	}

	options := DefaultShardedOptions
	options.MigrateRatio = 1.5
	_, err := NewSharded(8, 8, options)
	assert.NotNil(err)

	_, err = NewSharded(0, 8, DefaultShardedOptions)
	assert.ErrorIs(err, ErrInvalidSize)
}

func TestSharded(t *testing.T) {
	for _, chunkSize := range []int{0, 1024} {
		t.Run(fmt.Sprintf("chunk-%d", chunkSize), func(t *testing.T) {
			assert := assert.New(t)

			options := DefaultShardedOptions
			options.ShardCount = 8
			options.ChunkSize = chunkSize
			s, err := NewSharded(8, 8, options)
			require.NoError(t, err)
			defer s.Destroy()

			for i := 0; i < 1000; i++ {
				assert.Nil(s.Set(u64(i), u64(i*10)))
			}
			assert.Equal(1000, s.Len())

			out := make([]byte, 8)
			for i := 0; i < 1000; i++ {
				assert.True(s.Get(u64(i), out))
				assert.Equal(u64(i*10), out)
			}

			for i := 0; i < 1000; i += 2 {
				assert.True(s.Remove(u64(i)))
			}
			assert.False(s.Remove(u64(0)))
			assert.Equal(500, s.Len())
			assert.False(s.Has(u64(0)))
			assert.True(s.Has(u64(1)))

			var count int
			s.Scan(func(key, val []byte) bool {
				assert.Equal(binary.LittleEndian.Uint64(key)*10, binary.LittleEndian.Uint64(val))
				count++
				return true
			})
			assert.Equal(500, count)

			stat := s.Stats()
			assert.Equal(500, stat.Len)
			if chunkSize > 0 {
				assert.Greater(stat.ArenaChunks, 0)
			} else {
				assert.Equal(0, stat.ArenaChunks)
			}
		})
	}
}

func TestShardedConcurrent(t *testing.T) {
	assert := assert.New(t)

	options := DefaultShardedOptions
	options.ShardCount = 16
	s, err := NewSharded(8, 8, options)
	require.NoError(t, err)

	var wg conc.WaitGroup
	for w := 0; w < 8; w++ {
		w := w
		wg.Go(func() {
			out := make([]byte, 8)
			for i := 0; i < 1000; i++ {
				n := w*1000 + i
				s.Set(u64(n), u64(n))
				s.Get(u64(n), out)
			}
		})
	}
	wg.Wait()

	assert.Equal(8000, s.Len())
	out := make([]byte, 8)
	for n := 0; n < 8000; n++ {
		assert.True(s.Get(u64(n), out))
		assert.Equal(u64(n), out)
	}
}

func TestShardedMigrate(t *testing.T) {
	assert := assert.New(t)

	options := ShardedOptions{
		ShardCount:   1,
		ChunkSize:    1024,
		MigrateRatio: 0.5,
		MigrateDelta: 64,
	}
	s, _ := NewSharded(8, 8, options)

	for i := 0; i < 100; i++ {
		s.Set(u64(i), u64(i))
	}
	assert.Equal(1600, s.Stats().ArenaUsed)

	for i := 0; i < 80; i++ {
		s.Remove(u64(i))
	}

	stat := s.Stats()
	assert.Equal(uint64(2), stat.Migrates)
	assert.Equal(20, stat.Len)
	// removals after the last migration stay in the arena.
	assert.Equal(25*16, stat.ArenaUsed)
	assert.Equal(uint64(5*16), stat.Unused)

	out := make([]byte, 8)
	for i := 80; i < 100; i++ {
		assert.True(s.Get(u64(i), out))
		assert.Equal(u64(i), out)
	}
}

func TestShardedMigrateOnFull(t *testing.T) {
	assert := assert.New(t)

	options := ShardedOptions{
		ShardCount:   1,
		ChunkSize:    160,
		MaxChunks:    1,
		MigrateRatio: 1,
		MigrateDelta: 1 << 20,
	}
	s, _ := NewSharded(8, 8, options)

	for i := 0; i < 10; i++ {
		assert.Nil(s.Set(u64(i), u64(i)))
	}
	assert.ErrorIs(s.Set(u64(10), u64(10)), ErrAllocFailed)

	assert.True(s.Remove(u64(0)))
	assert.Nil(s.Set(u64(10), u64(10)))
	assert.Equal(uint64(1), s.Stats().Migrates)
	assert.Equal(10, s.Len())
	assert.True(s.Has(u64(10)))
	assert.True(s.Has(u64(9)))
}

func TestShardedReset(t *testing.T) {
	assert := assert.New(t)

	s, _ := NewSharded(8, 8, DefaultShardedOptions)
	for i := 0; i < 100; i++ {
		s.Set(u64(i), u64(i))
	}

	s.Reset()
	stat := s.Stats()
	assert.Equal(0, stat.Len)
	assert.Equal(0, stat.ArenaUsed)
	assert.Equal(0.0, stat.ArenaUtilization())
	assert.False(s.Has(u64(1)))

	assert.Nil(s.Set(u64(1), u64(2)))
	assert.Equal(1, s.Len())
}

func TestShardedScanStop(t *testing.T) {
	assert := assert.New(t)

	s, _ := NewSharded(8, 8, DefaultShardedOptions)
	for i := 0; i < 100; i++ {
		s.Set(u64(i), u64(i))
	}

	var count int
	s.Scan(func(key, val []byte) bool {
		count++
		return count < 10
	})
	assert.Equal(10, count)
}
