package xtable

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/hashmap"
)

// clustered sends every key to one of 8 home slots to build long probe chains.
func clustered(key []byte) uint64 {
	return XXH3(key) & 7
}

func FuzzTable(f *testing.F) {
	f.Add("foo", uint64(1), byte(1))
	f.Add("bar", uint64(2), byte(0))
	f.Add("", uint64(0), byte(3))

	m1 := make(map[[8]byte]uint64)
	m2, _ := NewMap(Bytes(8), Number[uint64](), Options{})
	m2.t.hash = clustered

	f.Fuzz(func(t *testing.T, key string, val uint64, n byte) {
		assert := assert.New(t)

		var fk [8]byte
		copy(fk[:], key)

		// set
		m1[fk] = val
		assert.Nil(m2.Set(fk[:], val))

		if n%3 == 0 {
			// delete
			for k := range m1 {
				delete(m1, k)
				assert.True(m2.Remove(k[:]))
				break
			}
			return
		}

		// check
		for k, v := range m1 {
			res, ok := m2.Get(k[:])
			assert.True(ok)
			assert.Equal(v, res)
		}
		assert.Equal(len(m1), m2.Len())
	})
}

func TestTableRandomOps(t *testing.T) {
	assert := assert.New(t)
	faker := gofakeit.New(42)

	const keySize = 32
	var oracle hashmap.Map[string, uint64]

	a, _ := NewArena(4096)
	tb, err := NewTable(keySize, 8, DJB2, CStringEqual, Options{Allocator: a.Allocator()})
	assert.Nil(err)

	m := &Map[string, uint64]{
		t:      tb,
		keys:   String(keySize),
		values: Number[uint64](),
		kbuf:   make([]byte, keySize),
		vbuf:   make([]byte, 8),
	}

	for i := 0; i < 5000; i++ {
		key := faker.Username()
		if len(key) > keySize {
			continue
		}
		switch faker.IntRange(0, 3) {
		case 0:
			_, deleted := oracle.Delete(key)
			assert.Equal(deleted, m.Remove(key))
		default:
			val := faker.Uint64()
			oracle.Set(key, val)
			assert.Nil(m.Set(key, val))
		}
	}

	assert.Equal(oracle.Len(), m.Len())
	oracle.Scan(func(key string, val uint64) bool {
		res, ok := m.Get(key)
		assert.True(ok, key)
		assert.Equal(val, res)
		return true
	})

	var count int
	m.All(func(key string, val uint64) bool {
		res, ok := oracle.Get(key)
		assert.True(ok, key)
		assert.Equal(res, val)
		count++
		return true
	})
	assert.Equal(oracle.Len(), count)
}
