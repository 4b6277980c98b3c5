package xtable

import "fmt"

// Map is a typed view over a Table. Keys are hashed with XXH3 on their
// encoded bytes. Map is not safe for concurrent use.
type Map[K, V any] struct {
	t      *Table
	keys   Codec[K]
	values Codec[V]

	// scratch buffers for encoding.
	kbuf []byte
	vbuf []byte
}

func NewMap[K, V any](keys Codec[K], values Codec[V], options ...Options) (*Map[K, V], error) {
	t, err := NewTable(keys.Size(), values.Size(), XXH3, BytesEqual, options...)
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{
		t:      t,
		keys:   keys,
		values: values,
		kbuf:   make([]byte, keys.Size()),
		vbuf:   make([]byte, values.Size()),
	}, nil
}

func (m *Map[K, V]) encodeKey(key K) ([]byte, error) {
	if err := m.keys.Encode(m.kbuf, key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySize, err)
	}
	return m.kbuf, nil
}

func (m *Map[K, V]) Set(key K, val V) error {
	k, err := m.encodeKey(key)
	if err != nil {
		return err
	}
	if err := m.values.Encode(m.vbuf, val); err != nil {
		return fmt.Errorf("%w: %w", ErrValueSize, err)
	}
	return m.t.Set(k, m.vbuf)
}

func (m *Map[K, V]) Get(key K) (v V, ok bool) {
	k, err := m.encodeKey(key)
	if err != nil {
		return
	}
	if !m.t.Get(k, m.vbuf) {
		return
	}
	return m.values.Decode(m.vbuf), true
}

func (m *Map[K, V]) Has(key K) bool {
	k, err := m.encodeKey(key)
	if err != nil {
		return false
	}
	return m.t.Has(k)
}

func (m *Map[K, V]) Remove(key K) bool {
	k, err := m.encodeKey(key)
	if err != nil {
		return false
	}
	return m.t.Remove(k)
}

func (m *Map[K, V]) Len() int {
	return m.t.Len()
}

// All calls f for every pair until f returns false.
func (m *Map[K, V]) All(f func(K, V) bool) {
	m.t.Scan(func(key, value []byte) bool {
		return f(m.keys.Decode(key), m.values.Decode(value))
	})
}

// Table returns the underlying table.
func (m *Map[K, V]) Table() *Table {
	return m.t
}

func (m *Map[K, V]) Destroy() {
	m.t.Destroy()
}
