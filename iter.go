package xtable

// Iterator walks the slots of a Table in index order.
// It is a live view, the table must not be mutated while iterating.
type Iterator struct {
	t     *Table
	index int
}

func (t *Table) Iter() *Iterator {
	return &Iterator{t: t}
}

// Next returns the key and value buffers of the next occupied slot.
// The slices alias table memory and are only valid until the next mutation.
func (it *Iterator) Next() (key, value []byte, ok bool) {
	if !it.t.alive() {
		return nil, nil, false
	}
	for it.index < len(it.t.entries) {
		e := &it.t.entries[it.index]
		it.index++
		if e.occupied {
			return e.key, e.value, true
		}
	}
	return nil, nil, false
}

// Scan calls f for every entry until f returns false.
func (t *Table) Scan(f func(key, value []byte) bool) {
	it := t.Iter()
	for {
		key, value, ok := it.Next()
		if !ok || !f(key, value) {
			return
		}
	}
}
