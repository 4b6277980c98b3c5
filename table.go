package xtable

import (
	"log/slog"
)

const (
	initialCapacity = 16
	loadFactor      = 0.75
)

// entry is one slot, key and value are owned buffers from the allocator.
type entry struct {
	key      []byte
	value    []byte
	occupied bool
}

// Table is an open addressing hashtable over fixed-size byte keys and values.
// Collisions are resolved by linear probing. Keys and values are copied in
// and out, the table never aliases caller memory.
// Table is not safe for concurrent use.
type Table struct {
	keySize   int
	valueSize int
	count     int
	entries   []entry

	hash  HashFn
	equal EqualFn
	alloc Allocator

	rehashes uint64
	logger   *slog.Logger
}

// TableStats
type TableStats struct {
	Len        int
	Capacity   int
	Rehashes   uint64
	LoadFactor float64
}

// NewTable returns a table of 16 empty slots. A nil hash defaults to XXH3
// and a nil equal to BytesEqual.
func NewTable(keySize, valueSize int, hash HashFn, equal EqualFn, options ...Options) (*Table, error) {
	if keySize <= 0 || valueSize <= 0 {
		return nil, ErrInvalidSize
	}
	var opt Options
	if len(options) > 0 {
		opt = options[0]
	}
	if hash == nil {
		hash = XXH3
	}
	if equal == nil {
		equal = BytesEqual
	}
	if opt.Allocator == nil {
		opt.Allocator = NewHeapAllocator()
	}
	return &Table{
		keySize:   keySize,
		valueSize: valueSize,
		entries:   make([]entry, initialCapacity),
		hash:      hash,
		equal:     equal,
		alloc:     opt.Allocator,
		logger:    orDiscard(opt.Logger),
	}, nil
}

func (t *Table) alive() bool {
	return t != nil && t.entries != nil
}

// probe walks from hash(key) % capacity until it finds key, an empty slot
// or returns to where it started.
func (t *Table) probe(entries []entry, key []byte) (int, bool) {
	n := uint64(len(entries))
	idx := t.hash(key) % n
	start := idx

	for entries[idx].occupied {
		if t.equal(key, entries[idx].key) {
			return int(idx), true
		}
		idx = (idx + 1) % n
		if idx == start {
			break
		}
	}
	return int(idx), false
}

// Set inserts or updates key. It grows the table first when the load factor
// has reached 0.75. On allocation failure the table is left unchanged.
func (t *Table) Set(key, value []byte) error {
	if !t.alive() {
		return ErrNilTable
	}
	if len(key) != t.keySize {
		return ErrKeySize
	}
	if len(value) != t.valueSize {
		return ErrValueSize
	}

	if float64(t.count)/float64(len(t.entries)) >= loadFactor {
		t.rehash()
	}

	idx, found := t.probe(t.entries, key)
	e := &t.entries[idx]
	if !found {
		if e.occupied {
			return ErrTableFull
		}
		k := t.alloc.Alloc(t.keySize)
		if k == nil {
			return ErrAllocFailed
		}
		v := t.alloc.Alloc(t.valueSize)
		if v == nil {
			t.alloc.Free(k)
			return ErrAllocFailed
		}
		copy(k, key)
		*e = entry{key: k, value: v, occupied: true}
		t.count++
	}

	copy(e.value, value)
	return nil
}

// Get copies the value of key into out. out is untouched when key is absent,
// has the wrong length or out is shorter than the value size.
func (t *Table) Get(key, out []byte) bool {
	if !t.alive() || len(key) != t.keySize || len(out) < t.valueSize {
		return false
	}
	idx, found := t.probe(t.entries, key)
	if !found {
		return false
	}
	copy(out, t.entries[idx].value)
	return true
}

func (t *Table) Has(key []byte) bool {
	if !t.alive() || len(key) != t.keySize {
		return false
	}
	_, found := t.probe(t.entries, key)
	return found
}

// Remove releases the buffers of key and empties its slot. Entries further
// along the probe chain are shifted back so every key stays reachable
// without tombstones.
func (t *Table) Remove(key []byte) bool {
	if !t.alive() || len(key) != t.keySize {
		return false
	}
	idx, found := t.probe(t.entries, key)
	if !found {
		return false
	}

	t.alloc.Free(t.entries[idx].key)
	t.alloc.Free(t.entries[idx].value)
	t.entries[idx] = entry{}
	t.count--
	t.shiftBack(idx)
	return true
}

// shiftBack closes the hole at idx by moving back every following entry
// whose home slot does not lie cyclically in (hole, pos].
func (t *Table) shiftBack(hole int) {
	n := len(t.entries)
	for pos := (hole + 1) % n; t.entries[pos].occupied; pos = (pos + 1) % n {
		home := int(t.hash(t.entries[pos].key) % uint64(n))
		if cyclicBetween(hole, home, pos) {
			continue
		}
		t.entries[hole] = t.entries[pos]
		t.entries[pos] = entry{}
		hole = pos
	}
}

// cyclicBetween reports whether x is in (lo, hi] on the ring.
func cyclicBetween(lo, x, hi int) bool {
	if lo <= hi {
		return lo < x && x <= hi
	}
	return x > lo || x <= hi
}

// rehash doubles the slot array and reinserts every entry. Key and value
// buffers move with their entry, so nothing is allocated from the allocator.
func (t *Table) rehash() {
	old := t.entries
	t.entries = make([]entry, len(old)*2)

	for _, e := range old {
		if !e.occupied {
			continue
		}
		idx, _ := t.probe(t.entries, e.key)
		t.entries[idx] = e
	}
	t.rehashes++
	t.logger.Debug("table rehash", "old_capacity", len(old), "capacity", len(t.entries), "count", t.count)
}

// Len returns the number of entries, 0 for a nil table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.count
}

// Cap returns the number of slots.
func (t *Table) Cap() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func (t *Table) KeySize() int {
	return t.keySize
}

func (t *Table) ValueSize() int {
	return t.valueSize
}

// Destroy releases every key and value buffer through the allocator.
// The table is unusable afterwards.
func (t *Table) Destroy() {
	if !t.alive() {
		return
	}
	t.clear()
	t.entries = nil
}

// Clear removes every entry and keeps the current capacity.
func (t *Table) Clear() {
	if !t.alive() {
		return
	}
	t.clear()
}

func (t *Table) clear() {
	for i := range t.entries {
		if t.entries[i].occupied {
			t.alloc.Free(t.entries[i].key)
			t.alloc.Free(t.entries[i].value)
			t.entries[i] = entry{}
		}
	}
	t.count = 0
}

func (t *Table) Stats() (stat TableStats) {
	if !t.alive() {
		return
	}
	stat.Len = t.count
	stat.Capacity = len(t.entries)
	stat.Rehashes = t.rehashes
	stat.LoadFactor = float64(t.count) / float64(len(t.entries))
	return
}
