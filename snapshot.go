package xtable

import (
	"encoding"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/s2"
)

var (
	_ json.Marshaler             = (*Table)(nil)
	_ json.Unmarshaler           = (*Table)(nil)
	_ encoding.BinaryMarshaler   = (*Table)(nil)
	_ encoding.BinaryUnmarshaler = (*Table)(nil)
)

type tableJSON struct {
	KeySize   int
	ValueSize int
	K         [][]byte
	V         [][]byte
}

// MarshalJSON encodes every entry in slot order.
func (t *Table) MarshalJSON() ([]byte, error) {
	if !t.alive() {
		return nil, ErrNilTable
	}
	tj := tableJSON{
		KeySize:   t.keySize,
		ValueSize: t.valueSize,
		K:         make([][]byte, 0, t.count),
		V:         make([][]byte, 0, t.count),
	}
	t.Scan(func(key, value []byte) bool {
		tj.K = append(tj.K, key)
		tj.V = append(tj.V, value)
		return true
	})
	return sonic.Marshal(tj)
}

// UnmarshalJSON inserts every encoded entry into t. Existing keys are updated.
// If any entry fails to insert, t is rolled back to its previous content.
func (t *Table) UnmarshalJSON(src []byte) error {
	if !t.alive() {
		return ErrNilTable
	}
	var tj tableJSON
	if err := sonic.Unmarshal(src, &tj); err != nil {
		return fmt.Errorf("xtable: decode snapshot: %w", err)
	}
	if tj.KeySize != t.keySize {
		return fmt.Errorf("%w: snapshot has %d, table has %d", ErrKeySize, tj.KeySize, t.keySize)
	}
	if tj.ValueSize != t.valueSize {
		return fmt.Errorf("%w: snapshot has %d, table has %d", ErrValueSize, tj.ValueSize, t.valueSize)
	}
	if len(tj.K) != len(tj.V) {
		return fmt.Errorf("xtable: snapshot has %d keys and %d values", len(tj.K), len(tj.V))
	}

	var undo []restoreUndo
	for i := range tj.K {
		prev := make([]byte, t.valueSize)
		found := t.Get(tj.K[i], prev)
		if err := t.Set(tj.K[i], tj.V[i]); err != nil {
			t.rollback(undo)
			return fmt.Errorf("xtable: restore entry %d: %w", i, err)
		}
		if !found {
			prev = nil
		}
		undo = append(undo, restoreUndo{key: tj.K[i], prev: prev})
	}
	t.logger.Debug("table restore", "entries", len(tj.K), "count", t.count)
	return nil
}

// restoreUndo records a key touched by a restore and its previous value,
// nil when the key was inserted.
type restoreUndo struct {
	key  []byte
	prev []byte
}

// rollback reverts undo in reverse order. Reverting never allocates: updates
// copy into existing buffers and inserts are removed.
func (t *Table) rollback(undo []restoreUndo) {
	for i := len(undo) - 1; i >= 0; i-- {
		u := undo[i]
		if u.prev == nil {
			t.Remove(u.key)
		} else {
			t.Set(u.key, u.prev)
		}
	}
}

// MarshalBinary returns the JSON snapshot compressed with s2.
func (t *Table) MarshalBinary() ([]byte, error) {
	src, err := t.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return s2.EncodeSnappy(nil, src), nil
}

func (t *Table) UnmarshalBinary(data []byte) error {
	src, err := s2.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("xtable: decompress snapshot: %w", err)
	}
	return t.UnmarshalJSON(src)
}
