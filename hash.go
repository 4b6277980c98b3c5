package xtable

import (
	"bytes"

	"github.com/zeebo/xxh3"
)

// HashFn maps a key buffer to a hash. It must be a pure function of the bytes.
type HashFn func(key []byte) uint64

// EqualFn compares two key buffers, equal keys must hash equally.
type EqualFn func(a, b []byte) bool

// XXH3 is the default hash function.
func XXH3(key []byte) uint64 {
	return xxh3.Hash(key)
}

// BytesEqual is the default equal function.
func BytesEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// DJB2 hashes the key up to its first NUL byte, so zero-padded
// fixed-width strings hash like their unpadded text.
func DJB2(key []byte) uint64 {
	hash := uint64(5381)
	for _, c := range cstring(key) {
		hash = hash<<5 + hash + uint64(c)
	}
	return hash
}

// CStringEqual compares two keys up to their first NUL byte. Pair it with DJB2.
func CStringEqual(a, b []byte) bool {
	return bytes.Equal(cstring(a), cstring(b))
}

func cstring(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// HashTest is only for test, every key collides.
func HashTest([]byte) uint64 {
	return 1
}
