package xtable

import (
	"errors"
	"strings"
	"unsafe"

	"golang.org/x/exp/constraints"
)

var (
	errCodecWidth = errors.New("xtable/codec: value wider than codec size")
	errCodecNUL   = errors.New("xtable/codec: string contains NUL byte")
)

// Codec converts T to and from a fixed number of bytes.
type Codec[T any] interface {
	Size() int
	Encode(dst []byte, v T) error
	Decode(src []byte) T
}

type numberCodec[T constraints.Integer | constraints.Float] struct{}

// Number returns a codec storing T in its native in-memory layout.
func Number[T constraints.Integer | constraints.Float]() Codec[T] {
	return numberCodec[T]{}
}

func (numberCodec[T]) Size() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func (c numberCodec[T]) Encode(dst []byte, v T) error {
	copy(dst, unsafe.Slice((*byte)(unsafe.Pointer(&v)), c.Size()))
	return nil
}

func (c numberCodec[T]) Decode(src []byte) (v T) {
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), c.Size()), src)
	return
}

type stringCodec int

// String returns a codec for strings of at most n bytes, zero padded.
// Encode rejects strings containing a NUL byte since Decode stops at the first one.
func String(n int) Codec[string] {
	return stringCodec(n)
}

func (c stringCodec) Size() int {
	return int(c)
}

func (c stringCodec) Encode(dst []byte, v string) error {
	if len(v) > int(c) {
		return errCodecWidth
	}
	if strings.IndexByte(v, 0) >= 0 {
		return errCodecNUL
	}
	n := copy(dst, v)
	clear(dst[n:])
	return nil
}

func (c stringCodec) Decode(src []byte) string {
	return string(cstring(src))
}

type bytesCodec int

// Bytes returns a codec for byte slices of at most n bytes, zero padded.
// Decode always returns n bytes.
func Bytes(n int) Codec[[]byte] {
	return bytesCodec(n)
}

func (c bytesCodec) Size() int {
	return int(c)
}

func (c bytesCodec) Encode(dst []byte, v []byte) error {
	if len(v) > int(c) {
		return errCodecWidth
	}
	n := copy(dst, v)
	clear(dst[n:])
	return nil
}

func (c bytesCodec) Decode(src []byte) []byte {
	return append([]byte(nil), src...)
}
