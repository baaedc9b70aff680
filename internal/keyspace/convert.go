package keyspace

import (
	"encoding/binary"
	"fmt"

	"github.com/mitchellh/hashstructure/v2"
)

// Converter turns a bucket or member identity into the bytes that get hashed.
type Converter[T any] func(v T) ([]byte, error)

// StringBytes converts a string to its UTF-8 bytes.
func StringBytes(s string) ([]byte, error) {
	return []byte(s), nil
}

// IntBytes converts an int to 8 big-endian bytes.
func IntBytes(v int) ([]byte, error) {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, uint64(v))
	return out, nil
}

// Int32Bytes converts an int32 to 4 big-endian bytes.
func Int32Bytes(v int32) ([]byte, error) {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(v))
	return out, nil
}

// StructBytes returns a converter for arbitrary values (structs, maps,
// slices of primitives). The value is reduced to a 64-bit structural hash,
// so two values with equal fields produce equal bytes.
func StructBytes[T any]() Converter[T] {
	return func(v T) ([]byte, error) {
		sum, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
		if err != nil {
			return nil, fmt.Errorf("hash structure of %T: %w", v, err)
		}
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, sum)
		return out, nil
	}
}
