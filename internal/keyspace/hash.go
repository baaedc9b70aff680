package keyspace

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashFunc maps an arbitrary byte string to a fixed-length position.
// Implementations must be deterministic and safe for concurrent use.
type HashFunc func(data []byte) []byte

// SHA1 returns the 20-byte SHA-1 digest of data.
func SHA1(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}

// XXHash64 returns the xxhash64 digest of data, big-endian encoded.
func XXHash64(data []byte) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, xxhash.Sum64(data))
	return out
}

// FNV64a returns the 64-bit FNV-1a digest of data, big-endian encoded.
func FNV64a(data []byte) []byte {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum(nil)
}

// Identity returns a copy of data. Useful for tests and simulations where
// positions should follow the natural order of the encoded values.
func Identity(data []byte) []byte {
	return append([]byte(nil), data...)
}

// HashByName resolves a hash function by its configuration name.
func HashByName(name string) (HashFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sha1":
		return SHA1, nil
	case "xxhash":
		return XXHash64, nil
	case "fnv":
		return FNV64a, nil
	case "identity":
		return Identity, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q (expected sha1, xxhash, fnv or identity)", name)
	}
}
