// Package ident provides stable content hashes used as dedup keys for
// log satellites (formats, arguments, caller sites).
package ident

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// FNV-1a 32-bit parameters.
const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

// StableHash computes the 32-bit FNV-1a hash of s. The value is stable
// across processes and platforms, so it can serve as a cross-process
// equality key for deduplicated strings.
func StableHash(s string) uint32 {
	h := fnvOffset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}

// Key is a 128-bit content identity computed with xxh3. It is used for
// in-process satellite cache keys where collisions must be negligible.
type Key [16]byte

// Zero is the zero-value Key.
var Zero Key

// KeyOf computes the Key of a byte string.
func KeyOf(data []byte) Key {
	h128 := xxh3.Hash128(data)
	var k Key
	binary.LittleEndian.PutUint64(k[:8], h128.Lo)
	binary.LittleEndian.PutUint64(k[8:], h128.Hi)
	return k
}

// KeyOfString computes the Key of a string.
func KeyOfString(s string) Key {
	return KeyOf([]byte(s))
}

// KeyOfParts computes the Key of a composite value. Parts are joined with
// a 0x00 separator, with nil parts encoded distinctly from empty strings
// so ("", nil) and (nil, "") produce different keys.
func KeyOfParts(parts ...*string) Key {
	buf := make([]byte, 0, 64)
	for _, p := range parts {
		if p == nil {
			buf = append(buf, 0x00)
		} else {
			buf = append(buf, 0x01)
			buf = append(buf, *p...)
		}
		buf = append(buf, 0x00)
	}
	return KeyOf(buf)
}

// Hex returns the lowercase hex encoding of the key.
func (k Key) Hex() string {
	return hex.EncodeToString(k[:])
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return k.Hex()
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Zero
}
