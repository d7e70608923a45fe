// Package hashutil provides the foundation library's 64-bit string hash
// (a MurmurHash2 128-bit-derived variant, truncated to 64 bits) and the
// incremental MD5/SHA-256 digests streams use.
package hashutil

import (
	"sync"
)

// seed is the fixed constant the original mixes into both hash halves; it
// exists purely so the function's output is reproducible across platforms,
// not to provide any security property.
const seed = 0xbaadf00d

const (
	c1Init = 0x87c37b91114253d5
	c2Init = 0x4cf5ad432745937f
)

// Hash64 computes the foundation library's 64-bit string/byte hash: a
// MurmurHash2 variant that mixes 16-byte blocks into two 64-bit halves and
// returns the first half after finalization. Equal inputs hash equal on
// every platform (Testable Property 4); the empty string has the fixed
// value returned by Hash64(nil).
func Hash64(key []byte) uint64 {
	h1 := uint64(0x9368e53c2f6af274) ^ uint64(seed)
	h2 := uint64(0x586dcd208f7cd3fd) ^ uint64(seed)
	c1 := uint64(c1Init)
	c2 := uint64(c2Init)

	length := len(key)
	nblocks := length / 16
	for i := 0; i < nblocks; i++ {
		off := i * 16
		k1 := leUint64(key[off : off+8])
		k2 := leUint64(key[off+8 : off+16])
		h1, h2, c1, c2 = bmix64(h1, h2, k1, k2, c1, c2)
	}

	tail := key[nblocks*16:]
	var k1, k2 uint64
	switch len(tail) {
	case 15:
		k2 ^= uint64(tail[14]) << 48
		fallthrough
	case 14:
		k2 ^= uint64(tail[13]) << 40
		fallthrough
	case 13:
		k2 ^= uint64(tail[12]) << 32
		fallthrough
	case 12:
		k2 ^= uint64(tail[11]) << 24
		fallthrough
	case 11:
		k2 ^= uint64(tail[10]) << 16
		fallthrough
	case 10:
		k2 ^= uint64(tail[9]) << 8
		fallthrough
	case 9:
		k2 ^= uint64(tail[8])
		fallthrough
	case 8:
		k1 ^= uint64(tail[7]) << 56
		fallthrough
	case 7:
		k1 ^= uint64(tail[6]) << 48
		fallthrough
	case 6:
		k1 ^= uint64(tail[5]) << 40
		fallthrough
	case 5:
		k1 ^= uint64(tail[4]) << 32
		fallthrough
	case 4:
		k1 ^= uint64(tail[3]) << 24
		fallthrough
	case 3:
		k1 ^= uint64(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint64(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint64(tail[0])
		h1, h2, c1, c2 = bmix64(h1, h2, k1, k2, c1, c2)
	}
	_ = c1
	_ = c2

	h2 ^= uint64(length)
	h1 += h2
	h2 += h1

	h1 = fmix64(h1)
	h2 = fmix64(h2)

	h1 += h2
	return h1
}

// HashString is a convenience wrapper avoiding an extra allocation for the
// common case of hashing a string rather than a byte slice.
func HashString(s string) uint64 { return Hash64([]byte(s)) }

func bmix64(h1, h2, k1, k2, c1, c2 uint64) (nh1, nh2, nc1, nc2 uint64) {
	k1 *= c1
	k1 = rotl64(k1, 23)
	k1 *= c2
	h1 ^= k1
	h1 += h2
	h2 = rotl64(h2, 41)
	k2 *= c2
	k2 = rotl64(k2, 23)
	k2 *= c1
	h2 ^= k2
	h2 += h1
	h1 = h1*3 + 0x52dce729
	h2 = h2*3 + 0x38495ab5
	c1 = c1*5 + 0x7b7d159c
	c2 = c2*5 + 0x6bce6396
	return h1, h2, c1, c2
}

func fmix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

func rotl64(x uint64, bits uint) uint64 {
	return (x << bits) | (x >> (64 - bits))
}

func leUint64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

// staticHashes backs the optional static-hash debug table: a hash -> first
// seen string map used to detect two distinct strings colliding.
var (
	staticHashMu sync.Mutex
	staticHashes = map[uint64]string{}
)

// StaticHashStore records that s hashes to Hash64(s), and reports whether a
// different string was already recorded for the same hash value (a
// collision). Intended for debug builds only; foundation.Config never calls
// this implicitly.
func StaticHashStore(s string) (collided bool) {
	h := HashString(s)
	staticHashMu.Lock()
	defer staticHashMu.Unlock()
	if prior, ok := staticHashes[h]; ok {
		return prior != s
	}
	staticHashes[h] = s
	return false
}

// StaticHashLookup returns the string previously recorded via
// StaticHashStore for the given hash, or "" if none is known.
func StaticHashLookup(h uint64) string {
	staticHashMu.Lock()
	defer staticHashMu.Unlock()
	return staticHashes[h]
}
