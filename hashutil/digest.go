package hashutil

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// DigestKind identifies which algorithm a Digest wraps.
type DigestKind uint8

const (
	DigestMD5 DigestKind = iota
	DigestSHA256
)

// Digest is an incremental hash matching spec.md §4.C/D's
// initialize/digest/digest_finalize/get_digest_raw/get_digest contract.
//
// MD5 and SHA-256 are the standard library's crypto/md5 and crypto/sha256:
// no pack example implements its own digest, and there is no correctness or
// compatibility reason to reimplement well-reviewed standard digests by
// hand (see DESIGN.md).
type Digest struct {
	kind  DigestKind
	inner hash.Hash
}

// NewDigest constructs an incremental digest of the given kind.
func NewDigest(kind DigestKind) *Digest {
	d := &Digest{kind: kind}
	d.reset()
	return d
}

func (d *Digest) reset() {
	switch d.kind {
	case DigestSHA256:
		d.inner = sha256.New()
	default:
		d.inner = md5.New()
	}
}

// Write feeds bytes into the digest; it never returns an error.
func (d *Digest) Write(p []byte) (int, error) { return d.inner.Write(p) }

// DigestBytes is an alias for Write matching the spec's digest(bytes) name.
func (d *Digest) DigestBytes(p []byte) { _, _ = d.inner.Write(p) }

// Finalize returns the raw digest bytes without resetting internal state;
// call Reset explicitly to reuse this Digest for a new message.
func (d *Digest) Finalize() []byte { return d.inner.Sum(nil) }

// Reset clears the digest so it can be reused.
func (d *Digest) Reset() { d.reset() }

// GetDigestRaw returns the raw digest bytes (alias of Finalize, kept for
// symmetry with spec.md's get_digest_raw).
func (d *Digest) GetDigestRaw() []byte { return d.Finalize() }

// GetDigest returns the digest as a lowercase hex string.
func (d *Digest) GetDigest() string { return hex.EncodeToString(d.Finalize()) }

// MD5Sum is a convenience one-shot helper.
func MD5Sum(p []byte) [16]byte { return md5.Sum(p) }

// SHA256Sum is a convenience one-shot helper.
func SHA256Sum(p []byte) [32]byte { return sha256.Sum256(p) }
