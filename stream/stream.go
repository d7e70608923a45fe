// Package stream implements spec.md §4.M's stream abstraction: typed,
// byte-order-aware I/O layered over a small primitive Core interface
// (Read/Write/Seek/Close), plus an MD5 helper and binary-mode detection.
//
// Rather than requiring every backing implementation (buffer, ring
// buffer, file, asset) to reimplement ReadI32/ReadString/MD5/etc., those
// live once on Stream and are shared by every Core; only the primitive
// byte-level operations vary per backend. The forward-compatible
// "must-embed-a-marker-type" shape spec files' vtables into, though,
// follows logiface's UnimplementedArraySupport/UnimplementedEvent
// pattern (see internal/flog and DESIGN.md) for the one place here that
// genuinely is a pluggable interface: Peeker, the optional
// lookahead capability DetermineBinaryMode needs.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/joeycumines/go-foundation/hashutil"
)

// ByteOrder selects little- or big-endian encoding for typed reads and
// writes. Per spec.md §6, the default wire byte order is little-endian.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// Core is the minimal primitive surface a stream backend must provide;
// Stream builds the full typed API in terms of it.
type Core interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// Seek discards n bytes from the read position (forward-only; see
	// ring.Buffer.Seek). Backends that support true random access may
	// additionally implement Peeker.
	Seek(n int) (int, error)
	Close() error
}

// Peeker is implemented by Core backends that can inspect upcoming
// bytes without consuming them (e.g. BufferStream). DetermineBinaryMode
// requires it; sequential-only backends like ring.Stream do not
// implement it, per spec.md §4.M ("only non-sequential streams support
// it").
type Peeker interface {
	Peek(n int) ([]byte, error)
}

// ErrNotPeekable is returned by DetermineBinaryMode when the underlying
// Core cannot peek.
var ErrNotPeekable = errors.New("stream: backend does not support peeking")

// Stream wraps a Core with spec.md §4.M's typed read/write surface.
type Stream struct {
	Core
	order    ByteOrder
	textMode bool
}

// New wraps core with the given byte order, little-endian being the
// spec's wire default.
func New(core Core, order ByteOrder) *Stream {
	return &Stream{Core: core, order: order}
}

// ByteOrder returns the stream's configured byte order.
func (s *Stream) ByteOrder() ByteOrder { return s.order }

// SetByteOrder reconfigures the stream's byte order for subsequent
// typed reads/writes.
func (s *Stream) SetByteOrder(o ByteOrder) { s.order = o }

// SetTextMode toggles CR-filtering for MD5, per spec.md §4.M.
func (s *Stream) SetTextMode(text bool) { s.textMode = text }

func (s *Stream) byteOrder() binary.ByteOrder {
	if s.order == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (s *Stream) readExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	read := 0
	for read < n {
		m, err := s.Core.Read(buf[read:])
		read += m
		if err != nil {
			if read == n {
				break
			}
			return nil, err
		}
		if m == 0 {
			return nil, io.ErrUnexpectedEOF
		}
	}
	return buf, nil
}

func (s *Stream) ReadBool() (bool, error) {
	v, err := s.ReadU8()
	return v != 0, err
}

func (s *Stream) ReadI8() (int8, error) {
	b, err := s.readExact(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (s *Stream) ReadU8() (uint8, error) {
	b, err := s.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Stream) ReadI16() (int16, error) {
	v, err := s.ReadU16()
	return int16(v), err
}

func (s *Stream) ReadU16() (uint16, error) {
	b, err := s.readExact(2)
	if err != nil {
		return 0, err
	}
	return s.byteOrder().Uint16(b), nil
}

func (s *Stream) ReadI32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

func (s *Stream) ReadU32() (uint32, error) {
	b, err := s.readExact(4)
	if err != nil {
		return 0, err
	}
	return s.byteOrder().Uint32(b), nil
}

func (s *Stream) ReadI64() (int64, error) {
	v, err := s.ReadU64()
	return int64(v), err
}

func (s *Stream) ReadU64() (uint64, error) {
	b, err := s.readExact(8)
	if err != nil {
		return 0, err
	}
	return s.byteOrder().Uint64(b), nil
}

func (s *Stream) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	return math.Float32frombits(v), err
}

func (s *Stream) ReadF64() (float64, error) {
	v, err := s.ReadU64()
	return math.Float64frombits(v), err
}

// ReadString reads a length-prefixed (uint32) byte sequence, per
// spec.md §4.M.
func (s *Stream) ReadString() (string, error) {
	n, err := s.ReadU32()
	if err != nil {
		return "", err
	}
	b, err := s.readExact(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteBool/I8/.../F64/String are the typed-write counterparts of the
// typed reads above, honoring ByteOrder the same way.
func (s *Stream) WriteBool(v bool) error {
	if v {
		return s.WriteU8(1)
	}
	return s.WriteU8(0)
}

func (s *Stream) WriteI8(v int8) error  { return s.WriteU8(uint8(v)) }
func (s *Stream) WriteU8(v uint8) error { _, err := s.Core.Write([]byte{v}); return err }

func (s *Stream) WriteI16(v int16) error { return s.WriteU16(uint16(v)) }
func (s *Stream) WriteU16(v uint16) error {
	b := make([]byte, 2)
	s.byteOrder().PutUint16(b, v)
	_, err := s.Core.Write(b)
	return err
}

func (s *Stream) WriteI32(v int32) error { return s.WriteU32(uint32(v)) }
func (s *Stream) WriteU32(v uint32) error {
	b := make([]byte, 4)
	s.byteOrder().PutUint32(b, v)
	_, err := s.Core.Write(b)
	return err
}

func (s *Stream) WriteI64(v int64) error { return s.WriteU64(uint64(v)) }
func (s *Stream) WriteU64(v uint64) error {
	b := make([]byte, 8)
	s.byteOrder().PutUint64(b, v)
	_, err := s.Core.Write(b)
	return err
}

func (s *Stream) WriteF32(v float32) error { return s.WriteU32(math.Float32bits(v)) }
func (s *Stream) WriteF64(v float64) error { return s.WriteU64(math.Float64bits(v)) }

func (s *Stream) WriteString(v string) error {
	if err := s.WriteU32(uint32(len(v))); err != nil {
		return err
	}
	_, err := s.Core.Write([]byte(v))
	return err
}

// ReadLine reads until delim (exclusive) or EOF. If buf is non-nil, the
// line is accumulated in buf's storage (append moves to a fresh buffer
// once buf's capacity is exceeded), per spec.md §4.M's "optionally
// buffers into a caller-provided buffer." The returned string is always
// a copy of the accumulated bytes.
func (s *Stream) ReadLine(delim byte, buf []byte) (string, error) {
	out := buf[:0]
	one := make([]byte, 1)
	for {
		n, err := s.Core.Read(one)
		if n > 0 {
			if one[0] == delim {
				return string(out), nil
			}
			out = append(out, one[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(out) == 0 {
					return "", io.EOF
				}
				return string(out), nil
			}
			return string(out), err
		}
	}
}

// DetermineBinaryMode peeks n bytes and classifies the stream binary if
// any byte falls outside printable ASCII plus whitespace, per spec.md
// §4.M. Requires the Core to implement Peeker.
func (s *Stream) DetermineBinaryMode(n int) (bool, error) {
	p, ok := s.Core.(Peeker)
	if !ok {
		return false, ErrNotPeekable
	}
	data, err := p.Peek(n)
	if err != nil {
		return false, err
	}
	for _, b := range data {
		if !isTextByte(b) {
			return true, nil
		}
	}
	return false, nil
}

func isTextByte(b byte) bool {
	if b >= 0x20 && b < 0x7f {
		return true
	}
	switch b {
	case '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// MD5 streams to end in 1 KiB blocks and returns the hex digest. In
// text mode, CR bytes are filtered before hashing so identical logical
// content produces identical text-mode hashes across platforms, per
// spec.md §4.M.
func (s *Stream) MD5() (string, error) {
	d := hashutil.NewDigest(hashutil.DigestMD5)
	buf := make([]byte, 1024)
	for {
		n, err := s.Core.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if s.textMode {
				chunk = filterCR(chunk)
			}
			d.DigestBytes(chunk)
		}
		if err != nil {
			// Any read error (io.EOF for most backends, ring.ErrClosed
			// for a ring-buffer-backed stream) means there is nothing
			// further to hash.
			break
		}
	}
	return d.GetDigest(), nil
}

func filterCR(b []byte) []byte {
	out := b[:0:0]
	for _, c := range b {
		if c != '\r' {
			out = append(out, c)
		}
	}
	return out
}
