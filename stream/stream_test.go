package stream

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"testing"
)

func TestStream_TypedRoundTripLittleEndian(t *testing.T) {
	core := NewBufferStream(64, true)
	s := New(core, LittleEndian)

	if err := s.WriteU32(0x01020304); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteI64(-42); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteF64(3.5); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteString("hello"); err != nil {
		t.Fatal(err)
	}
	core.SeekTo(0)

	u32, err := s.ReadU32()
	if err != nil || u32 != 0x01020304 {
		t.Fatalf("ReadU32 = %x, %v", u32, err)
	}
	i64, err := s.ReadI64()
	if err != nil || i64 != -42 {
		t.Fatalf("ReadI64 = %d, %v", i64, err)
	}
	f64, err := s.ReadF64()
	if err != nil || f64 != 3.5 {
		t.Fatalf("ReadF64 = %v, %v", f64, err)
	}
	str, err := s.ReadString()
	if err != nil || str != "hello" {
		t.Fatalf("ReadString = %q, %v", str, err)
	}
}

func TestStream_ByteOrderSwap(t *testing.T) {
	core := NewBufferStream(8, true)
	s := New(core, BigEndian)
	if err := s.WriteU16(0x0102); err != nil {
		t.Fatal(err)
	}
	b := core.Bytes()
	if b[0] != 0x01 || b[1] != 0x02 {
		t.Fatalf("expected big-endian byte order, got %v", b)
	}

	core2 := NewBufferStream(8, true)
	s2 := New(core2, LittleEndian)
	if err := s2.WriteU16(0x0102); err != nil {
		t.Fatal(err)
	}
	b2 := core2.Bytes()
	if b2[0] != 0x02 || b2[1] != 0x01 {
		t.Fatalf("expected little-endian byte order, got %v", b2)
	}
}

func TestStream_DetermineBinaryMode(t *testing.T) {
	text := WrapBuffer([]byte("hello world\n"))
	s := New(text, LittleEndian)
	binary, err := s.DetermineBinaryMode(len(text.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if binary {
		t.Fatal("expected plain text to classify as non-binary")
	}
	if text.Position() != 0 {
		t.Fatal("DetermineBinaryMode must not advance the cursor")
	}

	withNull := WrapBuffer([]byte{'a', 'b', 0x00, 'c'})
	s2 := New(withNull, LittleEndian)
	binary, err = s2.DetermineBinaryMode(4)
	if err != nil {
		t.Fatal(err)
	}
	if !binary {
		t.Fatal("expected a null byte to classify as binary")
	}
}

func TestStream_ReadLine(t *testing.T) {
	core := WrapBuffer([]byte("first\nsecond\nthird"))
	s := New(core, LittleEndian)

	line, err := s.ReadLine('\n', nil)
	if err != nil || line != "first" {
		t.Fatalf("line=%q err=%v", line, err)
	}
	line, err = s.ReadLine('\n', nil)
	if err != nil || line != "second" {
		t.Fatalf("line=%q err=%v", line, err)
	}
	line, err = s.ReadLine('\n', nil)
	if err != nil || line != "third" {
		t.Fatalf("line=%q err=%v", line, err)
	}
}

func TestStream_MD5MatchesStdlib(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	core := WrapBuffer(payload)
	s := New(core, LittleEndian)

	got, err := s.MD5()
	if err != nil {
		t.Fatal(err)
	}
	sum := md5.Sum(payload)
	want := hex.EncodeToString(sum[:])
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestStream_MD5TextModeFiltersCR(t *testing.T) {
	withCR := WrapBuffer([]byte("line one\r\nline two\r\n"))
	withoutCR := WrapBuffer([]byte("line one\nline two\n"))

	s1 := New(withCR, LittleEndian)
	s1.SetTextMode(true)
	got1, err := s1.MD5()
	if err != nil {
		t.Fatal(err)
	}

	s2 := New(withoutCR, LittleEndian)
	s2.SetTextMode(true)
	got2, err := s2.MD5()
	if err != nil {
		t.Fatal(err)
	}

	if got1 != got2 {
		t.Fatalf("expected text-mode MD5 to ignore CR bytes: %s != %s", got1, got2)
	}
}

func TestBufferStream_WriteTruncatesWhenNotOwnedOrNotGrowing(t *testing.T) {
	backing := make([]byte, 4)
	core := WrapBufferForWrite(backing)
	n, err := core.Write([]byte("abcdef"))
	if n != 4 {
		t.Fatalf("expected a truncated write of 4 bytes, got n=%d", n)
	}
	if err != io.ErrShortWrite {
		t.Fatalf("expected io.ErrShortWrite, got %v", err)
	}
}

func TestBufferStream_GrowsWhenOwnedAndGrowing(t *testing.T) {
	core := NewBufferStream(2, true)
	n, err := core.Write([]byte("abcdef"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Fatalf("expected full write of 6 bytes, got %d", n)
	}
	if core.Capacity() < 6 {
		t.Fatalf("expected capacity to grow to at least 6, got %d", core.Capacity())
	}
}
