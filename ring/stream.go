package ring

// Stream adapts a Buffer to the byte-oriented read/write/seek contract
// the stream/ package (component M) expects, so a ring buffer can be
// opened behind a ringbuffer:// URL per spec.md §6.
type Stream struct {
	buf *Buffer
}

// NewStream wraps buf as a Stream.
func NewStream(buf *Buffer) *Stream { return &Stream{buf: buf} }

func (s *Stream) Read(p []byte) (int, error)  { return s.buf.Read(p) }
func (s *Stream) Write(p []byte) (int, error) { return s.buf.Write(p) }
func (s *Stream) Close() error {
	s.buf.Close()
	return nil
}

// Seek discards n bytes from the read side (forward-only, per spec.md
// §4.L).
func (s *Stream) Seek(n int) (int, error) { return s.buf.Seek(n) }
