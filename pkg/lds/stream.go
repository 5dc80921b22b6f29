package lds

import (
	"bufio"
	"io"
)

// LookaheadSize is the lookahead a Stream must support for the relocated EF.CVCA probe:
// the 36 bytes of the file plus one byte proving the file ended.
const LookaheadSize = MaxCVCASize + 1

// MaxCVCASize is the fixed size of EF.CVCA (two CA references plus zero padding).
const MaxCVCASize = 36

// Stream is a byte source positioned at the start of an encoded file.
// Peek must not advance the stream. *bufio.Reader satisfies Stream.
type Stream interface {
	io.Reader
	Peek(n int) ([]byte, error)
	Discard(n int) (int, error)
}

// NewStream returns r when it already is a Stream, or wraps it in a *bufio.Reader.
// Once wrapped, the caller must keep reading from the returned Stream.
func NewStream(r io.Reader) Stream {
	if b, ok := r.(*bufio.Reader); ok {
		// Returns b itself when its buffer is already large enough.
		return bufio.NewReaderSize(b, LookaheadSize)
	}
	if s, ok := r.(Stream); ok {
		return s
	}
	return bufio.NewReader(r)
}
