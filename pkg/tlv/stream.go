package tlv

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gregLibert/mrtd/pkg/bits"
)

// STREAM FRAMING (ISO/IEC 8825-1, BER):
// bertlv decodes complete buffers only. LDS files arrive as a stream (a chip read or a dump)
// that may hold more than one object, so the outer object is framed here and its bytes are
// then handed to bertlv.
//
// Tag:    first byte; if bits 5-1 are all set, further bytes follow while bit 8 is set.
// Length: short form (bit 8 clear, 0-127) or long form (bit 8 set, bits 7-1 = byte count).
//         The indefinite form (0x80) is not used by the LDS and is rejected.

const (
	maxTagBytes = 4
	// maxLengthBytes allows values up to 16 MiB, far beyond the largest biometric data group.
	maxLengthBytes = 3
)

// ErrIndefiniteLength is returned for the BER indefinite length form.
var ErrIndefiniteLength = errors.New("indefinite length not supported")

// Header describes the framing of one BER-TLV object.
type Header struct {
	Tag         []byte
	HeaderLen   int // Tag and length bytes
	ValueLen    int
	Constructed bool
}

// TotalLen returns the size of the complete encoded object.
func (h Header) TotalLen() int {
	return h.HeaderLen + h.ValueLen
}

// TagString returns the tag in the uppercase hex form used by bertlv.
func (h Header) TagString() string {
	return fmt.Sprintf("%X", h.Tag)
}

// IsConstructed reports whether the first tag byte announces a constructed encoding (bit 6).
func IsConstructed(firstTagByte byte) bool {
	return bits.IsSet(firstTagByte, 6)
}

// ParseHeader decodes the tag and length at the start of data.
// data may be truncated after the header; the value is not required.
func ParseHeader(data []byte) (Header, error) {
	return readHeader(bytes.NewReader(data), nil)
}

// ReadObject reads exactly one complete BER-TLV object from r and returns its encoding.
// r is not read past the end of the object.
func ReadObject(r io.Reader) ([]byte, error) {
	var raw bytes.Buffer

	h, err := readHeader(r, &raw)
	if err != nil {
		return nil, err
	}

	value := make([]byte, h.ValueLen)
	if _, err := io.ReadFull(r, value); err != nil {
		return nil, fmt.Errorf("tag %s: reading %d value bytes: %w", h.TagString(), h.ValueLen, err)
	}
	raw.Write(value)

	return raw.Bytes(), nil
}

// readHeader reads tag and length bytes one at a time, copying them to raw when not nil.
func readHeader(r io.Reader, raw *bytes.Buffer) (Header, error) {
	var h Header
	one := make([]byte, 1)

	next := func(what string) (byte, error) {
		if _, err := io.ReadFull(r, one); err != nil {
			if errors.Is(err, io.EOF) && h.HeaderLen > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, fmt.Errorf("reading %s: %w", what, err)
		}
		h.HeaderLen++
		if raw != nil {
			raw.WriteByte(one[0])
		}
		return one[0], nil
	}

	b, err := next("tag")
	if err != nil {
		return h, err
	}
	h.Tag = append(h.Tag, b)
	h.Constructed = IsConstructed(b)

	if bits.GetRange(b, 5, 1) == 0x1F {
		for {
			b, err = next("tag")
			if err != nil {
				return h, err
			}
			h.Tag = append(h.Tag, b)
			if !bits.IsSet(b, 8) {
				break
			}
			if len(h.Tag) >= maxTagBytes {
				return h, fmt.Errorf("tag %X exceeds %d bytes", h.Tag, maxTagBytes)
			}
		}
	}

	b, err = next("length")
	if err != nil {
		return h, err
	}

	if !bits.IsSet(b, 8) {
		h.ValueLen = int(b)
		return h, nil
	}

	count := int(bits.GetRange(b, 7, 1))
	if count == 0 {
		return h, fmt.Errorf("tag %s: %w", h.TagString(), ErrIndefiniteLength)
	}
	if count > maxLengthBytes {
		return h, fmt.Errorf("tag %s: length on %d bytes not supported", h.TagString(), count)
	}

	for i := 0; i < count; i++ {
		b, err = next("length")
		if err != nil {
			return h, err
		}
		h.ValueLen = h.ValueLen<<8 | int(b)
	}

	return h, nil
}
