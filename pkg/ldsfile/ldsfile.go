/*
Package ldsfile decodes the elementary files of an ICAO LDS into typed structures and registers
them with an lds.Dispatcher.

The decoders identify and structure; they never validate. Each one reads exactly one encoded file
from the stream, checks that its outer tag is the ICAO tag of the expected kind, and maps the
children with the tlv struct tags. Signatures, hashes and biometric records are exposed as raw
bytes.

# Usage Example

	d := ldsfile.NewDispatcher(lds.WithLogger(logger))

	f, err := d.ConstructFile(0x011E, lds.NewStream(bytes.NewReader(raw)))
	if err != nil {
	    return err
	}

	com := f.(*ldsfile.COMFile)
	kinds, _ := com.DataGroups()
	fmt.Println(com.Describe(), kinds)
*/
package ldsfile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/mrtd/pkg/lds"
	"github.com/gregLibert/mrtd/pkg/tlv"
)

// ErrWrongTag is returned when a stream does not start with the tag of the expected kind.
var ErrWrongTag = errors.New("unexpected outer tag")

// Describer renders a decoded file as a human readable report.
type Describer interface {
	Describe() string
}

// base holds what every decoded file shares.
type base struct {
	kind    lds.FileKind
	fid     uint16
	encoded []byte
}

func (b *base) Kind() lds.FileKind { return b.kind }
func (b *base) FID() uint16        { return b.fid }
func (b *base) Encoded() []byte    { return b.encoded }

func (b *base) title() string {
	return fmt.Sprintf("=== %s (FID %04X, %d bytes) ===", b.kind, b.fid, len(b.encoded))
}

// Decoders returns a fresh decoder table covering every supported kind.
func Decoders() map[lds.FileKind]lds.Decoder {
	return map[lds.FileKind]lds.Decoder{
		lds.EF_COM:        decodeCOM,
		lds.EF_DG1:        decodeDG1,
		lds.EF_DG2:        biometricDecoder(lds.EF_DG2),
		lds.EF_DG3:        biometricDecoder(lds.EF_DG3),
		lds.EF_DG4:        biometricDecoder(lds.EF_DG4),
		lds.EF_DG5:        displayedImageDecoder(lds.EF_DG5),
		lds.EF_DG6:        displayedImageDecoder(lds.EF_DG6),
		lds.EF_DG7:        displayedImageDecoder(lds.EF_DG7),
		lds.EF_DG11:       decodeDG11,
		lds.EF_DG12:       decodeDG12,
		lds.EF_DG14:       decodeDG14,
		lds.EF_DG15:       decodeDG15,
		lds.EF_SOD:        decodeSOD,
		lds.EF_CardAccess: decodeCardAccess,
		lds.EF_CVCA:       decodeCVCA,
	}
}

// NewDispatcher returns a Dispatcher wired with Decoders and the relocated EF.CVCA probe.
func NewDispatcher(opts ...lds.Option) *lds.Dispatcher {
	all := append([]lds.Option{lds.WithProber(ParseCVCA)}, opts...)
	return lds.NewDispatcher(Decoders(), all...)
}

// readTemplate reads the file of the given kind, framed by its ICAO tag.
// The stream is left untouched when the first byte is not that tag.
func readTemplate(s lds.Stream, kind lds.FileKind) (*base, bertlv.TLV, error) {
	tag, ok := kind.Tag()
	if !ok {
		return nil, bertlv.TLV{}, fmt.Errorf("%s has no ICAO tag", kind)
	}
	return readObject(s, kind, tag)
}

func readObject(s lds.Stream, kind lds.FileKind, want byte) (*base, bertlv.TLV, error) {
	first, err := s.Peek(1)
	if err != nil {
		return nil, bertlv.TLV{}, fmt.Errorf("%s: %w", kind, err)
	}
	if first[0] != want {
		return nil, bertlv.TLV{}, fmt.Errorf("%s: %w 0x%02X, want 0x%02X", kind, ErrWrongTag, first[0], want)
	}

	raw, err := tlv.ReadObject(s)
	if err != nil {
		return nil, bertlv.TLV{}, fmt.Errorf("%s: %w", kind, err)
	}

	packets, err := bertlv.Decode(raw)
	if err != nil {
		return nil, bertlv.TLV{}, fmt.Errorf("%s: bertlv decode failed: %w", kind, err)
	}
	if len(packets) != 1 {
		return nil, bertlv.TLV{}, fmt.Errorf("%s: expected one object, got %d", kind, len(packets))
	}

	return &base{kind: kind, fid: kind.FID(), encoded: raw}, packets[0], nil
}

// mapChildren maps the content of a template onto target.
func mapChildren(kind lds.FileKind, template bertlv.TLV, target interface{}) error {
	if err := tlv.UnmarshalFromPackets(template.TLVs, target); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

// describe renders the tagged fields of f under its title.
func describe(b *base, prefix string, f interface{}) string {
	var sb strings.Builder
	sb.WriteString(b.title())
	tlv.WriteStructFields(&sb, prefix, f)
	return sb.String()
}
