package ldsfile

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregLibert/mrtd/pkg/lds"
	"github.com/gregLibert/mrtd/pkg/tlv"
)

// obj encodes a BER object with a definite length.
func obj(tag string, parts ...[]byte) []byte {
	value := bytes.Join(parts, nil)
	out := tlv.Hex(tag)
	switch n := len(value); {
	case n < 0x80:
		out = append(out, byte(n))
	case n <= 0xFF:
		out = append(out, 0x81, byte(n))
	default:
		out = append(out, 0x82, byte(n>>8), byte(n))
	}
	return append(out, value...)
}

func stream(data []byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(data))
}

var (
	efCOM = tlv.Hex(
		"60 16",
		"5F01 04 30313037",
		"5F36 06 303430303030",
		"5C 04 61 75 6E 6F",
	)

	td3MRZ = "P<UTOERIKSSON<<ANNA<MARIA" + strings.Repeat("<", 19) +
		"L898902C36UTO7408122F1204159ZE184226B<<<<<10"

	td1MRZ = "I<UTOD231458907" + strings.Repeat("<", 15) +
		"7408122F1204159UTO" + strings.Repeat("<", 11) + "6" +
		"ERIKSSON<<ANNA<MARIA" + strings.Repeat("<", 10)
)

func TestDecodersCoverSupportedKinds(t *testing.T) {
	decoders := Decoders()
	for _, k := range lds.Kinds() {
		_, ok := decoders[k]
		assert.Equal(t, k.Supported(), ok, "%s", k)
	}
}

func TestDecodeCOM(t *testing.T) {
	f, err := NewDispatcher().ConstructFile(0x011E, stream(efCOM))
	require.NoError(t, err)

	com, ok := f.(*COMFile)
	require.True(t, ok, "got %T", f)
	assert.Equal(t, lds.EF_COM, com.Kind())
	assert.Equal(t, uint16(0x011E), com.FID())
	assert.Equal(t, efCOM, com.Encoded())
	assert.Equal(t, "0107", com.LDSVersion)
	assert.Equal(t, "1.7", com.Version())
	assert.Equal(t, "040000", com.UnicodeVersion)

	kinds, err := com.DataGroups()
	require.NoError(t, err)
	assert.Equal(t, []lds.FileKind{lds.EF_DG1, lds.EF_DG2, lds.EF_DG14, lds.EF_DG15}, kinds)

	report := com.Describe()
	assert.Contains(t, report, "=== EF_COM (FID 011E, 24 bytes) ===")
	assert.Contains(t, report, "- Lists: EF_DG14 (FID 010E)")
}

func TestCOMDataGroupsUnknownTag(t *testing.T) {
	com := &COMFile{TagList: []byte{0x61, 0x99}}

	kinds, err := com.DataGroups()
	require.ErrorIs(t, err, lds.ErrUnknownTag)
	assert.Equal(t, []lds.FileKind{lds.EF_DG1}, kinds)
}

func TestDecodeDG1(t *testing.T) {
	tests := []struct {
		name string
		mrz  string
		want MRZFields
	}{
		{
			name: "TD3 passport",
			mrz:  td3MRZ,
			want: MRZFields{
				Format: TD3, DocumentCode: "P", IssuingState: "UTO", DocumentNumber: "L898902C3",
				Surname: "ERIKSSON", GivenNames: "ANNA MARIA", Nationality: "UTO",
				DateOfBirth: "740812", Sex: "F", DateOfExpiry: "120415",
			},
		},
		{
			name: "TD1 card",
			mrz:  td1MRZ,
			want: MRZFields{
				Format: TD1, DocumentCode: "I", IssuingState: "UTO", DocumentNumber: "D23145890",
				Surname: "ERIKSSON", GivenNames: "ANNA MARIA", Nationality: "UTO",
				DateOfBirth: "740812", Sex: "F", DateOfExpiry: "120415",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := obj("61", obj("5F1F", []byte(tc.mrz)))

			f, err := NewDispatcher().ConstructFile(0x0101, stream(raw))
			require.NoError(t, err)
			dg1 := f.(*DG1File)
			assert.Equal(t, tc.mrz, dg1.MRZ)

			fields, err := dg1.Fields()
			require.NoError(t, err)
			assert.Equal(t, tc.want, fields)
			assert.Contains(t, dg1.Describe(), "Layout: "+string(tc.want.Format))
		})
	}
}

func TestDG1UnknownLayout(t *testing.T) {
	dg1 := &DG1File{MRZ: "P<UTO"}

	assert.Equal(t, UnknownFormat, dg1.Format())
	_, err := dg1.Fields()
	assert.ErrorContains(t, err, "5 characters")
}

func TestWrongTagLeavesStreamUntouched(t *testing.T) {
	s := stream(efCOM)

	_, err := NewDispatcher().ConstructFile(0x0101, s)
	require.ErrorIs(t, err, ErrWrongTag)
	assert.ErrorContains(t, err, "EF_DG1")

	first, err := s.Peek(1)
	require.NoError(t, err)
	assert.Equal(t, byte(0x60), first[0])
}

func TestTruncatedFile(t *testing.T) {
	_, err := NewDispatcher().ConstructFile(0x011E, stream(efCOM[:10]))
	require.Error(t, err)
	assert.ErrorContains(t, err, "EF_COM")
}

func TestUnsupportedKindIsNotRead(t *testing.T) {
	raw := obj("68", tlv.Hex("02 01 01"))
	s := stream(raw)

	_, err := NewDispatcher().ConstructFile(0x0108, s)
	require.ErrorIs(t, err, lds.ErrUnsupportedFileKind)

	rest, err := s.Peek(len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, rest)
}

func TestDecodeDG11(t *testing.T) {
	raw := obj("6B",
		tlv.Hex("5C 04 5F0E 5F10"),
		obj("5F0E", []byte("SMITH<<JOHN<J")),
		obj("5F10", []byte("123456")),
		tlv.Hex("5F99 01 00"),
	)

	f, err := NewDispatcher().ConstructFile(0x010B, stream(raw))
	require.NoError(t, err)

	dg11 := f.(*DG11File)
	assert.Equal(t, "123456", dg11.PersonalNumber)
	surname, given := dg11.Name()
	assert.Equal(t, "SMITH", surname)
	assert.Equal(t, "JOHN J", given)
	require.Len(t, dg11.Unknown, 1)

	report := dg11.Describe()
	assert.Contains(t, report, `DG11.PersonalNumber (5F10): "123456"`)
	assert.Contains(t, report, "DG11.Unknown Tag 5F99")
}

func TestDecodeDG12(t *testing.T) {
	raw := obj("6C",
		obj("5F19", []byte("UTOPIA PASSPORT OFFICE")),
		obj("5F26", []byte("20120415")),
		obj("5F1D", bytes.Repeat([]byte{0xAA}, 300)),
	)

	f, err := NewDispatcher().ConstructFile(0x010C, stream(raw))
	require.NoError(t, err)

	dg12 := f.(*DG12File)
	assert.Equal(t, "20120415", dg12.DateOfIssue)
	assert.Len(t, dg12.FrontImage, 300)
	assert.Contains(t, dg12.Describe(), "DG12.FrontImage (5F1D): 300 bytes")
}

func TestDecodeBiometric(t *testing.T) {
	face := bytes.Repeat([]byte{0x46}, 200)
	raw := obj("75",
		obj("7F61",
			tlv.Hex("02 01 01"),
			obj("7F60",
				obj("A1", tlv.Hex("80 02 0101"), tlv.Hex("87 02 0101"), tlv.Hex("88 02 0008")),
				obj("5F2E", face),
			),
		),
	)

	f, err := NewDispatcher().ConstructFile(0x0102, stream(raw))
	require.NoError(t, err)

	dg2 := f.(*BiometricFile)
	assert.Equal(t, lds.EF_DG2, dg2.Kind())
	assert.Equal(t, 1, dg2.Count())
	require.Len(t, dg2.Group.Templates, 1)
	assert.Equal(t, face, dg2.Group.Templates[0].Data)
	assert.Equal(t, []byte{0x00, 0x08}, dg2.Group.Templates[0].Header.FormatType)

	report := dg2.Describe()
	assert.Contains(t, report, "Instances: 1 announced, 1 present")
	assert.Contains(t, report, "BIT[0].Data (5F2E): 200 bytes")
}

func TestDecodeDisplayedImage(t *testing.T) {
	raw := obj("65",
		tlv.Hex("02 01 02"),
		obj("5F40", tlv.Hex("FFD8FFE0 0010")),
		obj("5F40", tlv.Hex("0000000C 6A502020")),
	)

	f, err := NewDispatcher().ConstructFile(0x0105, stream(raw))
	require.NoError(t, err)

	dg5 := f.(*DisplayedImageFile)
	require.Len(t, dg5.Images, 2)
	assert.Empty(t, dg5.Unknown)

	report := dg5.Describe()
	assert.Contains(t, report, "Image[0] (5F40): 6 bytes, JPEG")
	assert.Contains(t, report, "Image[1] (5F40): 8 bytes, JPEG2000")
}

func TestNewDispatcherKeepsOptions(t *testing.T) {
	d := NewDispatcher(lds.WithProber(nil))

	_, err := d.ConstructFile(0x0200, stream(efCVCA))
	assert.ErrorIs(t, err, lds.ErrUnknownFID)
}
