package iso7816

import (
	"bytes"
	"testing"

	"github.com/gregLibert/mrtd/pkg/tlv"
)

func TestReadBinary(t *testing.T) {
	cls, _ := NewClass(0x00)

	tests := []struct {
		name     string
		offset   int
		ne       int
		expected []byte
	}{
		{
			name:     "Header probe",
			offset:   0,
			ne:       8,
			expected: tlv.Hex("00 B0 00 00 08"),
		},
		{
			name:     "Chunk at offset 0x01DF",
			offset:   0x01DF,
			ne:       0xDF,
			expected: tlv.Hex("00 B0 01 DF DF"),
		},
		{
			name:     "Last short offset",
			offset:   MaxShortOffset,
			ne:       1,
			expected: tlv.Hex("00 B0 7F FF 01"),
		},
		{
			name:   "Offset beyond 32K uses B1",
			offset: 0x8000,
			ne:     0xDF,
			// Lc=04, DO 54 = 8000, Le = DF + 4
			expected: tlv.Hex("00 B1 00 00 04 54 02 80 00 E3"),
		},
		{
			name:     "Three byte offset",
			offset:   0x012345,
			ne:       0x10,
			expected: tlv.Hex("00 B1 00 00 05 54 03 01 23 45 14"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ReadBinary(cls, tt.offset, tt.ne)
			if err != nil {
				t.Fatalf("ReadBinary failed: %v", err)
			}
			got, err := cmd.Bytes()
			if err != nil {
				t.Fatalf("Bytes() failed: %v", err)
			}
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Bytes() = %X, want %X", got, tt.expected)
			}
			if off := readOffset(cmd); off != tt.offset {
				t.Errorf("readOffset() = %X, want %X", off, tt.offset)
			}
		})
	}
}

func TestReadBinary_Errors(t *testing.T) {
	cls, _ := NewClass(0x00)

	for _, tc := range []struct{ offset, ne int }{{-1, 1}, {0x1000000, 1}, {0, 0}, {0, MaxExtendedLe + 1}} {
		if _, err := ReadBinary(cls, tc.offset, tc.ne); err == nil {
			t.Errorf("ReadBinary(%d, %d) expected an error", tc.offset, tc.ne)
		}
	}
}

func TestReadBinaryData(t *testing.T) {
	cls, _ := NewClass(0x00)

	b0, _ := ReadBinary(cls, 0, 4)
	data, err := readBinaryData(b0, &ResponseAPDU{Data: tlv.Hex("60 02 5F 01")})
	if err != nil || !bytes.Equal(data, tlv.Hex("60025F01")) {
		t.Errorf("B0 data = %X, %v", data, err)
	}

	b1, _ := ReadBinary(cls, 0x8000, 3)
	data, err = readBinaryData(b1, &ResponseAPDU{Data: tlv.Hex("53 03 AA BB CC")})
	if err != nil || !bytes.Equal(data, tlv.Hex("AABBCC")) {
		t.Errorf("B1 data = %X, %v", data, err)
	}

	if _, err := readBinaryData(b1, &ResponseAPDU{Data: tlv.Hex("54 01 00")}); err == nil {
		t.Error("expected an error when DO 53 is missing")
	}
}
