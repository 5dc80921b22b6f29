package tlv

import (
	"bytes"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		name      string
		inputs    []string
		want      []byte
		wantPanic bool
	}{
		{
			name:   "Simple Join",
			inputs: []string{"01", "01"},
			want:   []byte{0x01, 0x01},
		},
		{
			name:   "With Spaces",
			inputs: []string{"00 A4", " 02 0C "},
			want:   []byte{0x00, 0xA4, 0x02, 0x0C},
		},
		{
			name:   "Colons And Newlines",
			inputs: []string{"60:16\n5F01"},
			want:   []byte{0x60, 0x16, 0x5F, 0x01},
		},
		{
			name:   "Mixed Case",
			inputs: []string{"5f", "1F"},
			want:   []byte{0x5F, 0x1F},
		},
		{
			name:      "Invalid Hex",
			inputs:    []string{"ZZ"},
			wantPanic: true,
		},
		{
			name:      "Odd Length",
			inputs:    []string{"123"},
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if (r != nil) != tt.wantPanic {
					t.Errorf("Hex() panic = %v, wantPanic %v", r, tt.wantPanic)
				}
			}()

			got := Hex(tt.inputs...)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Hex() = %X, want %X", got, tt.want)
			}
		})
	}
}

func TestParseHex_Error(t *testing.T) {
	if _, err := ParseHex("01 0"); err == nil {
		t.Error("Expected error for odd length input, got nil")
	}
}
