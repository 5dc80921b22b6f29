package iso7816

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestCommandAPDU_Bytes(t *testing.T) {
	cls, _ := NewClass(0x00)
	sm, _ := NewClass(0x0C)

	tests := []struct {
		name     string
		cmd      *CommandAPDU
		expected string
	}{
		{
			name:     "Case 1: header only",
			cmd:      NewCommandAPDU(cls, mustInstruction(INS_GET_CHALLENGE), 0x00, 0x00, nil, 0),
			expected: "00840000",
		},
		{
			name:     "Case 2 short: GET CHALLENGE for 8 bytes",
			cmd:      NewCommandAPDU(cls, mustInstruction(INS_GET_CHALLENGE), 0x00, 0x00, nil, 8),
			expected: "0084000008",
		},
		{
			name:     "Case 2 short: Le 256 encoded as 00",
			cmd:      NewCommandAPDU(cls, mustInstruction(INS_READ_BINARY), 0x00, 0x00, nil, MaxShortLe),
			expected: "00B0000000",
		},
		{
			name:     "Case 3 short: SELECT EF.COM",
			cmd:      NewCommandAPDU(cls, mustInstruction(INS_SELECT), 0x02, 0x0C, []byte{0x01, 0x1E}, 0),
			expected: "00A4020C02011E",
		},
		{
			name:     "Case 4 short with secure messaging class",
			cmd:      NewCommandAPDU(sm, mustInstruction(INS_READ_BINARY), 0x00, 0x00, []byte{0x97, 0x01, 0x08}, 0x10),
			expected: "0CB000000397010810",
		},
		{
			name:     "Case 2 extended: Le above 256",
			cmd:      NewCommandAPDU(cls, mustInstruction(INS_READ_BINARY), 0x00, 0x00, nil, 0x0400),
			expected: "00B00000000400",
		},
		{
			name:     "Case 2 extended: Le 65536 encoded as 0000",
			cmd:      NewCommandAPDU(cls, mustInstruction(INS_READ_BINARY), 0x00, 0x00, nil, MaxExtendedLe),
			expected: "00B00000000000",
		},
		{
			name:     "Case 3 extended: data above 255 bytes",
			cmd:      NewCommandAPDU(cls, mustInstruction(INS_SELECT), 0x00, 0x00, make([]byte, 300), 0),
			expected: "00A4000000012C" + strings.Repeat("00", 300),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Bytes() failed: %v", err)
			}
			if gotHex := strings.ToUpper(hex.EncodeToString(got)); gotHex != strings.ToUpper(tt.expected) {
				t.Errorf("Bytes() = %s, want %s", gotHex, tt.expected)
			}
		})
	}
}

func TestCommandAPDU_BytesErrors(t *testing.T) {
	cls, _ := NewClass(0x00)
	ins := mustInstruction(INS_READ_BINARY)

	tests := []struct {
		name string
		cmd  *CommandAPDU
	}{
		{"negative Ne", NewCommandAPDU(cls, ins, 0, 0, nil, -1)},
		{"Ne beyond extended range", NewCommandAPDU(cls, ins, 0, 0, nil, MaxExtendedLe+1)},
		{"data beyond extended range", NewCommandAPDU(cls, ins, 0, 0, make([]byte, MaxExtendedLc+1), 0)},
		{"channel out of range", NewCommandAPDU(Class{Channel: 20}, ins, 0, 0, nil, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cmd.Bytes(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseResponseAPDU(t *testing.T) {
	resp, err := ParseResponseAPDU([]byte{0x60, 0x00, 0x62, 0x82})
	if err != nil {
		t.Fatalf("ParseResponseAPDU failed: %v", err)
	}
	if hex.EncodeToString(resp.Data) != "6000" {
		t.Errorf("Data = %X, want 6000", resp.Data)
	}
	if resp.Status != SW_WARN_EOF_REACHED {
		t.Errorf("Status = %s, want SW_WARN_EOF_REACHED", resp.Status)
	}
	if !strings.Contains(resp.String(), "Data (2 bytes)") {
		t.Errorf("String() = %q", resp.String())
	}

	if _, err := ParseResponseAPDU([]byte{0x90}); err == nil {
		t.Error("expected an error for a 1-byte response")
	}
}
