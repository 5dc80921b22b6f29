package iso7816

import (
	"fmt"

	"github.com/gregLibert/mrtd/pkg/tlv"
)

// READ BINARY comes in two flavours:
//
//   - 'B0': the offset is carried in P1-P2 (15 bits), so it can only address the first 32 KiB.
//   - 'B1': the offset is carried as DO '54' in the data field and the content comes back
//     wrapped in DO '53'. Large facial images in DG2 need it.

// MaxShortOffset is the largest offset P1-P2 can address.
const MaxShortOffset = 0x7FFF

// ReadBinary creates a READ BINARY command for ne bytes starting at offset.
func ReadBinary(cla Class, offset, ne int) (*CommandAPDU, error) {
	if offset < 0 || offset > 0xFFFFFF {
		return nil, fmt.Errorf("offset %d out of range", offset)
	}
	if ne <= 0 || ne > MaxExtendedLe {
		return nil, fmt.Errorf("invalid length %d", ne)
	}

	if offset <= MaxShortOffset {
		return NewCommandAPDU(cla, mustInstruction(INS_READ_BINARY), byte(offset>>8), byte(offset), nil, ne), nil
	}

	do54 := encodeOffsetDO(offset)
	// DO '53' adds up to 4 header bytes to the response
	return NewCommandAPDU(cla, mustInstruction(INS_READ_BINARY_BER), 0x00, 0x00, do54, ne+4), nil
}

func encodeOffsetDO(offset int) []byte {
	var v []byte
	switch {
	case offset > 0xFFFF:
		v = []byte{byte(offset >> 16), byte(offset >> 8), byte(offset)}
	case offset > 0xFF:
		v = []byte{byte(offset >> 8), byte(offset)}
	default:
		v = []byte{byte(offset)}
	}
	return append([]byte{0x54, byte(len(v))}, v...)
}

// readBinaryData extracts the file content from a READ BINARY response.
func readBinaryData(cmd *CommandAPDU, resp *ResponseAPDU) ([]byte, error) {
	if cmd.Instruction.Raw != INS_READ_BINARY_BER {
		return resp.Data, nil
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	data, err := tlv.GetValue(resp.Data, 0x53)
	if err != nil {
		return nil, fmt.Errorf("unwrap DO 53: %w", err)
	}
	return data, nil
}
