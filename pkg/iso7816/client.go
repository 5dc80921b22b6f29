package iso7816

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gregLibert/mrtd/pkg/tlv"
)

// CLIENT & PROTOCOL LOGIC:
// The Client acts as a high-level driver over the physical connection.
// It implements the automatic handling of ISO 7816-3 transport behaviors that are
// often exposed to the application layer in T=0 protocols:
//
// 1. "61 XX" (Response Available):
//    The card indicates that XX bytes are waiting. The client automatically generates
//    and sends a GET RESPONSE command to retrieve them.
//
// 2. "6C XX" (Wrong Length):
//    The card indicates that the expected length (Le) was incorrect and suggests XX.
//    The client automatically re-sends the original command with Le = XX.
//
// On top of Send, ReadFile and ReadAll read a whole elementary file. Every method returns
// the Trace of all atomic transactions that fulfilled the logical request.

const (
	// DefaultChunkSize is the READ BINARY length used when none is given.
	// 0xDF leaves room for secure messaging overhead in a short response.
	DefaultChunkSize = 0xDF

	// headerProbeSize covers a 2-byte tag with a 4-byte length.
	headerProbeSize = 8

	// MaxUnframedSize bounds ReadAll on files whose length is not announced by a header.
	MaxUnframedSize = MaxShortOffset + 1
)

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	Card   Transmitter
	Logger zerolog.Logger
}

// NewClient creates a new Client instance that logs nothing.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card, Logger: zerolog.Nop()}
}

// Send transmits a command and handles protocol logic (61xx, 6Cxx).
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	c.Logger.Trace().Hex("capdu", rawCmd).Stringer("ins", cmd.Instruction.Raw).Msg("transmit")

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, err
	}

	c.Logger.Trace().Hex("rapdu", resp.Data).Str("sw", fmt.Sprintf("%04X", uint16(resp.Status))).Msg("receive")

	trace := Trace{{Command: cmd, Response: resp}}

	sw1 := resp.Status.SW1()
	sw2 := resp.Status.SW2()

	switch sw1 {
	case 0x61:
		// GET RESPONSE must use the same logical channel as the original command.
		getRespCmd := NewCommandAPDU(cmd.Class.Unchained(), mustInstruction(INS_GET_RESPONSE), 0x00, 0x00, nil, lengthFromSW2(sw2))

		subTrace, err := c.Send(getRespCmd)
		trace = append(trace, subTrace...)
		return trace, err

	case 0x6C:
		// Clone command to update Le without mutating the original pointer
		newCmd := *cmd
		newCmd.Ne = lengthFromSW2(sw2)

		subTrace, err := c.Send(&newCmd)
		trace = append(trace, subTrace...)
		return trace, err
	}

	return trace, nil
}

// lengthFromSW2 decodes the length hint of 61XX and 6CXX, where 00 stands for 256.
func lengthFromSW2(sw2 byte) int {
	if sw2 == 0 {
		return MaxShortLe
	}
	return int(sw2)
}

// Select sends a SELECT command and turns a rejection into a StatusError.
func (c *Client) Select(cmd *CommandAPDU, fid uint16) (Trace, error) {
	trace, err := c.Send(cmd)
	if err != nil {
		return trace, err
	}
	if !trace.IsSuccess() {
		return trace, &StatusError{Op: "SELECT", FID: fid, Status: trace.Last().Response.Status}
	}
	return trace, nil
}

// ReadFile selects the elementary file fid and reads exactly one BER-TLV object from it.
// The first READ BINARY fetches the header, the remainder is read in chunks of the given size.
// Files that do not start with a well-formed header are read like ReadAll.
func (c *Client) ReadFile(cla Class, fid uint16, chunk int) ([]byte, Trace, error) {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	trace, err := c.Select(SelectEF(cla, fid), fid)
	if err != nil {
		return nil, trace, err
	}

	head, eof, sub, err := c.readChunk(cla, fid, 0, headerProbeSize)
	trace = append(trace, sub...)
	if err != nil {
		return nil, trace, err
	}

	h, herr := tlv.ParseHeader(head)
	if herr != nil {
		c.Logger.Debug().Err(herr).Str("fid", fmt.Sprintf("%04X", fid)).Msg("no BER-TLV header, reading to end of file")
		if eof {
			return head, trace, nil
		}
		data, sub, err := c.readRest(cla, fid, head, chunk)
		trace = append(trace, sub...)
		return data, trace, err
	}

	total := h.TotalLen()
	data := head
	for len(data) < total {
		part, eof, sub, err := c.readChunk(cla, fid, len(data), min(chunk, total-len(data)))
		trace = append(trace, sub...)
		if err != nil {
			return nil, trace, err
		}
		data = append(data, part...)
		if eof || len(part) == 0 {
			break
		}
	}

	if len(data) < total {
		return nil, trace, fmt.Errorf("read binary %04X: file ends after %d of %d bytes", fid, len(data), total)
	}
	return data[:total], trace, nil
}

// ReadAll selects the elementary file fid and reads it until the card reports its end.
// It suits files whose content is not a single BER-TLV object, such as EF.CVCA.
func (c *Client) ReadAll(cla Class, fid uint16, chunk int) ([]byte, Trace, error) {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	trace, err := c.Select(SelectEF(cla, fid), fid)
	if err != nil {
		return nil, trace, err
	}

	data, sub, err := c.readRest(cla, fid, nil, chunk)
	trace = append(trace, sub...)
	return data, trace, err
}

func (c *Client) readRest(cla Class, fid uint16, data []byte, chunk int) ([]byte, Trace, error) {
	var trace Trace
	for len(data) < MaxUnframedSize {
		part, eof, sub, err := c.readChunk(cla, fid, len(data), min(chunk, MaxUnframedSize-len(data)))
		trace = append(trace, sub...)
		if err != nil {
			return nil, trace, err
		}
		data = append(data, part...)
		if eof || len(part) < chunk {
			return data, trace, nil
		}
	}
	return nil, trace, fmt.Errorf("read binary %04X: no end of file within %d bytes", fid, MaxUnframedSize)
}

// readChunk reads up to n bytes at offset. eof is set when the card signals the end of the file.
func (c *Client) readChunk(cla Class, fid uint16, offset, n int) ([]byte, bool, Trace, error) {
	cmd, err := ReadBinary(cla, offset, n)
	if err != nil {
		return nil, false, nil, err
	}

	trace, err := c.Send(cmd)
	if err != nil {
		return nil, false, trace, err
	}

	last := trace.Last()
	switch status := last.Response.Status; {
	case status == SW_WARN_EOF_REACHED:
		data, err := readBinaryData(cmd, last.Response)
		return data, true, trace, err
	case status == SW_ERR_WRONG_PARAMS_P1P2 && offset > 0:
		// Offset beyond the end of the file
		return nil, true, trace, nil
	case status.IsSuccess():
		data, err := readBinaryData(cmd, last.Response)
		return data, false, trace, err
	default:
		return nil, false, trace, &StatusError{Op: "READ BINARY", FID: fid, Status: status}
	}
}

// IsAccessDenied reports whether err is a StatusError asking for BAC or PACE.
func IsAccessDenied(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.AccessDenied()
}
