package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/mrtd/pkg/tlv"
)

// FILE READ ANALYSIS:
// FileReadResult wraps the Trace of ReadFile or ReadAll. It re-assembles the file content
// from the READ BINARY responses (unwrapping DO '53' for 'B1') and renders a report of the
// exchange, chunk by chunk.

// FileReadResult represents the outcome of reading one elementary file.
type FileReadResult struct {
	Trace
}

// NewFileReadResult creates a FileReadResult from a raw transaction trace.
// The trace must start with the SELECT of the file.
func NewFileReadResult(t Trace) (*FileReadResult, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("cannot create result from empty trace")
	}
	if t[0].Command == nil || t[0].Command.Instruction.Raw != INS_SELECT {
		return nil, fmt.Errorf("trace must start with SELECT command")
	}
	return &FileReadResult{Trace: t}, nil
}

// FID returns the file identifier of the selected file, or 0 when not selected by FID.
func (r *FileReadResult) FID() uint16 {
	cmd := r.Trace[0].Command
	if SelectionMethod(cmd.P1) != SelectEFUnderCurrentDF || len(cmd.Data) != 2 {
		return 0
	}
	return uint16(cmd.Data[0])<<8 | uint16(cmd.Data[1])
}

// Content concatenates the data returned by every READ BINARY in the trace.
func (r *FileReadResult) Content() ([]byte, error) {
	var out []byte
	for _, c := range r.chunks() {
		if c.err != nil {
			return nil, c.err
		}
		out = append(out, c.data...)
	}
	return out, nil
}

type chunk struct {
	offset int
	data   []byte
	status StatusWord
	err    error
}

// chunks pairs every READ BINARY with the response that finally answered it,
// which is a GET RESPONSE when the card replied 61XX.
func (r *FileReadResult) chunks() []chunk {
	var (
		out     []chunk
		current *CommandAPDU
	)
	for _, tx := range r.Trace {
		if tx.Command == nil || tx.Response == nil {
			continue
		}
		switch tx.Command.Instruction.Raw {
		case INS_READ_BINARY, INS_READ_BINARY_BER:
			current = tx.Command
		case INS_GET_RESPONSE:
		default:
			current = nil
			continue
		}
		if current == nil {
			continue
		}

		sw := tx.Response.Status
		if sw.SW1() == 0x61 || sw.SW1() == 0x6C {
			continue
		}

		c := chunk{offset: readOffset(current), status: sw}
		if sw.IsSuccess() || sw == SW_WARN_EOF_REACHED {
			c.data, c.err = readBinaryData(current, tx.Response)
		}
		out = append(out, c)
		current = nil
	}
	return out
}

// readOffset recovers the offset of a READ BINARY command.
func readOffset(cmd *CommandAPDU) int {
	if cmd.Instruction.Raw == INS_READ_BINARY {
		return int(cmd.P1)<<8 | int(cmd.P2)
	}
	v, err := tlv.GetValue(cmd.Data, 0x54)
	if err != nil {
		return -1
	}
	offset := 0
	for _, b := range v {
		offset = offset<<8 | int(b)
	}
	return offset
}

// Describe generates an ASCII-formatted report of the file read.
func (r *FileReadResult) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== READ FILE REPORT ===\n")

	tx0 := r.Trace[0]
	sb.WriteString("[1] Command: SELECT FILE\n")
	sb.WriteString(fmt.Sprintf("    + Target:  %s\n", describeSelect(tx0.Command)))
	sb.WriteString(fmt.Sprintf("    + Result:  %s\n", statusLine(tx0.Response.Status)))
	sb.WriteString("\n")

	chunks := r.chunks()
	if len(chunks) > 0 {
		retries := len(r.Trace) - 1 - len(chunks)
		sb.WriteString(fmt.Sprintf("[2] Reads: %d chunks (%d protocol steps)\n", len(chunks), retries))
		for _, c := range chunks {
			sb.WriteString(fmt.Sprintf("    + Offset %04X: %3d bytes  %s\n", c.offset, len(c.data), statusLine(c.status)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("[=] FINAL OUTCOME:\n")

	if !tx0.Response.Status.IsSuccess() {
		sb.WriteString(fmt.Sprintf("    - File not selected: %s\n", tx0.Response.Status.Verbose()))
		return sb.String()
	}

	content, err := r.Content()
	if err != nil {
		sb.WriteString(fmt.Sprintf("    - Content could not be assembled: %v\n", err))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("    - Size:    %d bytes\n", len(content)))
	if len(content) > 0 {
		sb.WriteString(fmt.Sprintf("    - Dump:    %s\n", tlv.Abbreviate(fmt.Sprintf("%X", content), 96)))
		if h, err := tlv.ParseHeader(content); err == nil {
			sb.WriteString(fmt.Sprintf("    - Tag:     %s (value %d bytes)\n", h.TagString(), h.ValueLen))
		}
	}

	return sb.String()
}

func statusLine(sw StatusWord) string {
	mark := "[OK]"
	if !sw.IsSuccess() {
		mark = "[!!]"
	}
	return fmt.Sprintf("[%02X %02X] %s %s", sw.SW1(), sw.SW2(), mark, sw.Verbose())
}
