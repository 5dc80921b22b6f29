package iso7816

import (
	"encoding/hex"
	"fmt"
)

// SELECT (INS 'A4') as profiled by ICAO Doc 9303 part 10:
//
// P1 picks the addressing mode. The eMRTD application is selected by DF name ('04'),
// its elementary files by short FID under the current DF ('02').
//
// P2 bits 4-3 pick the response content. Chips are only required to support '0C'
// (first occurrence, no response data), so SelectEF and SelectApplication never ask for FCI.

// SelectionMethod defines how the file is targeted (P1).
type SelectionMethod byte

const (
	SelectByFileID         SelectionMethod = 0x00
	SelectChildDF          SelectionMethod = 0x01
	SelectEFUnderCurrentDF SelectionMethod = 0x02
	SelectParentDF         SelectionMethod = 0x03
	SelectByDFName         SelectionMethod = 0x04 // Select by AID
	SelectPathFromMF       SelectionMethod = 0x08
)

func (s SelectionMethod) String() string {
	switch s {
	case SelectByFileID:
		return "Select by File ID"
	case SelectChildDF:
		return "Select Child DF"
	case SelectEFUnderCurrentDF:
		return "Select EF under current DF"
	case SelectParentDF:
		return "Select Parent DF"
	case SelectByDFName:
		return "Select by DF Name (AID)"
	case SelectPathFromMF:
		return "Select Path from MF"
	default:
		return fmt.Sprintf("Unknown Method (0x%02X)", byte(s))
	}
}

// SelectionControl defines what data to return (Bits 3-4 of P2).
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0b0000_00_00
	ReturnFCP    SelectionControl = 0b0000_01_00
	ReturnNoData SelectionControl = 0b0000_11_00
)

func (s SelectionControl) String() string {
	switch s {
	case ReturnFCI:
		return "Return FCI"
	case ReturnFCP:
		return "Return FCP"
	case ReturnNoData:
		return "No Response Data"
	default:
		return "Unknown Control"
	}
}

// AIDeMRTD is the application identifier of the ICAO LDS1 eMRTD application.
var AIDeMRTD = []byte{0xA0, 0x00, 0x00, 0x02, 0x47, 0x10, 0x01}

// NewSelectCommand creates a SELECT command for the first occurrence of the target.
func NewSelectCommand(cla Class, method SelectionMethod, ctrl SelectionControl, data []byte) *CommandAPDU {
	// T=0 cannot carry Lc and Le together: a case 4 SELECT goes out as case 3
	// and the card answers 61XX, which the Client resolves.
	ne := 0
	if len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}
	return NewCommandAPDU(cla, mustInstruction(INS_SELECT), byte(method), byte(ctrl), data, ne)
}

// SelectApplication selects an application by its DF name.
func SelectApplication(cla Class, aid []byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectByDFName, ReturnNoData, aid)
}

// SelectEF selects an elementary file under the current DF by its file identifier.
func SelectEF(cla Class, fid uint16) *CommandAPDU {
	return NewSelectCommand(cla, SelectEFUnderCurrentDF, ReturnNoData, []byte{byte(fid >> 8), byte(fid)})
}

// SelectMF selects the Master File, where EF.CardAccess lives.
func SelectMF(cla Class) *CommandAPDU {
	return NewSelectCommand(cla, SelectByFileID, ReturnNoData, []byte{0x3F, 0x00})
}

// describeSelect renders the target of a SELECT command for reports.
func describeSelect(cmd *CommandAPDU) string {
	method := SelectionMethod(cmd.P1)
	switch method {
	case SelectByDFName:
		return fmt.Sprintf("%s %s", method, hex.EncodeToString(cmd.Data))
	default:
		return fmt.Sprintf("%s %X", method, cmd.Data)
	}
}
