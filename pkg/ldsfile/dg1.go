package ldsfile

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/mrtd/pkg/lds"
)

// MRZ layouts (ICAO Doc 9303 parts 4 to 7), told apart by length.
//
//	TD1: 3 lines of 30 characters (ID cards).
//	TD2: 2 lines of 36 characters (ID cards, MRV-B visas).
//	TD3: 2 lines of 44 characters (passports, MRV-A visas).
type MRZFormat string

const (
	TD1           MRZFormat = "TD1"
	TD2           MRZFormat = "TD2"
	TD3           MRZFormat = "TD3"
	UnknownFormat MRZFormat = "unknown"
)

var mrzLengths = map[int]MRZFormat{
	90: TD1,
	72: TD2,
	88: TD3,
}

// DG1File is EF.DG1: the machine readable zone as printed on the document.
type DG1File struct {
	base
	MRZ     string       `tlv:"5F1F" fmt:"ascii"`
	Unknown []bertlv.TLV `tlv:",unknown"`
}

// MRZFields are the fixed position fields of an MRZ, with filler characters removed.
type MRZFields struct {
	Format         MRZFormat
	DocumentCode   string
	IssuingState   string
	DocumentNumber string
	Surname        string
	GivenNames     string
	Nationality    string
	DateOfBirth    string
	Sex            string
	DateOfExpiry   string
}

func decodeDG1(s lds.Stream) (lds.File, error) {
	b, template, err := readTemplate(s, lds.EF_DG1)
	if err != nil {
		return nil, err
	}

	f := &DG1File{base: *b}
	if err := mapChildren(lds.EF_DG1, template, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Format identifies the MRZ layout from its length.
func (f *DG1File) Format() MRZFormat {
	if format, ok := mrzLengths[len(f.MRZ)]; ok {
		return format
	}
	return UnknownFormat
}

// Fields cuts the MRZ into its fields. Check digits are not verified.
func (f *DG1File) Fields() (MRZFields, error) {
	m := f.MRZ
	out := MRZFields{Format: f.Format()}

	switch out.Format {
	case TD1:
		out.DocumentCode = m[0:2]
		out.IssuingState = m[2:5]
		out.DocumentNumber = m[5:14]
		out.DateOfBirth = m[30:36]
		out.Sex = m[37:38]
		out.DateOfExpiry = m[38:44]
		out.Nationality = m[45:48]
		out.Surname, out.GivenNames = splitName(m[60:90])
	case TD2, TD3:
		width := len(m) / 2
		line2 := m[width:]
		out.DocumentCode = m[0:2]
		out.IssuingState = m[2:5]
		out.Surname, out.GivenNames = splitName(m[5:width])
		out.DocumentNumber = line2[0:9]
		out.Nationality = line2[10:13]
		out.DateOfBirth = line2[13:19]
		out.Sex = line2[20:21]
		out.DateOfExpiry = line2[21:27]
	default:
		return out, fmt.Errorf("MRZ of %d characters matches no layout", len(m))
	}

	out.DocumentCode = unfill(out.DocumentCode)
	out.IssuingState = unfill(out.IssuingState)
	out.DocumentNumber = unfill(out.DocumentNumber)
	out.Nationality = unfill(out.Nationality)
	out.Sex = unfill(out.Sex)
	return out, nil
}

// splitName separates the primary and secondary identifiers ("SURNAME<<GIVEN<NAMES").
func splitName(field string) (string, string) {
	primary, secondary, _ := strings.Cut(field, "<<")
	return unfill(primary), unfill(secondary)
}

func unfill(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "<", " "))
}

func (f *DG1File) Describe() string {
	report := describe(&f.base, "DG1", f)
	fields, err := f.Fields()
	if err != nil {
		return report + fmt.Sprintf("\n    - Layout: %v", err)
	}
	return report + fmt.Sprintf("\n    - Layout: %s | %s %s | No. %s | %s, %s | Born %s | Expires %s",
		fields.Format, fields.DocumentCode, fields.IssuingState, fields.DocumentNumber,
		fields.Surname, fields.GivenNames, fields.DateOfBirth, fields.DateOfExpiry)
}
