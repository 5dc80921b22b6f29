package ldsfile

import (
	"github.com/moov-io/bertlv"

	"github.com/gregLibert/mrtd/pkg/lds"
)

// DG11File is EF.DG11: additional personal details.
type DG11File struct {
	base
	TagList            []byte       `tlv:"5C"`
	FullName           string       `tlv:"5F0E" fmt:"ascii"`
	PersonalNumber     string       `tlv:"5F10" fmt:"ascii"`
	FullDateOfBirth    string       `tlv:"5F2B" fmt:"ascii"`
	PlaceOfBirth       string       `tlv:"5F11" fmt:"ascii"`
	PermanentAddress   string       `tlv:"5F42" fmt:"ascii"`
	Telephone          string       `tlv:"5F12" fmt:"ascii"`
	Profession         string       `tlv:"5F13" fmt:"ascii"`
	Title              string       `tlv:"5F14" fmt:"ascii"`
	PersonalSummary    string       `tlv:"5F15" fmt:"ascii"`
	ProofOfCitizenship []byte       `tlv:"5F16" fmt:"size"`
	CustodyInformation string       `tlv:"5F18" fmt:"ascii"`
	Unknown            []bertlv.TLV `tlv:",unknown"`
}

func decodeDG11(s lds.Stream) (lds.File, error) {
	b, template, err := readTemplate(s, lds.EF_DG11)
	if err != nil {
		return nil, err
	}

	f := &DG11File{base: *b}
	if err := mapChildren(lds.EF_DG11, template, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Name splits FullName into primary and secondary identifiers.
func (f *DG11File) Name() (surname, givenNames string) {
	return splitName(f.FullName)
}

func (f *DG11File) Describe() string {
	return describe(&f.base, "DG11", f)
}

// DG12File is EF.DG12: additional document details.
type DG12File struct {
	base
	TagList                   []byte       `tlv:"5C"`
	IssuingAuthority          string       `tlv:"5F19" fmt:"ascii"`
	DateOfIssue               string       `tlv:"5F26" fmt:"ascii"`
	Endorsements              string       `tlv:"5F1B" fmt:"ascii"`
	TaxOrExitRequirements     string       `tlv:"5F1C" fmt:"ascii"`
	FrontImage                []byte       `tlv:"5F1D" fmt:"size"`
	RearImage                 []byte       `tlv:"5F1E" fmt:"size"`
	PersonalizationTime       string       `tlv:"5F55" fmt:"ascii"`
	PersonalizationSystemSNum string       `tlv:"5F56" fmt:"ascii"`
	Unknown                   []bertlv.TLV `tlv:",unknown"`
}

func decodeDG12(s lds.Stream) (lds.File, error) {
	b, template, err := readTemplate(s, lds.EF_DG12)
	if err != nil {
		return nil, err
	}

	f := &DG12File{base: *b}
	if err := mapChildren(lds.EF_DG12, template, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *DG12File) Describe() string {
	return describe(&f.base, "DG12", f)
}
