package ldsfile

import (
	"fmt"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/mrtd/pkg/lds"
)

// COMFile is EF.COM: the LDS version and the list of data groups present on the chip.
type COMFile struct {
	base
	LDSVersion     string       `tlv:"5F01" fmt:"ascii"`
	UnicodeVersion string       `tlv:"5F36" fmt:"ascii"`
	TagList        []byte       `tlv:"5C"`
	Unknown        []bertlv.TLV `tlv:",unknown"`
}

func decodeCOM(s lds.Stream) (lds.File, error) {
	b, template, err := readTemplate(s, lds.EF_COM)
	if err != nil {
		return nil, err
	}

	f := &COMFile{base: *b}
	if err := mapChildren(lds.EF_COM, template, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DataGroups translates the tag list into kinds, in the order the chip lists them.
func (f *COMFile) DataGroups() ([]lds.FileKind, error) {
	kinds := make([]lds.FileKind, 0, len(f.TagList))
	for _, tag := range f.TagList {
		k, err := lds.TagToKind(tag)
		if err != nil {
			return kinds, fmt.Errorf("EF.COM tag list: %w", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Version formats the LDS version "0107" as "1.7".
func (f *COMFile) Version() string {
	var major, minor int
	if _, err := fmt.Sscanf(f.LDSVersion, "%2d%2d", &major, &minor); err != nil {
		return f.LDSVersion
	}
	return fmt.Sprintf("%d.%d", major, minor)
}

func (f *COMFile) Describe() string {
	report := describe(&f.base, "COM", f)
	kinds, err := f.DataGroups()
	for _, k := range kinds {
		report += fmt.Sprintf("\n    - Lists: %s (FID %04X)", k, k.FID())
	}
	if err != nil {
		report += fmt.Sprintf("\n    - Tag list error: %v", err)
	}
	return report
}
