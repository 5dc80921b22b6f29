package ldsfile

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/mrtd/pkg/lds"
	"github.com/gregLibert/mrtd/pkg/tlv"
)

// BIOMETRIC DATA GROUPS (DG2 face, DG3 finger, DG4 iris):
// ISO/IEC 7816-11 Biometric Information Group Template '7F61' holding the number of instances
// (DO '02') and one Biometric Information Template '7F60' per instance. Each BIT carries its
// header 'A1' and the biometric data block, plain ('5F2E') or enciphered ('7F2E').
// The data block itself (ISO/IEC 19794) is kept opaque.

// BiometricFile is EF.DG2, EF.DG3 or EF.DG4.
type BiometricFile struct {
	base
	Group   BiometricGroup `tlv:"7F61"`
	Unknown []bertlv.TLV   `tlv:",unknown"`
}

// BiometricGroup is the Biometric Information Group Template.
type BiometricGroup struct {
	Count     []byte              `tlv:"02" fmt:"int"`
	Templates []BiometricTemplate `tlv:"7F60"`
}

// BiometricTemplate is one Biometric Information Template.
type BiometricTemplate struct {
	Header     BiometricHeader `tlv:"A1"`
	Data       []byte          `tlv:"5F2E" fmt:"size"`
	Enciphered []byte          `tlv:"7F2E" fmt:"size"`
}

// BiometricHeader is the Biometric Header Template (ISO/IEC 7816-11 table 6).
type BiometricHeader struct {
	Version     []byte `tlv:"80"`
	Type        []byte `tlv:"81"`
	Subtype     []byte `tlv:"82"`
	Created     []byte `tlv:"83"`
	Validity    []byte `tlv:"85"`
	Creator     []byte `tlv:"86"`
	FormatOwner []byte `tlv:"87" fmt:"int"`
	FormatType  []byte `tlv:"88" fmt:"int"`
}

func biometricDecoder(kind lds.FileKind) lds.Decoder {
	return func(s lds.Stream) (lds.File, error) {
		b, template, err := readTemplate(s, kind)
		if err != nil {
			return nil, err
		}

		f := &BiometricFile{base: *b}
		if err := mapChildren(kind, template, f); err != nil {
			return nil, err
		}
		return f, nil
	}
}

// Count returns the number of instances announced by the group template.
func (f *BiometricFile) Count() int {
	n := 0
	for _, b := range f.Group.Count {
		n = n<<8 | int(b)
	}
	return n
}

func (f *BiometricFile) Describe() string {
	var sb strings.Builder
	sb.WriteString(f.title())
	sb.WriteString(fmt.Sprintf("\n    - Instances: %d announced, %d present", f.Count(), len(f.Group.Templates)))
	for i, t := range f.Group.Templates {
		tlv.WriteStructFields(&sb, fmt.Sprintf("BIT[%d]", i), t)
	}
	return sb.String()
}

// DISPLAYED IMAGES (DG5 portrait, DG6 reserved, DG7 signature or usual mark):
// DO '02' holds the number of images, followed by one JPEG or JPEG2000 per image
// in DO '5F40' (portrait) or '5F43' (signature).

// DisplayedImage is one image of a displayed image data group.
type DisplayedImage struct {
	Tag  string
	Data []byte
}

// DisplayedImageFile is EF.DG5, EF.DG6 or EF.DG7.
type DisplayedImageFile struct {
	base
	Count   []byte       `tlv:"02" fmt:"int"`
	Images  []DisplayedImage
	Unknown []bertlv.TLV `tlv:",unknown"`
}

var displayedImageTags = map[string]bool{"5F40": true, "5F43": true}

func displayedImageDecoder(kind lds.FileKind) lds.Decoder {
	return func(s lds.Stream) (lds.File, error) {
		b, template, err := readTemplate(s, kind)
		if err != nil {
			return nil, err
		}

		f := &DisplayedImageFile{base: *b}
		var rest []bertlv.TLV
		for _, p := range template.TLVs {
			if displayedImageTags[strings.ToUpper(p.Tag)] {
				f.Images = append(f.Images, DisplayedImage{Tag: strings.ToUpper(p.Tag), Data: p.Value})
				continue
			}
			rest = append(rest, p)
		}

		if err := mapChildren(kind, bertlv.TLV{TLVs: rest}, f); err != nil {
			return nil, err
		}
		return f, nil
	}
}

func (f *DisplayedImageFile) Describe() string {
	report := describe(&f.base, "Images", f)
	for i, img := range f.Images {
		report += fmt.Sprintf("\n    - Image[%d] (%s): %d bytes, %s", i, img.Tag, len(img.Data), imageFormat(img.Data))
	}
	return report
}

func imageFormat(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "JPEG"
	case len(data) >= 4 && data[0] == 0x00 && data[1] == 0x00 && data[2] == 0x00 && data[3] == 0x0C:
		return "JPEG2000"
	case len(data) >= 4 && data[0] == 0xFF && data[1] == 0x4F && data[2] == 0xFF && data[3] == 0x51:
		return "JPEG2000 codestream"
	default:
		return "unknown format"
	}
}
