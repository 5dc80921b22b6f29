package lds

import (
	"fmt"
)

// FILE CATALOG (ICAO Doc 9303 part 10, Table 38):
// Every known LDS file is declared exactly once in the catalog below. Each record carries all
// identifiers of the file; translations never keep their own tables.
//
// FID ALIASING:
// EF.CardAccess and EF.CVCA both use FID 0x011C. The reverse lookup is resolved by
// fidPrecedence, never by declaration order. Any other FID collision is a catalog error and
// panics at init.

// FileKind identifies one file of the LDS.
type FileKind uint8

// Known LDS files. The zero value is not a valid kind.
const (
	EF_COM FileKind = iota + 1
	EF_DG1
	EF_DG2
	EF_DG3
	EF_DG4
	EF_DG5
	EF_DG6
	EF_DG7
	EF_DG8
	EF_DG9
	EF_DG10
	EF_DG11
	EF_DG12
	EF_DG13
	EF_DG14
	EF_DG15
	EF_DG16
	EF_SOD
	EF_CardAccess
	EF_CVCA

	kindCount = int(EF_CVCA)
)

// FID of the file shared by EF.CardAccess and EF.CVCA.
const FIDCardAccessOrCVCA uint16 = 0x011C

// ASN.1 SET tag, first byte of EF.CardAccess.
const cardAccessFirstByte = 0x31

type record struct {
	kind      FileKind
	fid       uint16
	tag       byte
	hasTag    bool
	number    int // 0 for files outside DG1..DG16
	name      string
	supported bool
}

var catalog = []record{
	{EF_COM, 0x011E, 0x60, true, 0, "EF_COM", true},
	{EF_DG1, 0x0101, 0x61, true, 1, "EF_DG1", true},
	{EF_DG2, 0x0102, 0x75, true, 2, "EF_DG2", true},
	{EF_DG3, 0x0103, 0x63, true, 3, "EF_DG3", true},
	{EF_DG4, 0x0104, 0x76, true, 4, "EF_DG4", true},
	{EF_DG5, 0x0105, 0x65, true, 5, "EF_DG5", true},
	{EF_DG6, 0x0106, 0x66, true, 6, "EF_DG6", true},
	{EF_DG7, 0x0107, 0x67, true, 7, "EF_DG7", true},
	{EF_DG8, 0x0108, 0x68, true, 8, "EF_DG8", false},
	{EF_DG9, 0x0109, 0x69, true, 9, "EF_DG9", false},
	{EF_DG10, 0x010A, 0x6A, true, 10, "EF_DG10", false},
	{EF_DG11, 0x010B, 0x6B, true, 11, "EF_DG11", true},
	{EF_DG12, 0x010C, 0x6C, true, 12, "EF_DG12", true},
	{EF_DG13, 0x010D, 0x6D, true, 13, "EF_DG13", false},
	{EF_DG14, 0x010E, 0x6E, true, 14, "EF_DG14", true},
	{EF_DG15, 0x010F, 0x6F, true, 15, "EF_DG15", true},
	// Older catalogs carry 0x0110F here. 9303-10 assigns 0x0110, in line with DG1..DG15.
	{EF_DG16, 0x0110, 0x70, true, 16, "EF_DG16", false},
	{EF_SOD, 0x011D, 0x77, true, 0, "EF_SOD", true},
	{EF_CardAccess, FIDCardAccessOrCVCA, 0, false, 0, "EF_CardAccess", true},
	{EF_CVCA, FIDCardAccessOrCVCA, 0, false, 0, "EF_CVCA", true},
}

// fidPrecedence names the kind a shared FID resolves to.
var fidPrecedence = map[uint16]FileKind{
	FIDCardAccessOrCVCA: EF_CVCA,
}

var (
	byKind   [kindCount + 1]*record
	byFID    = make(map[uint16]FileKind, len(catalog))
	byTag    = make(map[byte]FileKind, len(catalog))
	byNumber [17]FileKind
)

func init() {
	for i := range catalog {
		r := &catalog[i]
		if byKind[r.kind] != nil {
			panic(fmt.Sprintf("lds: %s declared twice", r.name))
		}
		byKind[r.kind] = r

		if prev, dup := byFID[r.fid]; dup {
			want, ok := fidPrecedence[r.fid]
			if !ok || (want != prev && want != r.kind) {
				panic(fmt.Sprintf("lds: FID 0x%04X shared by %s and %s without precedence", r.fid, prev, r.name))
			}
		}
		byFID[r.fid] = r.kind

		if r.hasTag {
			if prev, dup := byTag[r.tag]; dup {
				panic(fmt.Sprintf("lds: tag 0x%02X shared by %s and %s", r.tag, prev, r.name))
			}
			byTag[r.tag] = r.kind
		}

		if r.number != 0 {
			byNumber[r.number] = r.kind
		}
	}

	for fid, kind := range fidPrecedence {
		byFID[fid] = kind
	}

	for k := 1; k <= kindCount; k++ {
		if byKind[k] == nil {
			panic(fmt.Sprintf("lds: FileKind %d missing from catalog", k))
		}
	}
}

func (k FileKind) record() *record {
	if k == 0 || int(k) > kindCount {
		return nil
	}
	return byKind[k]
}

// Valid reports whether k is one of the declared kinds.
func (k FileKind) Valid() bool {
	return k.record() != nil
}

// FID returns the canonical file identifier of k, or 0 for an invalid kind.
func (k FileKind) FID() uint16 {
	if r := k.record(); r != nil {
		return r.fid
	}
	return 0
}

// Tag returns the ICAO tag of k. EF.CVCA and EF.CardAccess have none.
func (k FileKind) Tag() (byte, bool) {
	if r := k.record(); r != nil && r.hasTag {
		return r.tag, true
	}
	return 0, false
}

// Number returns the data group number (1-16) of k.
func (k FileKind) Number() (int, bool) {
	if r := k.record(); r != nil && r.number != 0 {
		return r.number, true
	}
	return 0, false
}

// IsDataGroup reports whether k is one of DG1..DG16.
func (k FileKind) IsDataGroup() bool {
	_, ok := k.Number()
	return ok
}

// Supported reports whether a decoder is expected to exist for k.
// DG8, DG9, DG10, DG13 and DG16 are known but not supported.
func (k FileKind) Supported() bool {
	r := k.record()
	return r != nil && r.supported
}

// Name returns the mnemonic of k, such as "EF_DG1".
func (k FileKind) Name() string {
	if r := k.record(); r != nil {
		return r.name
	}
	return fmt.Sprintf("FileKind(%d)", uint8(k))
}

func (k FileKind) String() string {
	return k.Name()
}

// Kinds returns every known kind in declaration order.
func Kinds() []FileKind {
	kinds := make([]FileKind, 0, len(catalog))
	for _, r := range catalog {
		kinds = append(kinds, r.kind)
	}
	return kinds
}

// LookupFID returns the kind stored under fid. The shared FID 0x011C resolves to EF_CVCA.
func LookupFID(fid uint16) (FileKind, bool) {
	k, ok := byFID[fid]
	return k, ok
}

// LookupTag returns the kind whose encoding starts with the ICAO tag.
func LookupTag(tag byte) (FileKind, bool) {
	k, ok := byTag[tag]
	return k, ok
}

// LookupNumber returns the data group kind for a number in 1..16.
func LookupNumber(n int) (FileKind, bool) {
	if n < 1 || n >= len(byNumber) {
		return 0, false
	}
	return byNumber[n], true
}
