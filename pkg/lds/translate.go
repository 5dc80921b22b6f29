package lds

import (
	"fmt"
)

// TRANSLATION:
// Each function below is a projection over the catalog. Failures are *LookupError values
// wrapping ErrUnknownTag, ErrUnknownFID or ErrUnknownNumber, depending on the input space.
// Name lookups never fail: they are meant for logs.

// TagToKind returns the kind identified by an ICAO tag.
func TagToKind(tag byte) (FileKind, error) {
	k, ok := LookupTag(tag)
	if !ok {
		return 0, unknownTag(tag)
	}
	return k, nil
}

// FIDToKind returns the kind stored under fid.
func FIDToKind(fid uint16) (FileKind, error) {
	k, ok := LookupFID(fid)
	if !ok {
		return 0, unknownFID(fid)
	}
	return k, nil
}

// NumberToKind returns the kind of data group n.
func NumberToKind(n int) (FileKind, error) {
	k, ok := LookupNumber(n)
	if !ok {
		return 0, unknownNumber(n)
	}
	return k, nil
}

// TagToFID finds the file identifier for an ICAO tag.
func TagToFID(tag byte) (uint16, error) {
	k, err := TagToKind(tag)
	if err != nil {
		return 0, err
	}
	return k.FID(), nil
}

// TagToDataGroupNumber finds the data group number for an ICAO tag.
// EF.COM and EF.SOD tags have no number and fail with ErrUnknownTag.
func TagToDataGroupNumber(tag byte) (int, error) {
	k, err := TagToKind(tag)
	if err != nil {
		return 0, err
	}
	n, ok := k.Number()
	if !ok {
		return 0, &LookupError{Space: SpaceTag, Value: int(tag), Kind: k, Err: ErrUnknownTag}
	}
	return n, nil
}

// DataGroupNumberToTag finds the ICAO tag of data group n.
func DataGroupNumberToTag(n int) (byte, error) {
	k, err := NumberToKind(n)
	if err != nil {
		return 0, err
	}
	tag, _ := k.Tag()
	return tag, nil
}

// DataGroupNumberToFID finds the file identifier of data group n.
func DataGroupNumberToFID(n int) (uint16, error) {
	k, err := NumberToKind(n)
	if err != nil {
		return 0, err
	}
	return k.FID(), nil
}

// FIDToTag finds the ICAO tag of the file stored under fid.
// FID 0x011C resolves to EF.CVCA, which has no tag, and fails with ErrUnknownFID.
func FIDToTag(fid uint16) (byte, error) {
	k, err := FIDToKind(fid)
	if err != nil {
		return 0, err
	}
	tag, ok := k.Tag()
	if !ok {
		return 0, &LookupError{Space: SpaceFID, Value: int(fid), Kind: k, Err: ErrUnknownFID}
	}
	return tag, nil
}

// FIDToDataGroupNumber finds the data group number of the file stored under fid.
func FIDToDataGroupNumber(fid uint16) (int, error) {
	k, err := FIDToKind(fid)
	if err != nil {
		return 0, err
	}
	n, ok := k.Number()
	if !ok {
		return 0, &LookupError{Space: SpaceFID, Value: int(fid), Kind: k, Err: ErrUnknownFID}
	}
	return n, nil
}

// FIDToName returns a mnemonic such as "EF_DG2" for fid.
// Unknown identifiers yield "unnamed file 0x" followed by the lowercase FID.
func FIDToName(fid uint16) string {
	if k, ok := LookupFID(fid); ok {
		return k.Name()
	}
	return fmt.Sprintf("unnamed file 0x%04x", fid)
}

// TagToName returns a mnemonic such as "EF_COM" for an ICAO tag.
func TagToName(tag byte) string {
	if k, ok := LookupTag(tag); ok {
		return k.Name()
	}
	return fmt.Sprintf("unnamed file with tag 0x%02x", tag)
}
