package lds

import (
	"errors"
	"fmt"
)

// Failure kinds. Use errors.Is to test a returned error against them.
var (
	ErrUnknownTag          = errors.New("unknown ICAO tag")
	ErrUnknownFID          = errors.New("unknown file identifier")
	ErrUnknownNumber       = errors.New("unknown data group number")
	ErrUnsupportedFileKind = errors.New("unsupported file kind")
)

// Space names the identifier space a lookup was made in.
type Space string

const (
	SpaceTag    Space = "tag"
	SpaceFID    Space = "FID"
	SpaceNumber Space = "data group number"
)

// LookupError reports an identifier that could not be resolved.
type LookupError struct {
	Space Space
	Value int
	// Kind is set when the identifier was resolved but lacks the requested projection.
	Kind FileKind
	Err  error
}

func (e *LookupError) Error() string {
	value := e.formatValue()

	if e.Kind.Valid() {
		if errors.Is(e.Err, ErrUnsupportedFileKind) {
			return fmt.Sprintf("%s (%s %s) is not supported yet", e.Kind, e.Space, value)
		}
		return fmt.Sprintf("%s %s (%s): %v", e.Space, value, e.Kind, e.Err)
	}

	return fmt.Sprintf("no file known for %s %s", e.Space, value)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func (e *LookupError) formatValue() string {
	switch e.Space {
	case SpaceFID:
		return fmt.Sprintf("0x%04X", e.Value)
	case SpaceTag:
		return fmt.Sprintf("0x%02X", e.Value)
	default:
		return fmt.Sprintf("%d", e.Value)
	}
}

func unknownTag(tag byte) error {
	return &LookupError{Space: SpaceTag, Value: int(tag), Err: ErrUnknownTag}
}

func unknownFID(fid uint16) error {
	return &LookupError{Space: SpaceFID, Value: int(fid), Err: ErrUnknownFID}
}

func unknownNumber(n int) error {
	return &LookupError{Space: SpaceNumber, Value: n, Err: ErrUnknownNumber}
}
