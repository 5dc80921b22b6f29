package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex decodes hex text split over any number of parts.
// Whitespace and ':' separators are ignored, so dumps like "61 5B 5F 1F" or "61:5B" are accepted.
func ParseHex(parts ...string) ([]byte, error) {
	cleanHex := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, strings.Join(parts, ""))

	data, err := hex.DecodeString(cleanHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex '%s': %w", Abbreviate(cleanHex, 32), err)
	}
	return data, nil
}

// Hex constructs a byte slice from a series of hex strings. It panics on invalid input and is
// meant for fixtures.
func Hex(parts ...string) []byte {
	data, err := ParseHex(parts...)
	if err != nil {
		panic(err.Error())
	}
	return data
}
