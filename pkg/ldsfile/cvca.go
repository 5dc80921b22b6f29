package ldsfile

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gregLibert/mrtd/pkg/lds"
)

// EF.CVCA (ICAO Doc 9303 part 11, section 7.2.2; BSI TR-03110):
// Up to two Certification Authority References, each a '42' DO of at most 16 characters,
// followed by zero padding up to 36 bytes. The second reference is only present while a
// CVCA key rollover is in progress.
//
// The file carries no ICAO tag. It lives under FID 0x011C by default, or under the FID that
// DG14 announces in its TerminalAuthenticationInfo.

const (
	carTag    = 0x42
	maxCARLen = 16
	maxCARs   = 2
)

// ErrMalformedCVCA is returned when a stream at FID 0x011C holds no valid EF.CVCA.
var ErrMalformedCVCA = errors.New("malformed EF.CVCA")

// CVCAFile is EF.CVCA: the CA references the chip trusts for Terminal Authentication.
type CVCAFile struct {
	base
	References []string
}

// ParseCVCA interprets prefix as a complete EF.CVCA stored under fid and returns the number of
// bytes it occupies. It is the lds.Prober for FIDs outside the catalog.
func ParseCVCA(fid uint16, prefix []byte) (lds.File, int, bool) {
	if len(prefix) == 0 || len(prefix) > lds.MaxCVCASize {
		return nil, 0, false
	}

	var refs []string
	pos := 0
	for pos < len(prefix) && prefix[pos] == carTag && len(refs) < maxCARs {
		if pos+1 >= len(prefix) {
			return nil, 0, false
		}
		l := int(prefix[pos+1])
		if l == 0 || l > maxCARLen || pos+2+l > len(prefix) {
			return nil, 0, false
		}
		refs = append(refs, string(prefix[pos+2:pos+2+l]))
		pos += 2 + l
	}
	if len(refs) == 0 {
		return nil, 0, false
	}

	for _, b := range prefix[pos:] {
		if b != 0x00 {
			return nil, 0, false
		}
	}

	encoded := append([]byte(nil), prefix...)
	return &CVCAFile{base: base{kind: lds.EF_CVCA, fid: fid, encoded: encoded}, References: refs}, len(prefix), true
}

func decodeCVCA(s lds.Stream) (lds.File, error) {
	prefix, err := s.Peek(lds.MaxCVCASize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", lds.EF_CVCA, err)
	}

	f, n, ok := ParseCVCA(lds.FIDCardAccessOrCVCA, prefix)
	if !ok {
		return nil, fmt.Errorf("%s: %w", lds.EF_CVCA, ErrMalformedCVCA)
	}
	if _, err := s.Discard(n); err != nil {
		return nil, fmt.Errorf("%s: %w", lds.EF_CVCA, err)
	}
	return f, nil
}

// TrustAnchor returns the reference of the current CVCA key.
func (f *CVCAFile) TrustAnchor() string {
	return f.References[0]
}

// NextTrustAnchor returns the reference of the CVCA key being rolled over to, if any.
func (f *CVCAFile) NextTrustAnchor() (string, bool) {
	if len(f.References) < 2 {
		return "", false
	}
	return f.References[1], true
}

func (f *CVCAFile) Describe() string {
	var sb strings.Builder
	sb.WriteString(f.title())
	for i, ref := range f.References {
		sb.WriteString(fmt.Sprintf("\n    - CVCA.Reference[%d] (42): %q", i, ref))
	}
	return sb.String()
}
