package ldsfile

import (
	"encoding/asn1"
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/mrtd/pkg/lds"
	"github.com/gregLibert/mrtd/pkg/tlv"
)

// SECURITY INFOS (ICAO Doc 9303 part 11, section 9.2):
// EF.CardAccess and EF.DG14 both hold SecurityInfos, an ASN.1 SET OF SecurityInfo:
//
//	SecurityInfo ::= SEQUENCE {
//	    protocol     OBJECT IDENTIFIER,
//	    requiredData ANY DEFINED BY protocol,
//	    optionalData ANY DEFINED BY protocol OPTIONAL }
//
// EF.CardAccess is the bare SET ('31'). DG14 wraps the SET in its ICAO tag '6E'.

const setTag = 0x31

// Protocol families, by OID prefix (bsi-de protocols 0.4.0.127.0.7.2.2 and icao-mrtd-security).
var (
	oidPK    = asn1.ObjectIdentifier{0, 4, 0, 127, 0, 7, 2, 2, 1}
	oidTA    = asn1.ObjectIdentifier{0, 4, 0, 127, 0, 7, 2, 2, 2}
	oidCA    = asn1.ObjectIdentifier{0, 4, 0, 127, 0, 7, 2, 2, 3}
	oidPACE  = asn1.ObjectIdentifier{0, 4, 0, 127, 0, 7, 2, 2, 4}
	oidAA    = asn1.ObjectIdentifier{2, 23, 136, 1, 1, 5}
	oidEFDIR = asn1.ObjectIdentifier{2, 23, 136, 1, 1, 13}
)

var oidFamilies = []struct {
	prefix asn1.ObjectIdentifier
	name   string
}{
	{oidPACE, "PACE"},
	{oidCA, "ChipAuthentication"},
	{oidTA, "TerminalAuthentication"},
	{oidPK, "ChipAuthenticationPublicKey"},
	{oidAA, "ActiveAuthentication"},
	{oidEFDIR, "EFDIR"},
}

// SecurityInfo is one protocol entry of a SecurityInfos set.
type SecurityInfo struct {
	Protocol asn1.ObjectIdentifier
	// Data holds requiredData and optionalData as decoded TLVs.
	Data []bertlv.TLV
}

// Family names the protocol family of the entry, such as "PACE".
func (si SecurityInfo) Family() string {
	for _, f := range oidFamilies {
		if hasPrefix(si.Protocol, f.prefix) {
			return f.name
		}
	}
	return "Unknown"
}

// Version returns the first INTEGER of the entry, which is the version for PACE, CA and TA.
func (si SecurityInfo) Version() (int, bool) {
	p, ok := tlv.Find(si.Data, "02")
	if !ok || len(p.Value) == 0 || len(p.Value) > 4 {
		return 0, false
	}
	v := 0
	for _, b := range p.Value {
		v = v<<8 | int(b)
	}
	return v, true
}

// SecurityInfosFile is EF.CardAccess or EF.DG14.
type SecurityInfosFile struct {
	base
	Infos []SecurityInfo
}

func decodeCardAccess(s lds.Stream) (lds.File, error) {
	b, set, err := readObject(s, lds.EF_CardAccess, setTag)
	if err != nil {
		return nil, err
	}
	return newSecurityInfos(b, set)
}

func decodeDG14(s lds.Stream) (lds.File, error) {
	b, template, err := readTemplate(s, lds.EF_DG14)
	if err != nil {
		return nil, err
	}
	set, ok := tlv.Find(template.TLVs, "31")
	if !ok {
		return nil, fmt.Errorf("%s: SecurityInfos SET not found", lds.EF_DG14)
	}
	return newSecurityInfos(b, set)
}

func newSecurityInfos(b *base, set bertlv.TLV) (lds.File, error) {
	f := &SecurityInfosFile{base: *b}
	for i, p := range set.TLVs {
		if !strings.EqualFold(p.Tag, "30") || len(p.TLVs) == 0 || !strings.EqualFold(p.TLVs[0].Tag, "06") {
			return nil, fmt.Errorf("%s: SecurityInfo %d is not a SEQUENCE starting with an OID", b.kind, i)
		}
		oid, err := parseOID(p.TLVs[0].Value)
		if err != nil {
			return nil, fmt.Errorf("%s: SecurityInfo %d: %w", b.kind, i, err)
		}
		f.Infos = append(f.Infos, SecurityInfo{Protocol: oid, Data: p.TLVs[1:]})
	}
	return f, nil
}

// CVCAFileID returns the EF.CVCA file identifier announced by a TerminalAuthenticationInfo.
// It is the FID under which a relocated EF.CVCA is read.
//
//	TerminalAuthenticationInfo ::= SEQUENCE {
//	    protocol OBJECT IDENTIFIER, version INTEGER, efCVCA FileID OPTIONAL }
//	FileID ::= SEQUENCE { fid OCTET STRING (SIZE(2)), sfid OCTET STRING (SIZE(1)) OPTIONAL }
func (f *SecurityInfosFile) CVCAFileID() (uint16, bool) {
	for _, si := range f.Infos {
		if !hasPrefix(si.Protocol, oidTA) {
			continue
		}
		fileID, ok := tlv.Find(si.Data, "30")
		if !ok {
			continue
		}
		fid, ok := tlv.Find(fileID.TLVs, "04")
		if !ok || len(fid.Value) != 2 {
			continue
		}
		return uint16(fid.Value[0])<<8 | uint16(fid.Value[1]), true
	}
	return 0, false
}

func (f *SecurityInfosFile) Describe() string {
	var sb strings.Builder
	sb.WriteString(f.title())
	for i, si := range f.Infos {
		line := fmt.Sprintf("\n    - Info[%d]: %s (%s)", i, si.Family(), si.Protocol)
		if v, ok := si.Version(); ok {
			line += fmt.Sprintf(" v%d", v)
		}
		sb.WriteString(line)
	}
	if fid, ok := f.CVCAFileID(); ok {
		sb.WriteString(fmt.Sprintf("\n    - EF.CVCA: FID %04X (%s)", fid, lds.FIDToName(fid)))
	}
	return sb.String()
}

// parseOID decodes the content octets of an OBJECT IDENTIFIER.
func parseOID(content []byte) (asn1.ObjectIdentifier, error) {
	if len(content) > 127 {
		return nil, fmt.Errorf("OID of %d bytes", len(content))
	}
	var oid asn1.ObjectIdentifier
	der := append([]byte{0x06, byte(len(content))}, content...)
	if _, err := asn1.Unmarshal(der, &oid); err != nil {
		return nil, fmt.Errorf("invalid OID %X: %w", content, err)
	}
	return oid, nil
}

func hasPrefix(oid, prefix asn1.ObjectIdentifier) bool {
	return len(oid) >= len(prefix) && oid[:len(prefix)].Equal(prefix)
}
