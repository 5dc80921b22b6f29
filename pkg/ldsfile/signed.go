package ldsfile

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"sort"
	"strings"

	"github.com/gregLibert/mrtd/pkg/lds"
	"github.com/gregLibert/mrtd/pkg/tlv"
)

var (
	oidRSA          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidECPublicKey  = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSignedData   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	oidLDSSecObject = asn1.ObjectIdentifier{2, 23, 136, 1, 1, 1}
	oidSHA1         = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	oidSHA224       = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 4}
	oidSHA256       = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	oidSHA384       = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	oidSHA512       = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

var algorithmNames = []struct {
	oid  asn1.ObjectIdentifier
	name string
}{
	{oidRSA, "rsaEncryption"},
	{oidECPublicKey, "ecPublicKey"},
	{oidSHA1, "SHA-1"},
	{oidSHA224, "SHA-224"},
	{oidSHA256, "SHA-256"},
	{oidSHA384, "SHA-384"},
	{oidSHA512, "SHA-512"},
}

func algorithmName(oid asn1.ObjectIdentifier) string {
	for _, a := range algorithmNames {
		if a.oid.Equal(oid) {
			return a.name
		}
	}
	return oid.String()
}

// valueOf returns the content of the single object held by f, past the ICAO tag header.
func valueOf(b *base) ([]byte, error) {
	h, err := tlv.ParseHeader(b.encoded)
	if err != nil {
		return nil, err
	}
	return b.encoded[h.HeaderLen:h.TotalLen()], nil
}

// DG15File is EF.DG15: the Active Authentication public key as a SubjectPublicKeyInfo.
type DG15File struct {
	base
	PublicKeyInfo []byte
}

type subjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

func decodeDG15(s lds.Stream) (lds.File, error) {
	b, _, err := readTemplate(s, lds.EF_DG15)
	if err != nil {
		return nil, err
	}
	spki, err := valueOf(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lds.EF_DG15, err)
	}
	return &DG15File{base: *b, PublicKeyInfo: spki}, nil
}

// Algorithm returns the public key algorithm OID, such as rsaEncryption or ecPublicKey.
func (f *DG15File) Algorithm() (asn1.ObjectIdentifier, error) {
	var spki subjectPublicKeyInfo
	if _, err := asn1.Unmarshal(f.PublicKeyInfo, &spki); err != nil {
		return nil, fmt.Errorf("SubjectPublicKeyInfo: %w", err)
	}
	return spki.Algorithm.Algorithm, nil
}

func (f *DG15File) Describe() string {
	var sb strings.Builder
	sb.WriteString(f.title())
	sb.WriteString(fmt.Sprintf("\n    - DG15.PublicKeyInfo: %d bytes", len(f.PublicKeyInfo)))
	if oid, err := f.Algorithm(); err == nil {
		sb.WriteString(fmt.Sprintf("\n    - DG15.Algorithm: %s", algorithmName(oid)))
	}
	return sb.String()
}

// SECURITY OBJECT (ICAO Doc 9303 part 10, section 4.6.2):
// EF.SOD wraps a CMS ContentInfo of type SignedData whose encapsulated content is the
// LDSSecurityObject: a hash algorithm and one hash per data group present on the chip.
// The signature and the Document Signer certificate are not examined.

// SODFile is EF.SOD.
type SODFile struct {
	base
	ContentInfo []byte
}

// DataGroupHash is the hash of one data group listed in the security object.
type DataGroupHash struct {
	Kind  lds.FileKind
	Value []byte
}

// SecurityObject is the decoded LDSSecurityObject.
type SecurityObject struct {
	Version       int
	HashAlgorithm asn1.ObjectIdentifier
	Hashes        []DataGroupHash
}

type contentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"explicit,tag:0"`
}

type signedData struct {
	Version          int
	DigestAlgorithms asn1.RawValue
	EncapContentInfo encapsulatedContentInfo
}

type encapsulatedContentInfo struct {
	EContentType asn1.ObjectIdentifier
	EContent     []byte `asn1:"explicit,tag:0"`
}

type ldsSecurityObject struct {
	Version       int
	HashAlgorithm pkix.AlgorithmIdentifier
	Hashes        []dataGroupHash
}

type dataGroupHash struct {
	Number int
	Value  []byte
}

func decodeSOD(s lds.Stream) (lds.File, error) {
	b, _, err := readTemplate(s, lds.EF_SOD)
	if err != nil {
		return nil, err
	}
	ci, err := valueOf(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lds.EF_SOD, err)
	}
	return &SODFile{base: *b, ContentInfo: ci}, nil
}

// SecurityObject extracts the LDSSecurityObject from the SignedData.
func (f *SODFile) SecurityObject() (*SecurityObject, error) {
	var ci contentInfo
	if _, err := asn1.Unmarshal(f.ContentInfo, &ci); err != nil {
		return nil, fmt.Errorf("ContentInfo: %w", err)
	}
	if !ci.ContentType.Equal(oidSignedData) {
		return nil, fmt.Errorf("ContentInfo: content type %s is not signedData", ci.ContentType)
	}

	var sd signedData
	if _, err := asn1.Unmarshal(ci.Content.Bytes, &sd); err != nil {
		return nil, fmt.Errorf("SignedData: %w", err)
	}
	if !sd.EncapContentInfo.EContentType.Equal(oidLDSSecObject) {
		return nil, fmt.Errorf("SignedData: content type %s is not ldsSecurityObject", sd.EncapContentInfo.EContentType)
	}

	var so ldsSecurityObject
	if _, err := asn1.Unmarshal(sd.EncapContentInfo.EContent, &so); err != nil {
		return nil, fmt.Errorf("LDSSecurityObject: %w", err)
	}

	out := &SecurityObject{Version: so.Version, HashAlgorithm: so.HashAlgorithm.Algorithm}
	for _, h := range so.Hashes {
		k, err := lds.NumberToKind(h.Number)
		if err != nil {
			return nil, fmt.Errorf("LDSSecurityObject: %w", err)
		}
		out.Hashes = append(out.Hashes, DataGroupHash{Kind: k, Value: h.Value})
	}
	sort.Slice(out.Hashes, func(i, j int) bool { return out.Hashes[i].Kind < out.Hashes[j].Kind })
	return out, nil
}

func (f *SODFile) Describe() string {
	var sb strings.Builder
	sb.WriteString(f.title())
	sb.WriteString(fmt.Sprintf("\n    - SOD.ContentInfo: %d bytes", len(f.ContentInfo)))

	so, err := f.SecurityObject()
	if err != nil {
		sb.WriteString(fmt.Sprintf("\n    - SOD.SecurityObject: %v", err))
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("\n    - SOD.HashAlgorithm: %s", algorithmName(so.HashAlgorithm)))
	for _, h := range so.Hashes {
		sb.WriteString(fmt.Sprintf("\n    - SOD.Hash %s: %s", h.Kind, tlv.Abbreviate(fmt.Sprintf("%X", h.Value), 64)))
	}
	return sb.String()
}
