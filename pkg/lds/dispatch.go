package lds

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// DISPATCH LOGIC:
// ConstructFile resolves a FID to a FileKind and hands the stream to the decoder registered for
// that kind. Three outcomes exist besides a plain decode:
//
// 1. Known but unsupported kind (DG8, DG9, DG10, DG13, DG16):
//    ErrUnsupportedFileKind, nothing is read.
//
// 2. Shared FID 0x011C:
//    The first byte is peeked. 0x31 (ASN.1 SET) is EF.CardAccess, anything else EF.CVCA.
//
// 3. Unknown FID:
//    DG14 (TerminalAuthenticationInfo) may relocate EF.CVCA to another FID. The stream is probed
//    as EF.CVCA under that FID, reading at most LookaheadSize bytes through Peek. On failure the
//    stream is left untouched and ErrUnknownFID is returned.

// File is the common view of a decoded LDS file.
type File interface {
	Kind() FileKind
	FID() uint16
	// Encoded returns the bytes the file was decoded from.
	Encoded() []byte
}

// Decoder reads exactly one file from s. Its errors are returned to the caller unchanged.
type Decoder func(s Stream) (File, error)

// Prober tries to interpret prefix as EF.CVCA stored under fid. It returns the number of
// prefix bytes the file occupies. It must not retain prefix.
type Prober func(fid uint16, prefix []byte) (File, int, bool)

// Dispatcher builds typed files from FIDs and streams.
// It is immutable once created and safe for concurrent use with distinct streams.
type Dispatcher struct {
	decoders map[FileKind]Decoder
	probe    Prober
	log      zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used to trace resolution at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithProber enables the relocated EF.CVCA fallback for unknown FIDs.
func WithProber(p Prober) Option {
	return func(d *Dispatcher) {
		d.probe = p
	}
}

// NewDispatcher creates a Dispatcher over a decoder table. The table is copied.
func NewDispatcher(decoders map[FileKind]Decoder, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		decoders: make(map[FileKind]Decoder, len(decoders)),
		log:      zerolog.Nop(),
	}
	for k, dec := range decoders {
		if k.Valid() && dec != nil {
			d.decoders[k] = dec
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve returns the kind ConstructFile would decode s as, without consuming s.
func (d *Dispatcher) Resolve(fid uint16, s Stream) (FileKind, error) {
	kind, ok := LookupFID(fid)
	if !ok {
		return 0, unknownFID(fid)
	}
	if fid == FIDCardAccessOrCVCA && isCardAccess(s) {
		return EF_CardAccess, nil
	}
	return kind, nil
}

// ConstructFile decodes the file stored under fid from s.
func (d *Dispatcher) ConstructFile(fid uint16, s Stream) (File, error) {
	if s == nil {
		return nil, fmt.Errorf("nil stream for %s", FIDToName(fid))
	}

	kind, err := d.Resolve(fid, s)
	if err != nil {
		if f, ok := d.trySpeculative(fid, s); ok {
			return f, nil
		}
		return nil, err
	}

	logger := d.log.With().Str("fid", fmt.Sprintf("%04X", fid)).Stringer("kind", kind).Logger()

	if !kind.Supported() {
		logger.Debug().Msg("known file without decoder")
		return nil, unsupported(fid, kind)
	}

	dec, ok := d.decoders[kind]
	if !ok {
		logger.Debug().Msg("no decoder registered")
		return nil, unsupported(fid, kind)
	}

	logger.Debug().Msg("decoding")
	return dec(s)
}

// trySpeculative probes s as a relocated EF.CVCA. s is only advanced on success.
func (d *Dispatcher) trySpeculative(fid uint16, s Stream) (File, bool) {
	if d.probe == nil {
		return nil, false
	}

	logger := d.log.With().Str("fid", fmt.Sprintf("%04X", fid)).Logger()

	prefix, err := s.Peek(LookaheadSize)
	if err != nil && !errors.Is(err, io.EOF) {
		logger.Debug().Err(err).Msg("speculative read failed")
		return nil, false
	}
	if len(prefix) == 0 || len(prefix) > MaxCVCASize {
		logger.Debug().Int("available", len(prefix)).Msg("not a relocated EF.CVCA: size")
		return nil, false
	}

	f, n, ok := d.probe(fid, prefix)
	if !ok || n <= 0 || n > len(prefix) {
		logger.Debug().Msg("not a relocated EF.CVCA: content")
		return nil, false
	}

	if _, err := s.Discard(n); err != nil {
		logger.Debug().Err(err).Msg("discard after probe failed")
		return nil, false
	}

	logger.Debug().Int("size", n).Msg("relocated EF.CVCA")
	return f, true
}

func isCardAccess(s Stream) bool {
	b, err := s.Peek(1)
	return err == nil && len(b) == 1 && b[0] == cardAccessFirstByte
}

func unsupported(fid uint16, kind FileKind) error {
	return &LookupError{Space: SpaceFID, Value: int(fid), Kind: kind, Err: ErrUnsupportedFileKind}
}
