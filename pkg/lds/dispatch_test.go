package lds

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawFile struct {
	kind FileKind
	fid  uint16
	data []byte
}

func (f *rawFile) Kind() FileKind  { return f.kind }
func (f *rawFile) FID() uint16     { return f.fid }
func (f *rawFile) Encoded() []byte { return f.data }

// fixedDecoder consumes n bytes and reports them as a file of the given kind.
func fixedDecoder(kind FileKind, n int) Decoder {
	return func(s Stream) (File, error) {
		buf := make([]byte, n)
		if _, err := io.ReadFull(s, buf); err != nil {
			return nil, err
		}
		return &rawFile{kind: kind, fid: kind.FID(), data: buf}, nil
	}
}

// cvcaProber accepts any prefix starting with 0x42 and claims all of it.
func cvcaProber(fid uint16, prefix []byte) (File, int, bool) {
	if prefix[0] != 0x42 {
		return nil, 0, false
	}
	return &rawFile{kind: EF_CVCA, fid: fid, data: append([]byte(nil), prefix...)}, len(prefix), true
}

// peekRecorder records the largest lookahead requested from the stream.
type peekRecorder struct {
	*bufio.Reader
	maxPeek int
}

func (p *peekRecorder) Peek(n int) ([]byte, error) {
	p.maxPeek = max(p.maxPeek, n)
	return p.Reader.Peek(n)
}

func newStream(data []byte) *peekRecorder {
	return &peekRecorder{Reader: bufio.NewReader(bytes.NewReader(data))}
}

func remaining(t *testing.T, s Stream) []byte {
	t.Helper()
	rest, err := io.ReadAll(s)
	require.NoError(t, err)
	return rest
}

func allDecoders() map[FileKind]Decoder {
	m := make(map[FileKind]Decoder)
	for _, k := range Kinds() {
		if k.Supported() {
			m[k] = fixedDecoder(k, 2)
		}
	}
	return m
}

func TestDispatcher_DecodesSupportedKinds(t *testing.T) {
	d := NewDispatcher(allDecoders())

	for _, k := range Kinds() {
		if !k.Supported() || k == EF_CardAccess {
			continue
		}
		t.Run(k.String(), func(t *testing.T) {
			tag, _ := k.Tag()
			s := newStream([]byte{tag, 0x00, 0xEE})

			f, err := d.ConstructFile(k.FID(), s)
			require.NoError(t, err)
			assert.Equal(t, k, f.Kind())
			assert.Equal(t, []byte{tag, 0x00}, f.Encoded())
			assert.Equal(t, []byte{0xEE}, remaining(t, s))
		})
	}
}

func TestDispatcher_UnsupportedKinds(t *testing.T) {
	d := NewDispatcher(allDecoders())

	for _, k := range []FileKind{EF_DG8, EF_DG9, EF_DG10, EF_DG13, EF_DG16} {
		t.Run(k.String(), func(t *testing.T) {
			s := newStream([]byte{0x68, 0x01, 0x00})

			_, err := d.ConstructFile(k.FID(), s)
			require.ErrorIs(t, err, ErrUnsupportedFileKind)
			assert.EqualError(t, err, fmt.Sprintf("%s (FID 0x%04X) is not supported yet", k, k.FID()))
			assert.Len(t, remaining(t, s), 3)
		})
	}
}

func TestDispatcher_MissingDecoder(t *testing.T) {
	d := NewDispatcher(map[FileKind]Decoder{EF_COM: fixedDecoder(EF_COM, 2), EF_DG1: nil, 0: fixedDecoder(EF_COM, 1)})

	_, err := d.ConstructFile(0x0101, newStream([]byte{0x61, 0x00}))
	require.ErrorIs(t, err, ErrUnsupportedFileKind)

	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, EF_DG1, le.Kind)
}

func TestDispatcher_SharedFID(t *testing.T) {
	d := NewDispatcher(allDecoders())

	tests := []struct {
		name    string
		content []byte
		want    FileKind
	}{
		{"SET content is EF.CardAccess", []byte{0x31, 0x00}, EF_CardAccess},
		{"CA reference is EF.CVCA", []byte{0x42, 0x00}, EF_CVCA},
		{"zero padding is EF.CVCA", []byte{0x00, 0x00}, EF_CVCA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := d.Resolve(FIDCardAccessOrCVCA, newStream(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)

			f, err := d.ConstructFile(FIDCardAccessOrCVCA, newStream(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Kind())
		})
	}

	t.Run("empty stream resolves by precedence", func(t *testing.T) {
		kind, err := d.Resolve(FIDCardAccessOrCVCA, newStream(nil))
		require.NoError(t, err)
		assert.Equal(t, EF_CVCA, kind)
	})
}

func TestDispatcher_UnknownFID(t *testing.T) {
	cvca := append([]byte{0x42, 0x03, 'C', 'A', 'R'}, make([]byte, 31)...)

	t.Run("without prober", func(t *testing.T) {
		s := newStream(cvca)
		_, err := NewDispatcher(allDecoders()).ConstructFile(0x0120, s)
		require.ErrorIs(t, err, ErrUnknownFID)
		assert.Equal(t, cvca, remaining(t, s))
	})

	t.Run("relocated EF.CVCA is decoded and consumed", func(t *testing.T) {
		s := newStream(cvca)
		d := NewDispatcher(allDecoders(), WithProber(cvcaProber))

		f, err := d.ConstructFile(0x0120, s)
		require.NoError(t, err)
		assert.Equal(t, EF_CVCA, f.Kind())
		assert.Equal(t, uint16(0x0120), f.FID())
		assert.Equal(t, cvca, f.Encoded())
		assert.LessOrEqual(t, s.maxPeek, LookaheadSize)
		assert.Empty(t, remaining(t, s))
	})

	rejected := []struct {
		name    string
		content []byte
	}{
		{"content rejected by prober", append([]byte{0x30, 0x03}, make([]byte, 10)...)},
		{"longer than EF.CVCA", append(append([]byte(nil), cvca...), 0x00)},
		{"empty stream", nil},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			s := newStream(tt.content)
			d := NewDispatcher(allDecoders(), WithProber(cvcaProber))

			_, err := d.ConstructFile(0x0120, s)
			require.ErrorIs(t, err, ErrUnknownFID)
			assert.LessOrEqual(t, s.maxPeek, LookaheadSize)
			assert.Equal(t, len(tt.content), len(remaining(t, s)))
		})
	}

	t.Run("prober claiming too much is ignored", func(t *testing.T) {
		greedy := func(fid uint16, prefix []byte) (File, int, bool) {
			return &rawFile{kind: EF_CVCA, fid: fid}, len(prefix) + 1, true
		}
		s := newStream(cvca)

		_, err := NewDispatcher(nil, WithProber(greedy)).ConstructFile(0x0120, s)
		require.ErrorIs(t, err, ErrUnknownFID)
		assert.Equal(t, cvca, remaining(t, s))
	})
}

func TestDispatcher_DecoderErrorsPassThrough(t *testing.T) {
	sentinel := errors.New("bad MRZ")
	d := NewDispatcher(map[FileKind]Decoder{
		EF_DG1: func(Stream) (File, error) { return nil, sentinel },
	})

	_, err := d.ConstructFile(0x0101, newStream([]byte{0x61, 0x00}))
	assert.Same(t, sentinel, err)
}

func TestDispatcher_NilStream(t *testing.T) {
	_, err := NewDispatcher(allDecoders()).ConstructFile(0x0101, nil)
	assert.EqualError(t, err, "nil stream for EF_DG1")
}

func TestDispatcher_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	d := NewDispatcher(allDecoders(), WithProber(cvcaProber), WithLogger(logger))

	_, err := d.ConstructFile(0x0120, newStream([]byte{0x42, 0x00}))
	require.NoError(t, err)
	_, err = d.ConstructFile(0x0109, newStream([]byte{0x69, 0x00}))
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"message":"relocated EF.CVCA"`)
	assert.Contains(t, out, `"fid":"0120"`)
	assert.Contains(t, out, `"kind":"EF_DG9"`)
}

func TestDispatcher_Concurrent(t *testing.T) {
	d := NewDispatcher(allDecoders(), WithProber(cvcaProber))
	fids := []uint16{0x011E, 0x0101, 0x011C, 0x0108, 0x0120, 0x9999}

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(fid uint16) {
			defer wg.Done()
			_, _ = d.ConstructFile(fid, newStream([]byte{0x42, 0x00}))
			_, _ = FIDToKind(fid)
			_ = FIDToName(fid)
		}(fids[i%len(fids)])
	}
	wg.Wait()
}
