package lds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Complete(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 20)

	for i, k := range kinds {
		assert.Equal(t, FileKind(i+1), k)
		assert.True(t, k.Valid(), "%s", k)
		assert.NotZero(t, k.FID(), "%s", k)
		assert.NotEmpty(t, k.Name())
	}

	assert.False(t, FileKind(0).Valid())
	assert.False(t, FileKind(21).Valid())
	assert.Equal(t, "FileKind(21)", FileKind(21).String())
	assert.Zero(t, FileKind(0).FID())
}

func TestCatalog_DataGroups(t *testing.T) {
	tests := []struct {
		kind      FileKind
		fid       uint16
		tag       byte
		number    int
		supported bool
	}{
		{EF_DG1, 0x0101, 0x61, 1, true},
		{EF_DG2, 0x0102, 0x75, 2, true},
		{EF_DG3, 0x0103, 0x63, 3, true},
		{EF_DG4, 0x0104, 0x76, 4, true},
		{EF_DG5, 0x0105, 0x65, 5, true},
		{EF_DG6, 0x0106, 0x66, 6, true},
		{EF_DG7, 0x0107, 0x67, 7, true},
		{EF_DG8, 0x0108, 0x68, 8, false},
		{EF_DG9, 0x0109, 0x69, 9, false},
		{EF_DG10, 0x010A, 0x6A, 10, false},
		{EF_DG11, 0x010B, 0x6B, 11, true},
		{EF_DG12, 0x010C, 0x6C, 12, true},
		{EF_DG13, 0x010D, 0x6D, 13, false},
		{EF_DG14, 0x010E, 0x6E, 14, true},
		{EF_DG15, 0x010F, 0x6F, 15, true},
		{EF_DG16, 0x0110, 0x70, 16, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.fid, tt.kind.FID())

			tag, ok := tt.kind.Tag()
			require.True(t, ok)
			assert.Equal(t, tt.tag, tag)

			n, ok := tt.kind.Number()
			require.True(t, ok)
			assert.Equal(t, tt.number, n)

			assert.True(t, tt.kind.IsDataGroup())
			assert.Equal(t, tt.supported, tt.kind.Supported())
		})
	}
}

func TestCatalog_NonDataGroups(t *testing.T) {
	tests := []struct {
		kind   FileKind
		fid    uint16
		tag    byte
		hasTag bool
	}{
		{EF_COM, 0x011E, 0x60, true},
		{EF_SOD, 0x011D, 0x77, true},
		{EF_CardAccess, 0x011C, 0, false},
		{EF_CVCA, 0x011C, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.fid, tt.kind.FID())
			assert.False(t, tt.kind.IsDataGroup())
			assert.True(t, tt.kind.Supported())

			tag, ok := tt.kind.Tag()
			assert.Equal(t, tt.hasTag, ok)
			assert.Equal(t, tt.tag, tag)
		})
	}
}

func TestCatalog_SharedFIDPrecedence(t *testing.T) {
	for i := 0; i < 100; i++ {
		k, ok := LookupFID(FIDCardAccessOrCVCA)
		require.True(t, ok)
		require.Equal(t, EF_CVCA, k)
	}
	assert.Equal(t, "EF_CVCA", FIDToName(0x011C))
}
