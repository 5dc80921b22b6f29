package ldsfile_test

import (
	"bytes"
	"fmt"

	"github.com/gregLibert/mrtd/pkg/lds"
	"github.com/gregLibert/mrtd/pkg/ldsfile"
	"github.com/gregLibert/mrtd/pkg/tlv"
)

func ExampleNewDispatcher() {
	raw := tlv.Hex("60 16 5F01 04 30313037 5F36 06 303430303030 5C 04 61 75 6E 6F")

	f, err := ldsfile.NewDispatcher().ConstructFile(0x011E, lds.NewStream(bytes.NewReader(raw)))
	if err != nil {
		fmt.Println(err)
		return
	}

	com := f.(*ldsfile.COMFile)
	fmt.Println(com.Kind(), "version", com.Version())

	kinds, _ := com.DataGroups()
	for _, k := range kinds {
		fmt.Printf("%s at %04X\n", k, k.FID())
	}
	// Output:
	// EF_COM version 1.7
	// EF_DG1 at 0101
	// EF_DG2 at 0102
	// EF_DG14 at 010E
	// EF_DG15 at 010F
}

func ExampleParseCVCA() {
	raw := append(tlv.Hex("42 10"), []byte("DECVCAeRID000001")...)
	raw = append(raw, make([]byte, 18)...)

	f, n, ok := ldsfile.ParseCVCA(0x011F, raw)
	fmt.Println(ok, n, f.(*ldsfile.CVCAFile).TrustAnchor())
	// Output:
	// true 36 DECVCAeRID000001
}
