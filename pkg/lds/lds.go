/*
Package lds identifies the files of an ICAO Logical Data Structure (LDS), the file layout of an
electronic travel document chip (ICAO Doc 9303 part 10), and routes their encoded content to a
typed decoder.

# Identifier Spaces

The same logical file is addressed in three ways:
  - FID: a 16-bit file identifier used by SELECT on the chip (e.g. 0x0101).
  - ICAO tag: the first byte of the file's BER-TLV encoding (e.g. 0x61).
  - Data group number: 1 to 16, used in the documentation (e.g. DG1).

Not every file has all three. EF.COM and EF.SOD have a FID and a tag but no number. EF.CVCA and
EF.CardAccess have a FID only.

All translations are projections over a single catalog (see catalog.go) and are safe for
concurrent use.

# Aliased FID

EF.CardAccess (in the master file) and EF.CVCA (in the eMRTD application) share FID 0x011C.
LookupFID resolves 0x011C to EF_CVCA. The Dispatcher re-identifies the content as EF.CardAccess
when its first byte is the ASN.1 SET tag 0x31.

# Usage Example: Dispatching a File

	d := ldsfile.NewDispatcher()

	f, err := d.ConstructFile(0x0101, lds.NewStream(bytes.NewReader(raw)))
	switch {
	case errors.Is(err, lds.ErrUnsupportedFileKind):
	    // Known file, no decoder yet.
	case errors.Is(err, lds.ErrUnknownFID):
	    // Not an LDS file.
	case err != nil:
	    // Decoder error, returned as is.
	}

	fmt.Println(lds.FIDToName(f.FID()))
*/
package lds
