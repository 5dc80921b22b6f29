/*
Package iso7816 implements the ISO/IEC 7816-4 commands needed to read the elementary files of an
ICAO LDS (e-passport) application.

This package provides the APDU (Application Protocol Data Unit) codec, Status Word (SW) analysis,
and a Client that turns "read file 0x0101" into the sequence of SELECT and READ BINARY commands the
chip expects.

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, but response data is still available (XX bytes).
  - 0x6CXX: Error, wrong length expectation (XX is the correct length).
  - 0x6282: End of file reached before Le bytes were read.
  - 0x6982: Security status not satisfied (the file needs BAC/PACE secure messaging).

# Reading an LDS File

ICAO Doc 9303 part 10 selects files by FID with P1='02' and P2='0C' (no response data), then reads
them with READ BINARY. The encoded length of a file is only known once its BER-TLV header has been
read, so ReadFile reads a short header first and the remainder in chunks.

	client := iso7816.NewClient(card)
	cls, _ := iso7816.NewClass(0x00)

	if _, err := client.Send(iso7816.SelectApplication(cls, iso7816.AIDeMRTD)); err != nil {
	    log.Fatal(err)
	}

	data, trace, err := client.ReadFile(cls, 0x011E, 0)
	if err != nil {
	    var se *iso7816.StatusError
	    if errors.As(err, &se) && se.Status == iso7816.SW_ERR_SECURITY_STATUS_NOT_SAT {
	        // Access control (BAC/PACE) required.
	    }
	}

	res, _ := iso7816.NewFileReadResult(trace)
	fmt.Println(res.Describe())
*/
package iso7816
