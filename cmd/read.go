package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ebfe/scard"
	"github.com/spf13/cobra"

	"github.com/gregLibert/mrtd/pkg/iso7816"
	"github.com/gregLibert/mrtd/pkg/lds"
	"github.com/gregLibert/mrtd/pkg/ldsfile"
)

const fidMF = 0x3F00

var (
	readFIDs  []string
	readTrace bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read and decode the files of a chip on a PC/SC reader",
	Long: `Read the LDS files of an e-passport chip and decode them.

Without --fid, EF.CardAccess is read from the master file, then the eMRTD
application is selected and EF.COM, every data group it lists, EF.SOD and
EF.CVCA are read.

Secure messaging is not established. Chips protected by BAC or PACE answer
"security status not satisfied" (6982) for the protected files, which is
reported per file.

Examples:
  # Everything readable, with the APDU exchange of each file
  ldsctl read --trace

  # Two files from the second reader
  ldsctl read --reader 1 --fid 011E --fid 0101`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fids, err := parseFIDs(readFIDs)
		if err != nil {
			return err
		}
		cla, err := cfg.Class()
		if err != nil {
			return err
		}

		ctx, card, err := connectToCard(cfg.Reader)
		if err != nil {
			return err
		}
		defer func() {
			if err := card.Disconnect(scard.LeaveCard); err != nil {
				logger.Warn().Err(err).Msg("failed to disconnect card")
			}
			if err := ctx.Release(); err != nil {
				logger.Warn().Err(err).Msg("failed to release context")
			}
		}()

		client := iso7816.NewClient(card)
		client.Logger = logger

		r := &chipReader{
			client:     client,
			cla:        cla,
			chunk:      cfg.ChunkSize,
			dispatcher: newDispatcher(),
			out:        cmd.OutOrStdout(),
			trace:      readTrace,
		}
		return r.run(fids)
	},
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().Int("reader", 0, "index of the PC/SC reader")
	readCmd.Flags().String("cla", "00", "class byte (hex)")
	readCmd.Flags().Int("chunk-size", iso7816.DefaultChunkSize, "READ BINARY length")
	readCmd.Flags().StringSliceVar(&readFIDs, "fid", nil, "read only these files of the eMRTD application (hex)")
	readCmd.Flags().BoolVar(&readTrace, "trace", false, "print the APDU exchange of every file")
}

func parseFIDs(values []string) ([]uint16, error) {
	fids := make([]uint16, 0, len(values))
	for _, v := range values {
		fid, err := parseHexUint(v, 16)
		if err != nil {
			return nil, fmt.Errorf("--fid: %w", err)
		}
		fids = append(fids, uint16(fid))
	}
	return fids, nil
}

// connectToCard handles the PC/SC context establishment and reader connection.
func connectToCard(index int) (*scard.Context, *scard.Card, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, nil, fmt.Errorf("establishing context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || index >= len(readers) {
		if relErr := ctx.Release(); relErr != nil {
			logger.Warn().Err(relErr).Msg("failed to release context during error handling")
		}
		if err != nil {
			return nil, nil, fmt.Errorf("listing readers: %w", err)
		}
		return nil, nil, fmt.Errorf("no smart card reader at index %d (%d found)", index, len(readers))
	}

	logger.Info().Str("reader", readers[index]).Msg("using reader")

	// Either protocol; forcing one fails with "Parameter Incorrect" on some readers
	card, err := ctx.Connect(readers[index], scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		if relErr := ctx.Release(); relErr != nil {
			logger.Warn().Err(relErr).Msg("failed to release context during error handling")
		}
		return nil, nil, fmt.Errorf("connecting to card: %w", err)
	}

	return ctx, card, nil
}

// chipReader walks the LDS of one chip.
type chipReader struct {
	client     *iso7816.Client
	cla        iso7816.Class
	chunk      int
	dispatcher *lds.Dispatcher
	out        io.Writer
	trace      bool
}

func (r *chipReader) run(fids []uint16) error {
	if len(fids) > 0 {
		if err := r.selectApplication(); err != nil {
			return err
		}
		for _, fid := range fids {
			r.read(fid)
		}
		return nil
	}

	if _, err := r.client.Select(iso7816.SelectMF(r.cla), fidMF); err != nil {
		logger.Warn().Err(err).Msg("master file not selectable, skipping EF.CardAccess")
	} else {
		r.read(lds.FIDCardAccessOrCVCA)
	}

	if err := r.selectApplication(); err != nil {
		return err
	}

	com, ok := r.read(lds.EF_COM.FID()).(*ldsfile.COMFile)
	if !ok {
		return errors.New("EF.COM unavailable, data groups unknown")
	}
	kinds, err := com.DataGroups()
	if err != nil {
		logger.Warn().Err(err).Msg("EF.COM lists unknown tags")
	}

	cvcaFID, eac := lds.FIDCardAccessOrCVCA, false
	for _, k := range kinds {
		if !k.Supported() {
			fmt.Fprintf(r.out, "=== %s (FID %04X) === skipped: not supported\n", k, k.FID())
			continue
		}
		f := r.read(k.FID())
		if dg14, ok := f.(*ldsfile.SecurityInfosFile); ok && k == lds.EF_DG14 {
			eac = true
			if fid, ok := dg14.CVCAFileID(); ok {
				cvcaFID = fid
			}
		}
	}

	r.read(lds.EF_SOD.FID())
	if eac {
		r.read(cvcaFID)
	}
	return nil
}

func (r *chipReader) selectApplication() error {
	if _, err := r.client.Select(iso7816.SelectApplication(r.cla, iso7816.AIDeMRTD), 0); err != nil {
		return fmt.Errorf("selecting the eMRTD application: %w", err)
	}
	return nil
}

// read fetches and decodes one file. Failures are reported and yield nil.
func (r *chipReader) read(fid uint16) lds.File {
	name := lds.FIDToName(fid)
	if fid == lds.FIDCardAccessOrCVCA {
		name = "EF_CardAccess/EF_CVCA"
	}

	var (
		data  []byte
		trace iso7816.Trace
		err   error
	)
	if kind, ok := lds.LookupFID(fid); ok && hasTag(kind) {
		data, trace, err = r.client.ReadFile(r.cla, fid, r.chunk)
	} else {
		data, trace, err = r.client.ReadAll(r.cla, fid, r.chunk)
	}

	if r.trace {
		if res, rerr := iso7816.NewFileReadResult(trace); rerr == nil {
			fmt.Fprintln(r.out, res.Describe())
		}
	}

	switch {
	case iso7816.IsAccessDenied(err):
		fmt.Fprintf(r.out, "=== %s (FID %04X) === access denied: secure messaging required\n", name, fid)
		return nil
	case err != nil:
		fmt.Fprintf(r.out, "=== %s (FID %04X) === read failed: %v\n", name, fid, err)
		return nil
	}

	f, err := r.dispatcher.ConstructFile(fid, lds.NewStream(bytes.NewReader(data)))
	if err != nil {
		fmt.Fprintf(r.out, "=== %s (FID %04X) === decoding failed: %v\n", name, fid, err)
		return nil
	}
	render(r.out, f)
	return f
}

func hasTag(k lds.FileKind) bool {
	_, ok := k.Tag()
	return ok
}
