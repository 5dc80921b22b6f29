package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gregLibert/mrtd/pkg/lds"
	"github.com/gregLibert/mrtd/pkg/tlv"
)

var (
	parseFID string
	parseHex string
)

var parseCmd = &cobra.Command{
	Use:   "parse [dump-file]",
	Short: "Decode an LDS file from a dump",
	Long: `Decode the file stored under a FID from raw bytes.

The bytes come from --hex, from the given file, or from standard input.

Examples:
  # EF.COM given in hex
  ldsctl parse --fid 011E --hex "60 16 5F01 04 30313037 5F36 06 303430303030 5C 04 6175 6E6F"

  # DG1 from a binary dump
  ldsctl parse --fid 0101 dg1.bin`,

	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fid, err := parseHexUint(parseFID, 16)
		if err != nil {
			return fmt.Errorf("--fid: %w", err)
		}

		raw, err := parseInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		return runParse(cmd.OutOrStdout(), uint16(fid), raw)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseFID, "fid", "", "file identifier the bytes were read from (hex)")
	parseCmd.Flags().StringVar(&parseHex, "hex", "", "file content in hex")
	parseCmd.MarkFlagRequired("fid")
}

func parseInput(stdin io.Reader, args []string) ([]byte, error) {
	switch {
	case parseHex != "":
		if len(args) > 0 {
			return nil, fmt.Errorf("--hex and a dump file are mutually exclusive")
		}
		return tlv.ParseHex(parseHex)
	case len(args) == 1:
		return os.ReadFile(args[0])
	default:
		return io.ReadAll(stdin)
	}
}

func runParse(w io.Writer, fid uint16, raw []byte) error {
	s := lds.NewStream(bytes.NewReader(raw))

	f, err := newDispatcher().ConstructFile(fid, s)
	if err != nil {
		return err
	}
	render(w, f)

	if rest, _ := io.Copy(io.Discard, s); rest > 0 {
		logger.Warn().Int64("bytes", rest).Str("fid", fmt.Sprintf("%04X", fid)).Msg("data left after the file")
	}
	return nil
}
