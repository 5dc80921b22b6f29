package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gregLibert/mrtd/pkg/lds"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup fid|tag|dg <value>",
	Short: "Translate a FID, ICAO tag or data group number",
	Long: `Resolve one identifier and print every projection of the file it names.

Examples:
  # By file identifier
  ldsctl lookup fid 0101

  # By ICAO tag
  ldsctl lookup tag 0x75

  # By data group number
  ldsctl lookup dg 14`,

	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"fid", "tag", "dg"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := lookupKind(args[0], args[1])
		if err != nil {
			return err
		}
		printKind(cmd.OutOrStdout(), kind)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func lookupKind(space, value string) (lds.FileKind, error) {
	switch strings.ToLower(space) {
	case "fid":
		fid, err := parseHexUint(value, 16)
		if err != nil {
			return 0, err
		}
		return lds.FIDToKind(uint16(fid))
	case "tag":
		tag, err := parseHexUint(value, 8)
		if err != nil {
			return 0, err
		}
		return lds.TagToKind(byte(tag))
	case "dg":
		n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(value), "DG"))
		if err != nil {
			return 0, fmt.Errorf("invalid data group number %q", value)
		}
		return lds.NumberToKind(n)
	default:
		return 0, fmt.Errorf("unknown identifier space %q (want fid, tag or dg)", space)
	}
}

// parseHexUint accepts "011E", "0x011E" or "0X011E".
func parseHexUint(s string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", s)
	}
	return v, nil
}

func printKind(w io.Writer, k lds.FileKind) {
	fmt.Fprintf(w, "Name:       %s\n", k)
	fmt.Fprintf(w, "FID:        %04X\n", k.FID())
	if tag, ok := k.Tag(); ok {
		fmt.Fprintf(w, "Tag:        %02X\n", tag)
	} else {
		fmt.Fprintln(w, "Tag:        none")
	}
	if n, ok := k.Number(); ok {
		fmt.Fprintf(w, "Data group: %d\n", n)
	}
	fmt.Fprintf(w, "Supported:  %t\n", k.Supported())

	for _, other := range lds.Kinds() {
		if other != k && other.FID() == k.FID() {
			fmt.Fprintf(w, "Shares FID: %s\n", other)
		}
	}
}
