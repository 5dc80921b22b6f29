package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gregLibert/mrtd/pkg/lds"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List every known LDS file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCatalog(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func printCatalog(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFID\tTAG\tDG\tSUPPORTED")

	for _, k := range lds.Kinds() {
		tag, dg := "-", "-"
		if t, ok := k.Tag(); ok {
			tag = fmt.Sprintf("%02X", t)
		}
		if n, ok := k.Number(); ok {
			dg = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(w, "%s\t%04X\t%s\t%s\t%t\n", k, k.FID(), tag, dg, k.Supported())
	}

	return w.Flush()
}
