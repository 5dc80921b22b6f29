package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gregLibert/mrtd/internal/config"
	"github.com/gregLibert/mrtd/internal/observability"
	"github.com/gregLibert/mrtd/pkg/lds"
	"github.com/gregLibert/mrtd/pkg/ldsfile"
)

const appName = "ldsctl"

var (
	cfgFile string
	cfg     *config.Config
	logger  = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Identify and decode the files of an ICAO e-passport chip",
	Long: `ldsctl maps the file identifiers, ICAO tags and data group numbers of the
Logical Data Structure (ICAO Doc 9303) onto each other, and decodes LDS files
read from a chip or from a dump.

Commands:
  lookup     Translate a FID, tag or data group number
  catalog    List every known LDS file
  parse      Decode a file from a dump
  read       Read and decode the files of a chip on a PC/SC reader`,
	Version:      "0.1.0-dev",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c
		logger = observability.InitLogger(appName, c.LogLevel)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ldsctl.yaml in ., $HOME/.ldsctl or /etc/ldsctl)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("output", "o", config.OutputText, "output format (text, hex)")
}

// newDispatcher returns the dispatcher used by every command.
func newDispatcher() *lds.Dispatcher {
	return ldsfile.NewDispatcher(lds.WithLogger(logger))
}

// render prints a decoded file in the configured output format.
func render(w io.Writer, f lds.File) {
	if cfg != nil && cfg.Output == config.OutputHex {
		fmt.Fprintf(w, "%s %04X %X\n", f.Kind(), f.FID(), f.Encoded())
		return
	}
	if d, ok := f.(ldsfile.Describer); ok {
		fmt.Fprintln(w, d.Describe())
		return
	}
	fmt.Fprintf(w, "=== %s (FID %04X, %d bytes) ===\n", f.Kind(), f.FID(), len(f.Encoded()))
}
