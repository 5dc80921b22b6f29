package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gregLibert/mrtd/pkg/iso7816"
)

// Config holds the ldsctl settings.
//
// Sources, by increasing precedence: defaults, ldsctl.yaml, LDSCTL_* environment variables,
// command line flags.
type Config struct {
	Reader    int    `mapstructure:"reader"`
	CLA       string `mapstructure:"cla"`
	ChunkSize int    `mapstructure:"chunk_size"`
	LogLevel  string `mapstructure:"log_level"`
	Output    string `mapstructure:"output"`
}

// Output formats.
const (
	OutputText = "text"
	OutputHex  = "hex"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"reader":     "reader",
	"cla":        "cla",
	"chunk-size": "chunk_size",
	"log-level":  "log_level",
	"output":     "output",
}

// Load reads the configuration. path names an explicit config file; when empty, ldsctl.yaml is
// searched in the working directory, $HOME/.ldsctl and /etc/ldsctl, and a missing file is not
// an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ldsctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ldsctl")
		v.AddConfigPath("/etc/ldsctl")
	}

	v.SetDefault("reader", 0)
	v.SetDefault("cla", "00")
	v.SetDefault("chunk_size", iso7816.DefaultChunkSize)
	v.SetDefault("log_level", "info")
	v.SetDefault("output", OutputText)

	v.SetEnvPrefix("LDSCTL")
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Class(); err != nil {
		return err
	}
	if c.ChunkSize <= 0 || c.ChunkSize > 0x100 {
		return fmt.Errorf("chunk_size %d out of range 1..256", c.ChunkSize)
	}
	if c.Reader < 0 {
		return fmt.Errorf("reader index %d is negative", c.Reader)
	}
	switch c.Output {
	case OutputText, OutputHex:
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", c.Output, OutputText, OutputHex)
	}
	return nil
}

// Class parses the CLA setting, given in hex ("00" or "0x0C").
func (c *Config) Class() (iso7816.Class, error) {
	raw, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(c.CLA), "0x"), 16, 8)
	if err != nil {
		return iso7816.Class{}, fmt.Errorf("cla %q: %w", c.CLA, err)
	}
	cla, err := iso7816.NewClass(byte(raw))
	if err != nil {
		return iso7816.Class{}, fmt.Errorf("cla %q: %w", c.CLA, err)
	}
	return cla, nil
}
