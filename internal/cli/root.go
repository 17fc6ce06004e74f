package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/cocomerge/internal/config"
	"github.com/roach88/cocomerge/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string // optional YAML settings file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cocomerge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cocomerge",
		Short: "cocomerge - merge COCO annotation datasets",
		Long: `Merge two COCO-format object-detection datasets into one.

The add dataset's images, categories and annotations are merged into the
base dataset: duplicate image records are kept once, categories new to base
get fresh ids and add annotations are rewritten to the unified category ids.
Image files of both datasets are copied into a single output directory.

Settings are resolved from built-in defaults, an optional --config YAML file,
COCOMERGE_* environment variables and flags, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Accept --base_json as well as --base-json.
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "YAML settings file")
	pf.String(config.FlagName(config.KeyLogLevel), config.Default(config.KeyLogLevel).(string), "log level (debug|info|warn|error)")
	pf.String(config.FlagName(config.KeyLogFormat), config.Default(config.KeyLogFormat).(string), "log format (text|json)")
	pf.String(config.FlagName(config.KeyLogFile), "", "also write logs to this file (rotated)")
	pf.String(config.FlagName(config.KeyLedger), "", "run ledger database (SQLite); empty disables the ledger")

	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// normalizeFlagName maps underscores to dashes.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadSettings resolves the settings for cmd from defaults, the config file,
// the environment and the flags cmd defines.
func loadSettings(opts *RootOptions, cmd *cobra.Command) (*config.Settings, error) {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	settings, err := config.Load(v, opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		settings.Log.Level = "debug"
	}
	return settings, nil
}

// newLogger builds the command logger. Logs go to stderr so stdout carries
// only command output.
func newLogger(cmd *cobra.Command, settings *config.Settings) (*slog.Logger, io.Closer, error) {
	return logging.New(cmd.ErrOrStderr(), settings.Log)
}
