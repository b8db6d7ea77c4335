// Command keyweave runs the Preonic layer engine against a terminal, a MIDI
// controller or a replay script.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"github.com/dshills/keyweave/internal/config"
)

// Version information, set by ldflags during build.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
}

// load resolves the configuration for cmd from the config file, the
// environment and its flags.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Flags(), o.configPath)
}

// NewRootCmd builds the keyweave command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "keyweave",
		Short: "Keyboard layer engine for the Preonic layout",
		Long: `keyweave resolves key presses through a stack of layers, dual-role keys
and a tri-layer, then emits HID reports and MIDI tones.

Configuration is read from keyweave.toml in the user config directory or the
working directory, KEYWEAVE_* environment variables and flags.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: search keyweave.toml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newRunCmd(opts),
		newReplayCmd(opts),
		newLayoutCmd(opts),
		newDefaultCmd(opts),
		newSongsCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "keyweave %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", BuildDate)
		},
	}
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
