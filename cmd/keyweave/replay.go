package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keyweave/internal/app"
	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/config"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/source"
)

// replayEpoch anchors script time so output does not depend on the clock.
var replayEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func newReplayCmd(opts *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Replay a script and print what the engine emitted",
		Long: `Replay feeds a YAML script through the engine on a virtual clock and
prints the HID reports, tones and layer changes it produced. Nothing is
written to the HID device, the MIDI port or storage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			script, err := source.LoadScript(args[0])
			if err != nil {
				return err
			}
			var logOut io.Writer = io.Discard
			if verbose {
				logOut = cmd.ErrOrStderr()
			}
			return replay(cmd.OutOrStdout(), cfg, script, logOut)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "write engine logs to stderr")
	return cmd
}

func replay(w io.Writer, cfg *config.Config, script *source.Script, logOut io.Writer) error {
	cfg.Storage.Driver = config.DriverMemory
	cfg.Layout.Watch = false

	out := hid.NewRecorder()
	tone := audio.NewRecorder()
	rt, err := app.Build(cfg, app.Options{LogOutput: logOut, HID: out, Tone: tone})
	if err != nil {
		return err
	}
	defer rt.Close()

	var layers []string
	rt.Engine.OnStatus(func(st app.Status) {
		line := st.String()
		if len(layers) == 0 || layers[len(layers)-1] != line {
			layers = append(layers, line)
		}
	})

	events := script.Events(replayEpoch)
	app.Replay(rt.Engine, events)

	fmt.Fprintf(w, "script %s: %d events over %s\n", script.Name, len(events), script.Duration())
	printSection(w, "hid", out.Events())
	printSection(w, "tone", tone.Events())
	printSection(w, "layers", layers)
	fmt.Fprintf(w, "final: %s\n", rt.Engine.Status())
	return nil
}

func printSection(w io.Writer, title string, lines []string) {
	fmt.Fprintf(w, "%s (%d):\n", title, len(lines))
	for _, line := range lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
