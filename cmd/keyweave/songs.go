package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/logging"
)

func newSongsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "songs",
		Short: "List or play the confirmation songs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the built-in songs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.load(cmd)
				if err != nil {
					return err
				}
				for _, name := range audio.SongNames() {
					notes, _ := audio.Song(name)
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %2d notes  %s\n", name, len(notes), audio.Duration(notes, cfg.Audio.BPM))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "play <name>",
			Short: "Play a song on the MIDI output port",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.load(cmd)
				if err != nil {
					return err
				}
				notes, ok := audio.Song(args[0])
				if !ok {
					return fmt.Errorf("unknown song %q", args[0])
				}
				if cfg.Audio.MIDIPort == "" {
					return errors.New("no MIDI output port; set audio.midi_port or --midi-out")
				}
				logger := logging.New(logging.Config{Level: cfg.LogLevel(), Output: cmd.ErrOrStderr(), Prefix: "keyweave"})
				tone, err := audio.OpenMIDITone(cfg.Audio.MIDIPort, uint8(cfg.Audio.Channel), cfg.Audio.BPM, logger)
				if err != nil {
					return err
				}
				defer tone.Close()

				tone.PlaySequence(notes)
				select {
				case <-time.After(audio.Duration(notes, cfg.Audio.BPM)):
				case <-cmd.Context().Done():
				}
				return nil
			},
		},
	)
	return cmd
}
