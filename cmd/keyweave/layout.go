package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keyweave/internal/app"
	"github.com/dshills/keyweave/internal/config"
	"github.com/dshills/keyweave/internal/input/keymap"
)

// loadLayout returns the layout named by cfg, or the built-in one.
func loadLayout(cfg *config.Config) (*keymap.Keymap, error) {
	if cfg.Layout.File == "" {
		return keymap.Default(), nil
	}
	return keymap.NewLoader().LoadFile(cfg.Layout.File)
}

func newLayoutCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect and check layouts",
	}
	cmd.AddCommand(
		newLayoutShowCmd(opts),
		newLayoutValidateCmd(opts),
		newLayoutExportCmd(opts),
	)
	return cmd
}

func newLayoutShowCmd(opts *rootOptions) *cobra.Command {
	var layers []string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Draw the layers of the layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			km, err := loadLayout(cfg)
			if err != nil {
				return err
			}
			if len(layers) == 0 {
				layers = km.LayerNames()
			}
			styles := keymap.DefaultStyles()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", km.Name, km.Source)
			for _, name := range layers {
				table, err := keymap.Render(km, name, styles)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), table)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&layers, "layer", "l", nil, "layers to draw (default: all)")
	return cmd
}

func newLayoutValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a layout file",
		Long: `Validate parses every key of a layout file and checks that the
LOWER, RAISE and ADJUST layers the engine binds to are present.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Layout.File = args[0]
			}
			if cfg.Layout.File == "" {
				return errors.New("no layout file given")
			}
			km, err := loadLayout(cfg)
			if err != nil {
				return err
			}
			if _, err := app.Bind(km, app.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d layers)\n", cfg.Layout.File, len(km.Layers))
			return nil
		},
	}
}

func newLayoutExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the layout as TOML",
		Long:  `Export writes the current layout, the built-in one by default, to a file or stdout.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			km, err := loadLayout(cfg)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return km.SaveFile(args[0])
			}
			data, err := km.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
