package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keyweave/internal/config"
	"github.com/dshills/keyweave/internal/input/keymap"
	"github.com/dshills/keyweave/internal/logging"
	"github.com/dshills/keyweave/internal/storage"
)

// openStore opens the configured selection store.
func openStore(cmd *cobra.Command, cfg *config.Config) (*storage.Store, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		return nil, errors.New("the memory driver keeps nothing between runs")
	}
	dsn, err := cfg.StorageDSN()
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: cmd.ErrOrStderr(),
		Prefix: "keyweave",
	})
	return storage.Open(cfg.Storage.Driver, dsn, logger)
}

// layerName spells id using km, falling back to the number.
func layerName(km *keymap.Keymap, id int) string {
	if id >= 0 && id < len(km.Layers) {
		return km.Layers[id].Name
	}
	return fmt.Sprintf("#%d", id)
}

func newDefaultCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "default",
		Short: "Show or change the stored default layer",
	}
	cmd.AddCommand(newDefaultGetCmd(opts), newDefaultSetCmd(opts))
	return cmd
}

func newDefaultGetCmd(opts *rootOptions) *cobra.Command {
	var history int
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the stored default layer",
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
			store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			id, ok, err := store.DefaultLayer(cmd.Context())
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(w, layerName(km, id))
			} else {
				fmt.Fprintf(w, "%s (layout default, nothing stored)\n", km.Default)
			}

			if history <= 0 {
				return nil
			}
			entries, err := store.History(cmd.Context(), history)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(w, "  %s  %s\n", e.SelectedAt.Local().Format(time.DateTime), layerName(km, e.Layer))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "also list the last N selections")
	return cmd
}

func newDefaultSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <layer>",
		Short: "Store a base layer as the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			km, err := loadLayout(cfg)
			if err != nil {
				return err
			}
			id, ok := km.LayerID(args[0])
			if !ok {
				return fmt.Errorf("no layer %q in layout %s", args[0], km.Name)
			}
			if !km.Layers[id].Base {
				return fmt.Errorf("layer %s is not a base layer", args[0])
			}

			store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.SetDefaultLayer(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "default layer set to %s\n", args[0])
			return nil
		},
	}
}
