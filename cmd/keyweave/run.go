package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/keyweave/internal/app"
	"github.com/dshills/keyweave/internal/config"
	"github.com/dshills/keyweave/internal/source"
)

// latencyThreshold is the slowest key dispatch reported as healthy.
const latencyThreshold = 5 * time.Millisecond

func newRunCmd(opts *rootOptions) *cobra.Command {
	var record string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine against the configured input source",
		Long: `Run reads events from the configured source until it ends or is
interrupted.

The terminal source maps the keyboard onto the Preonic grid and takes over
the screen; logs are then written to keyweave.log in the config directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return run(cmd, cfg, record)
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "write the session to a replay script")
	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config, record string) error {
	var logOut io.Writer = cmd.ErrOrStderr()
	if cfg.Source.Kind == config.SourceTerminal {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("the terminal source needs an interactive terminal; use --source midi or --source script")
		}
		f, err := openLogFile()
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}

	rt, err := app.Build(cfg, app.Options{LogOutput: logOut})
	if err != nil {
		return err
	}
	defer rt.Close()

	src, err := rt.Source()
	if err != nil {
		return err
	}
	if t, ok := src.(*source.Terminal); ok {
		if err := t.Init(); err != nil {
			return err
		}
		defer t.Shutdown()
	}

	if record != "" {
		if err := rt.Recorder.Start(filepath.Base(record)); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := rt.Loop(src)
	runErr := loop.Run(ctx)

	snap := loop.Metrics().Snapshot()
	rt.Logger.Info("stopped",
		"events", snap.Events,
		"avg", snap.AvgEventTime,
		"max", snap.MaxEventTime,
		"timeouts", snap.Timeouts,
		"reloads", snap.Reloads,
		"uptime", snap.Uptime)
	if health := rt.Engine.Metrics().HealthCheck(latencyThreshold); !health.Healthy {
		rt.Logger.Warn("dispatcher unhealthy",
			"reason", health.Message,
			"dropped", health.DroppedEvents,
			"peak", health.PeakLatency)
	}

	if record != "" {
		if err := saveRecording(rt.Recorder, record); err != nil {
			return errors.Join(runErr, err)
		}
		rt.Logger.Info("session recorded", "path", record)
	}
	return runErr
}

func openLogFile() (*os.File, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	return os.OpenFile(filepath.Join(dir, "keyweave.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func saveRecording(rec *source.Recorder, path string) error {
	script := rec.Stop()
	if script == nil {
		return nil
	}
	data, err := script.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
