package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mxplusb/epsilon/src/config"
	"github.com/mxplusb/epsilon/src/render"
)

type rootOptions struct {
	configPath string
	logLevel   string
	frames     int
	validation bool

	cfg config.Config
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "epsilon",
		Short:         "Vulkan presentation chain and frame loop",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	flags.IntVar(&opts.frames, "frames", 0, "stop after this many presented frames")
	flags.BoolVar(&opts.validation, "validation", false, "enable the Khronos validation layer")

	cmd.AddCommand(newRunCmd(opts), newDevicesCmd(opts))
	return cmd
}

// load reads the config, applies flag overrides and installs the logger.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return report(err)
		}
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("frames") {
		cfg.MaxFrames = o.frames
	}
	if flags.Changed("validation") {
		cfg.Validation = o.validation
	}
	if err := cfg.Validate(); err != nil {
		return report(err)
	}
	o.cfg = cfg

	render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	return nil
}

// report prints err with its stack when debug logging is on.
func report(err error) error {
	if render.Logger().Enabled(context.Background(), slog.LevelDebug) {
		fmt.Fprintf(os.Stderr, "epsilon: %+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "epsilon: %v\n", err)
	}
	return err
}
