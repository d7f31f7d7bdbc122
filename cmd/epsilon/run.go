package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mxplusb/epsilon/src/app"
	"github.com/mxplusb/epsilon/src/native/vkdriver"
	"github.com/mxplusb/epsilon/src/platform"
	"github.com/mxplusb/epsilon/src/render"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open a window and render until it is closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := run(cmd.Context(), opts); err != nil {
				return report(err)
			}
			return nil
		},
	}
}

func run(ctx context.Context, opts *rootOptions) (err error) {
	cfg := opts.cfg
	if err := platform.Init(); err != nil {
		return err
	}
	defer platform.Terminate()

	win, err := platform.NewWindow(platform.WindowConfig{
		Title:     cfg.Window.Title,
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Resizable: cfg.Window.Resizable,
	})
	if err != nil {
		return err
	}
	defer win.Destroy()

	a, err := app.New(vkdriver.New(), win, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); err == nil {
			err = closeErr
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = a.Run(ctx)
	log := render.Logger()
	log.Info("stopped", "frames", a.Scheduler().Frames(), "recreations", a.Scheduler().Recreations())
	if ctx.Err() != nil {
		log.Info("interrupted")
		return nil
	}
	return err
}
