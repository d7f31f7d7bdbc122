package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/native/nativetest"
	"github.com/mxplusb/epsilon/src/render"
)

// execute runs the root command with a no-op subcommand so only flag and
// config handling is exercised.
func execute(t *testing.T, args ...string) (*rootOptions, error) {
	t.Helper()
	t.Cleanup(func() { render.SetLogger(nil) })
	opts := &rootOptions{}
	root := newRootCmd(opts)
	root.AddCommand(&cobra.Command{Use: "noop", RunE: func(*cobra.Command, []string) error { return nil }})
	root.SetArgs(append([]string{"noop"}, args...))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return opts, root.Execute()
}

func TestRootLoadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epsilon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_name: demo\nmax_frames: 2\nlog_level: warn\n"), 0o600))

	for idx, tc := range []struct {
		name   string
		args   []string
		frames int
		level  string
		valid  bool
		err    bool
	}{
		{name: "defaults", frames: 0, level: "info"},
		{name: "file", args: []string{"--config", path}, frames: 2, level: "warn"},
		{name: "flags override file", args: []string{"-c", path, "--frames", "9", "--log-level", "debug", "--validation"}, frames: 9, level: "debug", valid: true},
		{name: "bad level", args: []string{"--log-level", "loud"}, err: true},
		{name: "negative frames", args: []string{"--frames=-3"}, err: true},
		{name: "missing file", args: []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, err: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := execute(t, tc.args...)
			if tc.err {
				require.Error(t, err, "case %d", idx)
				return
			}
			require.NoError(t, err, "case %d", idx)
			require.Equal(t, tc.frames, opts.cfg.MaxFrames)
			require.Equal(t, tc.level, opts.cfg.LogLevel)
			require.Equal(t, tc.valid, opts.cfg.Validation)
		})
	}
}

func TestListDevices(t *testing.T) {
	gpu := nativetest.New()
	integrated := nativetest.DefaultAdapter()
	integrated.Name = "nativetest integrated"
	integrated.Type = native.PhysicalDeviceTypeIntegratedGPU
	gpu.Adapters = append(gpu.Adapters, integrated)

	inst, err := render.NewInstance(gpu, render.InstanceConfig{ApplicationName: "test"}).Get()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, listDevices(&out, inst, true))
	text := out.String()
	require.Contains(t, text, "0: nativetest discrete (discrete")
	require.Contains(t, text, "1: nativetest integrated (integrated")
	require.Contains(t, text, "queue family 1: 2 queues, flags 0x4")
	require.Contains(t, text, "   VK_KHR_swapchain\n")

	inst.Release()
	require.Empty(t, gpu.Leaks())
}
