package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/native"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, native.PresentModeFifo, cfg.NativePresentMode())
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestParse(t *testing.T) {
	for idx, tc := range []struct {
		name  string
		doc   string
		check func(t *testing.T, cfg Config)
		err   string
	}{
		{
			name: "empty document keeps defaults",
			doc:  "",
			check: func(t *testing.T, cfg Config) {
				require.Equal(t, Default(), cfg)
			},
		},
		{
			name: "overrides merge over defaults",
			doc: `
app_name: demo
window:
  width: 640
  height: 480
present_mode: Mailbox
frames_in_flight: 3
log_level: debug
clear_color: [0.1, 0.2, 0.3, 1]
depth: true
max_frames: 10
`,
			check: func(t *testing.T, cfg Config) {
				require.Equal(t, "demo", cfg.AppName)
				require.Equal(t, 640, cfg.Window.Width)
				require.Equal(t, 480, cfg.Window.Height)
				require.Equal(t, "epsilon", cfg.Window.Title)
				require.Equal(t, 3, cfg.FramesInFlight)
				require.Equal(t, native.PresentModeMailbox, cfg.NativePresentMode())
				require.Equal(t, slog.LevelDebug, cfg.SlogLevel())
				require.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, cfg.ClearColor)
				require.True(t, cfg.Depth)
				require.Equal(t, 10, cfg.MaxFrames)
			},
		},
		{
			name: "shader pair",
			doc:  "shaders: {vertex: tri.vert.spv, fragment: tri.frag.spv}",
			check: func(t *testing.T, cfg Config) {
				require.Equal(t, "tri.vert.spv", cfg.Shaders.Vertex)
				require.Equal(t, uint32(3), cfg.Shaders.Vertices)
			},
		},
		{name: "unknown key", doc: "colour: red", err: "decoding yaml"},
		{name: "zero width", doc: "window: {width: 0}", err: "window size"},
		{name: "no frames in flight", doc: "frames_in_flight: 0", err: "frames_in_flight"},
		{name: "negative max frames", doc: "max_frames: -1", err: "max_frames"},
		{name: "bad present mode", doc: "present_mode: vsync", err: "present_mode"},
		{name: "bad log level", doc: "log_level: loud", err: "log_level"},
		{name: "clear color out of range", doc: "clear_color: [0, 0, 2, 1]", err: "clear_color[2]"},
		{name: "half a shader pair", doc: "shaders: {vertex: tri.vert.spv}", err: "both a vertex and a fragment"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.doc))
			if tc.err != "" {
				require.Error(t, err, "case %d", idx)
				require.Contains(t, err.Error(), tc.err)
				return
			}
			require.NoError(t, err, "case %d", idx)
			tc.check(t, cfg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epsilon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: {title: loaded}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "loaded", cfg.Window.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "opening file")
}

func TestParseLogLevel(t *testing.T) {
	l, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, l)

	_, err = ParseLogLevel("chatty")
	require.Error(t, err)
}
