// Package config holds the application configuration loaded from YAML.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mxplusb/epsilon/src/native"
)

type Window struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
}

// Shaders are SPIR-V files for the demo pipeline. Without them frames are
// only cleared.
type Shaders struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
	Vertices uint32 `yaml:"vertices"`
}

type Config struct {
	AppName        string     `yaml:"app_name"`
	Window         Window     `yaml:"window"`
	FramesInFlight int        `yaml:"frames_in_flight"`
	PresentMode    string     `yaml:"present_mode"`
	Validation     bool       `yaml:"validation"`
	LogLevel       string     `yaml:"log_level"`
	ClearColor     [4]float32 `yaml:"clear_color"`
	Depth          bool       `yaml:"depth"`
	Shaders        Shaders    `yaml:"shaders"`
	// MaxFrames stops the loop after that many presented frames. Zero runs
	// until the window closes.
	MaxFrames int `yaml:"max_frames"`
}

var presentModes = map[string]native.PresentMode{
	"immediate":    native.PresentModeImmediate,
	"mailbox":      native.PresentModeMailbox,
	"fifo":         native.PresentModeFifo,
	"fifo_relaxed": native.PresentModeFifoRelaxed,
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func Default() Config {
	return Config{
		AppName: "epsilon",
		Window: Window{
			Title:     "epsilon",
			Width:     1280,
			Height:    720,
			Resizable: true,
		},
		FramesInFlight: 2,
		PresentMode:    "fifo",
		LogLevel:       "info",
		ClearColor:     [4]float32{0.02, 0.02, 0.05, 1},
		Shaders:        Shaders{Vertices: 3},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: opening file")
	}
	defer f.Close()
	return Decode(f)
}

// Parse is Decode for an in-memory document.
func Parse(data []byte) (Config, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a YAML document over the defaults. Unknown keys are errors.
// An empty document yields the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "config: decoding yaml")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return errors.Errorf("config: window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.FramesInFlight < 1:
		return errors.Errorf("config: frames_in_flight %d must be at least 1", c.FramesInFlight)
	case c.MaxFrames < 0:
		return errors.Errorf("config: max_frames %d must not be negative", c.MaxFrames)
	}
	if _, ok := presentModes[strings.ToLower(c.PresentMode)]; !ok {
		return errors.Errorf("config: unknown present_mode %q", c.PresentMode)
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return errors.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	for i, v := range c.ClearColor {
		if v < 0 || v > 1 {
			return errors.Errorf("config: clear_color[%d] = %v is outside [0, 1]", i, v)
		}
	}
	if (c.Shaders.Vertex == "") != (c.Shaders.Fragment == "") {
		return errors.New("config: shaders need both a vertex and a fragment stage")
	}
	return nil
}

func (c Config) NativePresentMode() native.PresentMode {
	if m, ok := presentModes[strings.ToLower(c.PresentMode)]; ok {
		return m
	}
	return native.PresentModeFifo
}

func (c Config) SlogLevel() slog.Level {
	if l, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return slog.LevelInfo
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(name string) (slog.Level, error) {
	l, ok := logLevels[strings.ToLower(name)]
	if !ok {
		return 0, errors.Errorf("config: unknown log level %q", name)
	}
	return l, nil
}
