// Package config loads the renderer's TOML configuration.
package config

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/vkngwrapper/vulkan-renderer/internal/frame"
	"github.com/vkngwrapper/vulkan-renderer/internal/shader"
)

type Config struct {
	Window   Window   `toml:"window"`
	Renderer Renderer `toml:"renderer"`
	Log      Log      `toml:"log"`
	Models   []Model  `toml:"models"`
}

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type Renderer struct {
	MaxFramesInFlight int       `toml:"max_frames_in_flight"`
	Validation        bool      `toml:"validation"`
	ClearColor        []float32 `toml:"clear_color"`
	VertexShader      string    `toml:"vertex_shader"`
	FragmentShader    string    `toml:"fragment_shader"`
}

type Log struct {
	Level string `toml:"level"`
}

// Model is an OBJ file drawn after the built-in quads, in a single color.
type Model struct {
	Path  string    `toml:"path"`
	Color []float32 `toml:"color"`
}

func Default() Config {
	return Config{
		Window: Window{
			Title:  "Vulkan",
			Width:  800,
			Height: 600,
		},
		Renderer: Renderer{
			MaxFramesInFlight: frame.DefaultMaxFramesInFlight,
			Validation:        true,
			ClearColor:        []float32{0, 0, 0, 1},
			VertexShader:      shader.VertexPath,
			FragmentShader:    shader.FragmentPath,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	err = toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "decode config %s", path)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Window.Width < 1 || c.Window.Height < 1 {
		return errors.Newf("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.MaxFramesInFlight < 1 {
		return errors.Newf("max_frames_in_flight must be at least 1, got %d", c.Renderer.MaxFramesInFlight)
	}
	if len(c.Renderer.ClearColor) != 4 {
		return errors.Newf("clear_color needs 4 components, got %d", len(c.Renderer.ClearColor))
	}
	if c.Renderer.VertexShader == "" || c.Renderer.FragmentShader == "" {
		return errors.New("shader paths must not be empty")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log level %q", c.Log.Level)
	}
	for i, m := range c.Models {
		if m.Path == "" {
			return errors.Newf("model %d has no path", i)
		}
		if m.Color != nil && len(m.Color) != 3 {
			return errors.Newf("model %s color needs 3 components, got %d", m.Path, len(m.Color))
		}
	}
	return nil
}
