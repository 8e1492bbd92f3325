// Package config loads the TOML settings shared by the CLI and the web
// server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/df07/go-swept-surface/pkg/geometry"
	"github.com/df07/go-swept-surface/pkg/renderer"
	"github.com/pelletier/go-toml/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultFile is read when no --config flag is given and it exists
const DefaultFile = "sweep.toml"

// Config is the whole settings file
type Config struct {
	Surface SurfaceConfig `toml:"surface"`
	Camera  CameraConfig  `toml:"camera"`
	Preview PreviewConfig `toml:"preview"`
	Server  ServerConfig  `toml:"server"`
}

// SurfaceConfig controls tessellation
type SurfaceConfig struct {
	Steps        int    `toml:"steps"`
	SectionSteps int    `toml:"section_steps"`
	Section      string `toml:"section"` // "nearest" or "blend"
}

// CameraConfig is the initial camera
type CameraConfig struct {
	Eye    [3]float64 `toml:"eye"`
	Ref    [3]float64 `toml:"ref"`
	Up     [3]float64 `toml:"up"`
	FOV    float64    `toml:"fov"`
	Aspect float64    `toml:"aspect"`
	Near   float64    `toml:"near"`
	Far    float64    `toml:"far"`
}

// PreviewConfig sizes the wireframe PNG
type PreviewConfig struct {
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	LineWidth float64 `toml:"line_width"`
	OutputDir string  `toml:"output_dir"`
}

// ServerConfig is used by the web server only
type ServerConfig struct {
	Port  int    `toml:"port"`
	Model string `toml:"model"`
}

// Default returns the built-in settings
func Default() Config {
	cam := renderer.DefaultCameraConfig()
	return Config{
		Surface: SurfaceConfig{Steps: geometry.DefaultSurfaceOptions().Steps, Section: "nearest"},
		Camera: CameraConfig{
			Eye:    toArray(cam.Eye),
			Ref:    toArray(cam.Ref),
			Up:     toArray(cam.Up),
			FOV:    cam.FOV,
			Aspect: cam.Aspect,
			Near:   cam.Near,
			Far:    cam.Far,
		},
		Preview: PreviewConfig{Width: 600, Height: 600, LineWidth: 1, OutputDir: "output"},
		Server:  ServerConfig{Port: 8080},
	}
}

// Decode reads TOML from r on top of the defaults. Unknown keys are errors.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %w\n%s", err, strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads filename. An empty filename loads DefaultFile if present and
// the defaults otherwise.
func Load(filename string) (Config, error) {
	if filename == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return Default(), nil
		}
		filename = DefaultFile
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Encode writes cfg as TOML
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks every field the rest of the program relies on. Errors
// name the offending key.
func (c Config) Validate() error {
	if c.Surface.Steps < 1 {
		return fmt.Errorf("config: surface.steps must be at least 1, got %d", c.Surface.Steps)
	}
	if c.Surface.SectionSteps < 0 {
		return fmt.Errorf("config: surface.section_steps must not be negative, got %d", c.Surface.SectionSteps)
	}
	if _, err := geometry.ParseSectionPolicy(c.Surface.Section); err != nil {
		return fmt.Errorf("config: surface.section: %w", err)
	}

	cam := c.Camera
	if cam.FOV < renderer.MinFOV || cam.FOV >= renderer.MaxFOV {
		return fmt.Errorf("config: camera.fov must be in [%g, %g), got %g", renderer.MinFOV, renderer.MaxFOV, cam.FOV)
	}
	if cam.Aspect <= 0 {
		return fmt.Errorf("config: camera.aspect must be positive, got %g", cam.Aspect)
	}
	if cam.Near <= 0 || cam.Far <= cam.Near {
		return fmt.Errorf("config: camera.near and camera.far must satisfy 0 < near < far, got %g and %g", cam.Near, cam.Far)
	}
	eye, ref, up := toVec(cam.Eye), toVec(cam.Ref), toVec(cam.Up)
	distance := r3.Norm(r3.Sub(eye, ref))
	if distance <= cam.Near || distance >= cam.Far {
		return fmt.Errorf("config: camera.eye must be between near and far from camera.ref, got distance %g", distance)
	}
	if r3.Norm(up) == 0 {
		return fmt.Errorf("config: camera.up must not be zero")
	}

	if c.Preview.Width < 1 || c.Preview.Height < 1 {
		return fmt.Errorf("config: preview.width and preview.height must be positive, got %dx%d", c.Preview.Width, c.Preview.Height)
	}
	if c.Preview.LineWidth <= 0 {
		return fmt.Errorf("config: preview.line_width must be positive, got %g", c.Preview.LineWidth)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// SurfaceOptions converts the surface section for the builder
func (c Config) SurfaceOptions() geometry.SurfaceOptions {
	policy, _ := geometry.ParseSectionPolicy(c.Surface.Section)
	return geometry.SurfaceOptions{
		Steps:        c.Surface.Steps,
		SectionSteps: c.Surface.SectionSteps,
		Section:      policy,
	}
}

// CameraConfig converts the camera section for the renderer
func (c Config) CameraConfig() renderer.CameraConfig {
	return renderer.CameraConfig{
		Eye:    toVec(c.Camera.Eye),
		Ref:    toVec(c.Camera.Ref),
		Up:     toVec(c.Camera.Up),
		FOV:    c.Camera.FOV,
		Aspect: c.Camera.Aspect,
		Near:   c.Camera.Near,
		Far:    c.Camera.Far,
	}
}

// Wireframe converts the preview section
func (c Config) Wireframe() renderer.Wireframe {
	wf := renderer.DefaultWireframe(c.Preview.Width, c.Preview.Height)
	wf.LineWidth = c.Preview.LineWidth
	return wf
}

func toVec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

func toArray(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
