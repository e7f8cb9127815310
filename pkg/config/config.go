// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/x264go/pkg/orchestrator"
	"github.com/user/x264go/pkg/ports"
	"github.com/user/x264go/pkg/x264"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents a full encode job.
type Config struct {
	// Input/Output
	Input      string `yaml:"input"`
	Frames     int    `yaml:"frames"`
	Font       string `yaml:"font"`
	OutputPath string `yaml:"output"`
	Container  string `yaml:"container"`

	// Geometry. Zero keeps the source value.
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`

	// Encoder
	Colorspace  string            `yaml:"colorspace"`
	Preset      string            `yaml:"preset"`
	Tune        string            `yaml:"tune"`
	Profile     string            `yaml:"profile"`
	CRF         float64           `yaml:"crf"`
	Bitrate     int               `yaml:"bitrate"`
	Keyint      int               `yaml:"keyint"`
	Threads     int               `yaml:"threads"`
	BFrames     int               `yaml:"bframes"`
	FullRange   bool              `yaml:"full_range"`
	ColorMatrix int               `yaml:"color_matrix"`
	PsyRD       float64           `yaml:"psy_rd"`
	PsyTrellis  float64           `yaml:"psy_trellis"`
	Options     map[string]string `yaml:"options"`

	// Debug
	Debug           bool   `yaml:"debug"`
	DebugDir        string `yaml:"debug_dir"`
	DumpSourceEvery int    `yaml:"dump_source_every"`

	// Reporting
	SummaryPath string `yaml:"summary"`
	LogLevel    string `yaml:"log_level"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Input:      "testsrc",
		OutputPath: "out.mp4",

		Colorspace: "i420",
		Preset:     "medium",
		CRF:        23,

		DebugDir: "./debug",
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the encoder would reject or
// misinterpret.
func (c Config) Validate() error {
	var problems []string

	if c.Input == "" {
		problems = append(problems, "input is required")
	}
	if c.OutputPath == "" {
		problems = append(problems, "output is required")
	}
	if c.Container != "" {
		if _, ok := ports.ParseContainer(c.Container); !ok {
			problems = append(problems, fmt.Sprintf("unknown container %q", c.Container))
		}
	}
	if c.Width < 0 || c.Height < 0 {
		problems = append(problems, fmt.Sprintf("negative size %dx%d", c.Width, c.Height))
	}
	if c.FPS < 0 {
		problems = append(problems, fmt.Sprintf("negative fps %g", c.FPS))
	}
	if c.Frames < 0 {
		problems = append(problems, fmt.Sprintf("negative frame count %d", c.Frames))
	}
	if c.CRF < 0 || c.CRF > 51 {
		problems = append(problems, fmt.Sprintf("crf %g outside 0-51", c.CRF))
	}
	if c.Bitrate < 0 {
		problems = append(problems, fmt.Sprintf("negative bitrate %d", c.Bitrate))
	}

	if c.Colorspace != "" {
		csp, err := x264.ParseColorspace(c.Colorspace)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			problems = append(problems, checkSubsampling(csp, c.Width, c.Height)...)
		}
	}

	if c.Preset != "" && !contains(x264.Presets, c.Preset) {
		problems = append(problems, fmt.Sprintf("unknown preset %q", c.Preset))
	}
	if c.Profile != "" && !contains(x264.Profiles, c.Profile) {
		problems = append(problems, fmt.Sprintf("unknown profile %q", c.Profile))
	}
	for _, tune := range strings.Split(c.Tune, ",") {
		if tune = strings.TrimSpace(tune); tune != "" && !contains(x264.Tunes, tune) {
			problems = append(problems, fmt.Sprintf("unknown tune %q", tune))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// checkSubsampling rejects odd dimensions for colorspaces whose chroma is
// subsampled in that direction. Semi-planar chroma interleaves two samples
// per pair of luma columns, so its plane scale alone hides the horizontal
// subsampling.
func checkSubsampling(csp x264.Colorspace, width, height int) []string {
	if csp.Planes() < 2 {
		return nil
	}
	var problems []string
	base := csp.Base()
	if base != x264.CSPI444 && base != x264.CSPYV24 && width%2 != 0 {
		problems = append(problems, fmt.Sprintf("%s needs an even width, got %d", csp, width))
	}
	if _, h := x264.PlaneScale(csp, 1); h < 256 && height%2 != 0 {
		problems = append(problems, fmt.Sprintf("%s needs an even height, got %d", csp, height))
	}
	return problems
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// EncoderOptions converts the encoder fields to ports.EncoderOptions.
func (c Config) EncoderOptions() ports.EncoderOptions {
	return ports.EncoderOptions{
		Preset:      c.Preset,
		Tune:        c.Tune,
		Profile:     c.Profile,
		Quality:     c.CRF,
		Bitrate:     c.Bitrate,
		Keyint:      c.Keyint,
		Threads:     c.Threads,
		BFrames:     c.BFrames,
		Colorspace:  c.Colorspace,
		FullRange:   c.FullRange,
		ColorMatrix: c.ColorMatrix,
		PsyRD:       c.PsyRD,
		PsyTrellis:  c.PsyTrellis,
		Options:     c.Options,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	container, _ := ports.ParseContainer(c.Container)
	dump := 0
	if c.Debug {
		dump = c.DumpSourceEvery
	}
	return orchestrator.Config{
		Input:           c.Input,
		OutputPath:      c.OutputPath,
		Container:       container,
		Width:           c.Width,
		Height:          c.Height,
		FPS:             c.FPS,
		Frames:          c.Frames,
		Options:         c.EncoderOptions(),
		DumpSourceEvery: dump,
		SummaryPath:     c.SummaryPath,
	}
}
