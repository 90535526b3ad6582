// Package config handles topomap configuration loading and management.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Faultbox/topomap/pkg/mesh"
)

// Config holds all topomap settings.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Render   RenderConfig   `yaml:"render"`
	Limits   LimitsConfig   `yaml:"limits"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PipelineConfig holds the contour generation settings.
type PipelineConfig struct {
	Levels  int           `yaml:"levels"`  // Number of level intervals
	Orient  string        `yaml:"orient"`  // axis, legacy-x or none
	Timeout time.Duration `yaml:"timeout"` // 0 disables the deadline
}

// RenderConfig holds output settings.
type RenderConfig struct {
	Format        string  `yaml:"format"` // svg, png or pdf
	LineWidth     float64 `yaml:"line_width"`
	PNGScale      float64 `yaml:"png_scale"`
	ThumbnailSize int     `yaml:"thumbnail_size"`
}

// LimitsConfig holds request validation bounds.
type LimitsConfig struct {
	MinLevels   int     `yaml:"min_levels"`
	MaxLevels   int     `yaml:"max_levels"`
	MaxScale    float64 `yaml:"max_scale"`
	MaxFileSize int64   `yaml:"max_file_size"` // bytes
	MaxInflated int64   `yaml:"max_inflated"`  // bytes of decompressed mesh arrays
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Levels:  20,
			Orient:  "axis",
			Timeout: 5 * time.Minute,
		},
		Render: RenderConfig{
			Format:        "svg",
			LineWidth:     1.0,
			PNGScale:      1.0,
			ThumbnailSize: 200,
		},
		Limits: LimitsConfig{
			MinLevels:   5,
			MaxLevels:   50,
			MaxScale:    10,
			MaxFileSize: 100 * 1024 * 1024,
			MaxInflated: 512 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

var outputFormats = []string{"svg", "png", "pdf"}

// Validate checks that the settings are usable together.
func (c *Config) Validate() error {
	l := c.Limits
	if l.MinLevels < 1 || l.MaxLevels < l.MinLevels {
		return fmt.Errorf("limits: invalid level range %d..%d", l.MinLevels, l.MaxLevels)
	}
	if l.MaxScale <= 0 {
		return fmt.Errorf("limits: max_scale must be positive, got %v", l.MaxScale)
	}
	if l.MaxFileSize <= 0 {
		return fmt.Errorf("limits: max_file_size must be positive, got %d", l.MaxFileSize)
	}
	if l.MaxInflated <= 0 {
		return fmt.Errorf("limits: max_inflated must be positive, got %d", l.MaxInflated)
	}

	p := c.Pipeline
	if p.Levels < l.MinLevels || p.Levels > l.MaxLevels {
		return fmt.Errorf("pipeline: levels %d outside %d..%d", p.Levels, l.MinLevels, l.MaxLevels)
	}
	if _, err := mesh.ParseOrientStrategy(p.Orient); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("pipeline: negative timeout %v", p.Timeout)
	}

	r := c.Render
	if !isOutputFormat(r.Format) {
		return fmt.Errorf("render: unknown format %q (want %s)", r.Format, strings.Join(outputFormats, ", "))
	}
	if r.LineWidth <= 0 {
		return fmt.Errorf("render: line_width must be positive, got %v", r.LineWidth)
	}
	if r.PNGScale <= 0 {
		return fmt.Errorf("render: png_scale must be positive, got %v", r.PNGScale)
	}
	if r.ThumbnailSize <= 20 {
		return fmt.Errorf("render: thumbnail_size %d is too small", r.ThumbnailSize)
	}
	return nil
}

func isOutputFormat(f string) bool {
	for _, known := range outputFormats {
		if strings.EqualFold(f, known) {
			return true
		}
	}
	return false
}
