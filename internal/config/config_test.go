package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test pipeline defaults
	if cfg.Pipeline.Levels != 20 {
		t.Errorf("expected 20 levels, got %d", cfg.Pipeline.Levels)
	}
	if cfg.Pipeline.Orient != "axis" {
		t.Errorf("expected orient 'axis', got %s", cfg.Pipeline.Orient)
	}
	if cfg.Pipeline.Timeout != 5*time.Minute {
		t.Errorf("expected timeout 5m, got %v", cfg.Pipeline.Timeout)
	}

	// Test render defaults
	if cfg.Render.Format != "svg" {
		t.Errorf("expected format 'svg', got %s", cfg.Render.Format)
	}
	if cfg.Render.LineWidth != 1.0 {
		t.Errorf("expected line width 1.0, got %f", cfg.Render.LineWidth)
	}
	if cfg.Render.ThumbnailSize != 200 {
		t.Errorf("expected thumbnail size 200, got %d", cfg.Render.ThumbnailSize)
	}

	// Test limits defaults
	if cfg.Limits.MinLevels != 5 || cfg.Limits.MaxLevels != 50 {
		t.Errorf("expected levels 5..50, got %d..%d", cfg.Limits.MinLevels, cfg.Limits.MaxLevels)
	}
	if cfg.Limits.MaxScale != 10 {
		t.Errorf("expected max scale 10, got %f", cfg.Limits.MaxScale)
	}
	if cfg.Limits.MaxFileSize != 100*1024*1024 {
		t.Errorf("expected 100 MiB max file size, got %d", cfg.Limits.MaxFileSize)
	}
	if cfg.Limits.MaxInflated != 512*1024*1024 {
		t.Errorf("expected 512 MiB max inflated size, got %d", cfg.Limits.MaxInflated)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"too few levels", func(c *Config) { c.Pipeline.Levels = 4 }, "levels"},
		{"too many levels", func(c *Config) { c.Pipeline.Levels = 51 }, "levels"},
		{"inverted level range", func(c *Config) { c.Limits.MinLevels = 60 }, "level range"},
		{"unknown orient", func(c *Config) { c.Pipeline.Orient = "diagonal" }, "orient"},
		{"negative timeout", func(c *Config) { c.Pipeline.Timeout = -time.Second }, "timeout"},
		{"unknown format", func(c *Config) { c.Render.Format = "gif" }, "format"},
		{"upper case format", func(c *Config) { c.Render.Format = "PNG" }, ""},
		{"zero line width", func(c *Config) { c.Render.LineWidth = 0 }, "line_width"},
		{"zero png scale", func(c *Config) { c.Render.PNGScale = 0 }, "png_scale"},
		{"tiny thumbnail", func(c *Config) { c.Render.ThumbnailSize = 16 }, "thumbnail_size"},
		{"zero max scale", func(c *Config) { c.Limits.MaxScale = 0 }, "max_scale"},
		{"zero max file size", func(c *Config) { c.Limits.MaxFileSize = 0 }, "max_file_size"},
		{"zero max inflated", func(c *Config) { c.Limits.MaxInflated = 0 }, "max_inflated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
pipeline:
  levels: 12
  orient: legacy-x
  timeout: 30s

render:
  format: pdf
  line_width: 2.5
  png_scale: 2

limits:
  max_levels: 40

logging:
  level: "debug"
  log_file: "topomap.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Pipeline.Levels != 12 {
		t.Errorf("expected 12 levels, got %d", cfg.Pipeline.Levels)
	}
	if cfg.Pipeline.Orient != "legacy-x" {
		t.Errorf("expected orient legacy-x, got %s", cfg.Pipeline.Orient)
	}
	if cfg.Pipeline.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Pipeline.Timeout)
	}
	if cfg.Render.Format != "pdf" {
		t.Errorf("expected format pdf, got %s", cfg.Render.Format)
	}
	if cfg.Render.LineWidth != 2.5 {
		t.Errorf("expected line width 2.5, got %f", cfg.Render.LineWidth)
	}
	if cfg.Limits.MaxLevels != 40 {
		t.Errorf("expected max levels 40, got %d", cfg.Limits.MaxLevels)
	}
	// Unset keys keep their defaults.
	if cfg.Limits.MinLevels != 5 {
		t.Errorf("expected min levels to stay 5, got %d", cfg.Limits.MinLevels)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "topomap.log" {
		t.Errorf("expected log file 'topomap.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
pipeline:
  levels: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if filepath.Base(dir) != "topomap" {
		t.Errorf("ConfigDir should end in topomap, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create topomap.yaml in current directory
	configPath := filepath.Join(tmpDir, "topomap.yaml")
	if err := os.WriteFile(configPath, []byte("pipeline:\n  levels: 8\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find topomap.yaml in current directory")
	}
}

func TestRegisterFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)

	args := []string{
		"-debug", "-levels", "30", "-line-width", "0.5", "-format", "png",
		"-orient", "none", "-png-scale", "3", "-timeout", "10s", "-log-file", "run.log",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg := Default()
	applyFlags(cfg, f)

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "run.log" {
		t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
	}
	if cfg.Pipeline.Levels != 30 {
		t.Errorf("expected 30 levels, got %d", cfg.Pipeline.Levels)
	}
	if cfg.Render.LineWidth != 0.5 {
		t.Errorf("expected line width 0.5, got %f", cfg.Render.LineWidth)
	}
	if cfg.Render.Format != "png" {
		t.Errorf("expected format png, got %s", cfg.Render.Format)
	}
	if cfg.Pipeline.Orient != "none" {
		t.Errorf("expected orient none, got %s", cfg.Pipeline.Orient)
	}
	if cfg.Render.PNGScale != 3 {
		t.Errorf("expected png scale 3, got %f", cfg.Render.PNGScale)
	}
	if cfg.Pipeline.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Pipeline.Timeout)
	}
}

func TestTimeoutFlagZeroDisables(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want time.Duration
	}{
		{"unset keeps default", nil, 5 * time.Minute},
		{"zero disables", []string{"-timeout", "0"}, 0},
		{"zero with unit", []string{"-timeout=0s"}, 0},
		{"explicit", []string{"-timeout", "90s"}, 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			cfg := Default()
			applyFlags(cfg, f)
			if cfg.Pipeline.Timeout != tt.want {
				t.Errorf("timeout: got %v, want %v", cfg.Pipeline.Timeout, tt.want)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("config invalid: %v", err)
			}
		})
	}
}

func TestTimeoutFlagRejectsGarbage(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"-timeout", "soon"}); err == nil {
		t.Error("expected parse error for -timeout soon")
	}
}

func TestApplyFlagsUnset(t *testing.T) {
	cfg := Default()
	applyFlags(cfg, &Flags{})
	applyFlags(cfg, nil)

	if cfg.Pipeline.Levels != 20 || cfg.Render.Format != "svg" || cfg.Logging.Level != "info" {
		t.Errorf("unset flags changed the config: %+v", cfg)
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
pipeline:
  levels: 10
render:
  line_width: 3
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Flags override the config file
	cfg, err := Load(&Flags{Config: configPath, Levels: 25})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Levels should be from flag (25), not file (10)
	if cfg.Pipeline.Levels != 25 {
		t.Errorf("expected 25 levels from flag, got %d", cfg.Pipeline.Levels)
	}

	// Line width should be from file (3) since no flag override
	if cfg.Render.LineWidth != 3 {
		t.Errorf("expected line width 3 from file, got %f", cfg.Render.LineWidth)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(&Flags{Config: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}

	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if _, err := Load(&Flags{Levels: 500}); err == nil {
		t.Error("expected validation error for 500 levels")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Pipeline.Levels = 33
	cfg.Render.Format = "pdf"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	if !strings.HasPrefix(string(data), fileHeader) {
		t.Errorf("saved config missing header:\n%s", data)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if loaded.Pipeline.Levels != 33 || loaded.Render.Format != "pdf" {
		t.Errorf("round trip lost values: %+v", loaded.Pipeline)
	}
	if loaded.Pipeline.Timeout != cfg.Pipeline.Timeout {
		t.Errorf("timeout: got %v, want %v", loaded.Pipeline.Timeout, cfg.Pipeline.Timeout)
	}
}

func TestSaveToRefusesInvalid(t *testing.T) {
	cfg := Default()
	cfg.Render.LineWidth = -1
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.SaveTo(path); err == nil {
		t.Error("expected SaveTo to refuse an invalid config")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid config was written")
	}
}
