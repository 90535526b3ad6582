package config

import (
	"flag"
	"time"
)

// Flags holds the command-line overrides shared by every subcommand.
// Zero values mean "not set" and leave the loaded config untouched.
type Flags struct {
	Config    string
	Debug     bool
	LogFile   string
	Levels    int
	LineWidth float64
	Format    string
	Orient    string
	PNGScale  float64
	Timeout   time.Duration

	// TimeoutSet marks an explicit -timeout, so that 0 can disable the
	// deadline.
	TimeoutSet bool
}

// RegisterFlags binds the shared flags to fs. Call it before fs.Parse.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	fs.IntVar(&f.Levels, "levels", 0, "Number of contour level intervals")
	fs.Float64Var(&f.LineWidth, "line-width", 0, "Contour stroke width multiplier")
	fs.StringVar(&f.Format, "format", "", "Output format: svg, png or pdf")
	fs.StringVar(&f.Orient, "orient", "", "Auto-orientation: axis, legacy-x or none")
	fs.Float64Var(&f.PNGScale, "png-scale", 0, "Raster size multiplier")
	fs.Func("timeout", "Pipeline deadline (0 disables it)", func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		f.Timeout, f.TimeoutSet = d, true
		return nil
	})
	return f
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Levels > 0 {
		cfg.Pipeline.Levels = f.Levels
	}
	if f.LineWidth != 0 {
		cfg.Render.LineWidth = f.LineWidth
	}
	if f.Format != "" {
		cfg.Render.Format = f.Format
	}
	if f.Orient != "" {
		cfg.Pipeline.Orient = f.Orient
	}
	if f.PNGScale != 0 {
		cfg.Render.PNGScale = f.PNGScale
	}
	if f.TimeoutSet || f.Timeout != 0 {
		cfg.Pipeline.Timeout = f.Timeout
	}
}
