package pipeline

import (
	"fmt"
	gomath "math"
	"strings"

	"github.com/Faultbox/topomap/internal/config"
	"github.com/Faultbox/topomap/pkg/formats"
	"github.com/Faultbox/topomap/pkg/mesh"
	"github.com/Faultbox/topomap/pkg/topoerr"
)

// Output formats accepted by Convert.
const (
	OutputSVG = "svg"
	OutputPNG = "png"
	OutputPDF = "pdf"
)

// Request describes one conversion. Either Data with Format, or Path, must
// be set. Zero values for Levels, LineWidth, Output and PNGScale fall back to
// the runner's config. Transform has no such fallback: start from
// mesh.IdentityTransform, since a zero Scale is rejected.
type Request struct {
	Data   []byte
	Format formats.Format
	Path   string

	Levels    int
	Transform mesh.Transform
	LineWidth float64
	Output    string
	PNGScale  float64
}

// PreviewRequest slices a single height instead of a level stack.
type PreviewRequest struct {
	Request
	Z float64
}

// withDefaults fills unset fields from cfg.
func (r Request) withDefaults(cfg *config.Config) Request {
	if r.Levels == 0 {
		r.Levels = cfg.Pipeline.Levels
	}
	if r.LineWidth == 0 {
		r.LineWidth = cfg.Render.LineWidth
	}
	if r.Output == "" {
		r.Output = cfg.Render.Format
	}
	r.Output = strings.ToLower(r.Output)
	if r.PNGScale == 0 {
		r.PNGScale = cfg.Render.PNGScale
	}
	return r
}

// validate checks r against the configured limits. Each failure carries the
// kind of the stage it would have broken.
func (r Request) validate(lim config.LimitsConfig, needLevels bool) error {
	if r.Data == nil && r.Path == "" {
		return topoerr.New(topoerr.KindLoad, "no mesh data or path given")
	}
	if r.Data != nil && int64(len(r.Data)) > lim.MaxFileSize {
		return topoerr.New(topoerr.KindLoad, "mesh is %d bytes, limit is %d", len(r.Data), lim.MaxFileSize)
	}
	if needLevels && (r.Levels < lim.MinLevels || r.Levels > lim.MaxLevels) {
		return topoerr.New(topoerr.KindGeometry, "levels must be between %d and %d, got %d",
			lim.MinLevels, lim.MaxLevels, r.Levels)
	}
	if r.Transform.Scale > lim.MaxScale {
		return topoerr.New(topoerr.KindTransform, "scale must be at most %v, got %v", lim.MaxScale, r.Transform.Scale)
	}
	if err := r.Transform.Validate(); err != nil {
		return err
	}
	if !(r.LineWidth > 0) || gomath.IsInf(r.LineWidth, 0) {
		return topoerr.New(topoerr.KindRender, "line width must be positive, got %v", r.LineWidth)
	}
	switch r.Output {
	case OutputSVG, OutputPDF:
	case OutputPNG:
		if !(r.PNGScale > 0) || r.PNGScale > lim.MaxScale {
			return topoerr.New(topoerr.KindRender, "png scale must be in (0, %v], got %v", lim.MaxScale, r.PNGScale)
		}
	default:
		return topoerr.New(topoerr.KindRender, "unknown output format %q", r.Output)
	}
	return nil
}

// ContentType returns the MIME type of an output format.
func ContentType(output string) string {
	switch strings.ToLower(output) {
	case OutputPNG:
		return "image/png"
	case OutputPDF:
		return "application/pdf"
	default:
		return "image/svg+xml"
	}
}

func (r Request) source() string {
	if r.Path != "" {
		return r.Path
	}
	return fmt.Sprintf("<%d bytes of %s>", len(r.Data), r.Format)
}
