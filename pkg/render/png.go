package render

import (
	"bytes"
	"io"
	gomath "math"

	"github.com/gogpu/gg"

	"github.com/Faultbox/topomap/pkg/topoerr"
)

// PNGOptions controls raster output.
type PNGOptions struct {
	// Scale multiplies the document viewport. Zero means 1.
	Scale float64

	// MinStrokePx keeps thin strokes visible at low resolution.
	MinStrokePx float64
}

// DefaultPNGOptions returns the options used by the CLI.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Scale: 1, MinStrokePx: 1}
}

// WritePNG rasterizes the document: white background, black round-capped
// strokes, framed exactly like the SVG output.
func (d *Document) WritePNG(w io.Writer, opts PNGOptions) error {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	if !(scale > 0) || gomath.IsInf(scale, 0) {
		return topoerr.New(topoerr.KindRender, "raster scale must be positive, got %v", opts.Scale)
	}

	width := max(1, int(gomath.Round(float64(d.Width)*scale)))
	height := max(1, int(gomath.Round(float64(d.Height)*scale)))

	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.ClearWithColor(gg.White)
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(gomath.Max(d.StrokeWidth*d.Scale*scale, opts.MinStrokePx))
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, path := range d.Paths {
		for i, p := range path {
			x, y := d.ToPixel(p)
			if i == 0 {
				dc.MoveTo(x*scale, y*scale)
			} else {
				dc.LineTo(x*scale, y*scale)
			}
		}
		if err := dc.Stroke(); err != nil {
			return topoerr.Wrap(topoerr.KindRender, err, "stroking contour")
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return topoerr.Wrap(topoerr.KindRender, err, "encoding png")
	}
	if _, err := buf.WriteTo(w); err != nil {
		return topoerr.Wrap(topoerr.KindRender, err, "writing png")
	}
	return nil
}
