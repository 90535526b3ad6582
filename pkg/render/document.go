// Package render turns projected contour lines into output documents.
//
// Build computes the framing once: the padded bounding box, the pixel
// viewport and the stroke width. The SVG, PNG and PDF writers all draw from
// the same Document so every output format frames the map identically.
package render

import (
	gomath "math"

	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/mesh"
	"github.com/Faultbox/topomap/pkg/topoerr"
)

const (
	// MaxDimension is the pixel size of the longer viewport side.
	MaxDimension = 1000

	// PaddingRatio is the margin added on every side, relative to the
	// larger span of the contour bounding box.
	PaddingRatio = 0.1

	// StrokeRatio converts the padded extent into a unit stroke width.
	StrokeRatio = 0.001
)

// ViewBox is the padded coordinate-space rectangle shown by a document.
type ViewBox struct {
	MinX, MinY    float64
	Width, Height float64
}

// MaxX returns the right edge.
func (v ViewBox) MaxX() float64 { return v.MinX + v.Width }

// MaxY returns the bottom edge.
func (v ViewBox) MaxY() float64 { return v.MinY + v.Height }

// Document is a framed set of contour paths ready for serialization.
type Document struct {
	// Paths hold the contour lines with Y already flipped.
	Paths [][]math.Vec2

	ViewBox ViewBox

	// Width and Height are the pixel viewport, both at least 1.
	Width  int
	Height int

	// Scale is pixels per coordinate unit.
	Scale float64

	// FlipOffset is maxY + minY of the padded box: y' = FlipOffset - y.
	FlipOffset float64

	StrokeWidth float64
}

// Build frames lines for rendering. When there are no points the fallback
// bounds (normally the mesh bounds) set the frame, and the document holds
// only a background.
func Build(lines [][]math.Vec2, fallback mesh.Bounds, lineWidth float64) (*Document, error) {
	if !(lineWidth > 0) || gomath.IsInf(lineWidth, 0) {
		return nil, topoerr.New(topoerr.KindRender, "line width must be a positive finite number, got %v", lineWidth)
	}

	minP, maxP, ok, err := extent(lines)
	if err != nil {
		return nil, err
	}
	if !ok {
		minP, maxP = fallback.Min.XY(), fallback.Max.XY()
		if !minP.IsFinite() || !maxP.IsFinite() {
			return nil, topoerr.New(topoerr.KindRender, "fallback bounds are not finite: %+v", fallback)
		}
	}

	spanX, spanY := maxP.X-minP.X, maxP.Y-minP.Y
	pad := PaddingRatio * gomath.Max(spanX, spanY)
	if pad == 0 {
		pad = PaddingRatio
	}

	vb := ViewBox{
		MinX:   minP.X - pad,
		MinY:   minP.Y - pad,
		Width:  spanX + 2*pad,
		Height: spanY + 2*pad,
	}

	doc := &Document{
		ViewBox:     vb,
		FlipOffset:  vb.MaxY() + vb.MinY,
		StrokeWidth: gomath.Max(vb.Width, vb.Height) * StrokeRatio * lineWidth,
	}
	doc.Width, doc.Height, doc.Scale = viewport(vb.Width, vb.Height)

	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		path := make([]math.Vec2, len(line))
		for i, p := range line {
			path[i] = math.Vec2{X: p.X, Y: doc.FlipOffset - p.Y}
		}
		doc.Paths = append(doc.Paths, path)
	}
	return doc, nil
}

// extent returns the XY bounding box of all points. ok is false when there
// are no points.
func extent(lines [][]math.Vec2) (minP, maxP math.Vec2, ok bool, err error) {
	for i, line := range lines {
		for j, p := range line {
			if !p.IsFinite() {
				return minP, maxP, false, topoerr.New(topoerr.KindRender, "line %d point %d is not finite: %v", i, j, p)
			}
			if !ok {
				minP, maxP, ok = p, p, true
				continue
			}
			minP = math.Vec2{X: gomath.Min(minP.X, p.X), Y: gomath.Min(minP.Y, p.Y)}
			maxP = math.Vec2{X: gomath.Max(maxP.X, p.X), Y: gomath.Max(maxP.Y, p.Y)}
		}
	}
	return minP, maxP, ok, nil
}

// viewport fits a w x h box into MaxDimension pixels, keeping the aspect
// ratio.
func viewport(w, h float64) (width, height int, scale float64) {
	if w >= h {
		scale = MaxDimension / w
		return MaxDimension, max(1, int(gomath.Round(h*scale))), scale
	}
	scale = MaxDimension / h
	return max(1, int(gomath.Round(w*scale))), MaxDimension, scale
}

// ToPixel maps a flipped document point into viewport pixels.
func (d *Document) ToPixel(p math.Vec2) (float64, float64) {
	return (p.X - d.ViewBox.MinX) * d.Scale, (p.Y - d.ViewBox.MinY) * d.Scale
}
