package slicer

import (
	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/mesh"
	"github.com/Faultbox/topomap/pkg/topoerr"
)

// OutOfBoundsNotice is reported by Preview when the requested height misses
// the mesh.
const OutOfBoundsNotice = "requested level outside Z bounds"

// LevelResult records the outcome of slicing at one height. Err is nil when
// the level was sliced successfully, even if it produced no lines.
type LevelResult struct {
	Z     float64
	Lines []ContourLine
	Err   error
}

// Batch is the outcome of sampling a mesh at regularly spaced heights.
type Batch struct {
	Levels []LevelResult
	Lines  []ContourLine // all lines, in level order
	Bounds mesh.Bounds
}

// Failed returns the levels that could not be sliced.
func (b *Batch) Failed() []LevelResult {
	var out []LevelResult
	for _, l := range b.Levels {
		if l.Err != nil {
			out = append(out, l)
		}
	}
	return out
}

// Projected returns every line as 2D points.
func (b *Batch) Projected() [][]math.Vec2 {
	out := make([][]math.Vec2, len(b.Lines))
	for i, l := range b.Lines {
		out[i] = l.Project()
	}
	return out
}

// Levels returns n+1 evenly spaced heights from zmin to zmax. The last
// height is exactly zmax.
func Levels(zmin, zmax float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	out := make([]float64, n+1)
	step := (zmax - zmin) / float64(n)
	for i := range out {
		out[i] = zmin + float64(i)*step
	}
	out[n] = zmax
	return out
}

// Sample slices m at n+1 heights spanning its Z range. A level that fails is
// recorded in the batch and sampling carries on. The returned error is a
// GeometryError when n < 1 or when no level produced any line; in the latter
// case the batch is still returned.
func Sample(m *mesh.Mesh, n int) (*Batch, error) {
	return SampleWith(m, n, Slice)
}

// SliceFunc slices a mesh at one height.
type SliceFunc func(m *mesh.Mesh, z float64) (Section, error)

// SampleWith is Sample with a custom slicing function.
func SampleWith(m *mesh.Mesh, n int, slice SliceFunc) (*Batch, error) {
	if n < 1 {
		return nil, topoerr.New(topoerr.KindGeometry, "level count must be at least 1, got %d", n)
	}

	b := &Batch{Bounds: m.Bounds()}
	for _, z := range Levels(b.Bounds.Min.Z, b.Bounds.Max.Z, n) {
		sec, err := slice(m, z)
		res := LevelResult{Z: z, Err: err}
		if err == nil {
			res.Lines = sec.Lines
			b.Lines = append(b.Lines, sec.Lines...)
		}
		b.Levels = append(b.Levels, res)
	}

	if len(b.Lines) == 0 {
		return b, topoerr.New(topoerr.KindGeometry,
			"no contour lines across %d levels (%d failed)", len(b.Levels), len(b.Failed()))
	}
	return b, nil
}

// PreviewResult is the outcome of slicing at a single requested height.
type PreviewResult struct {
	Lines     [][]math.Vec2
	ZBounds   [2]float64
	Bounds    mesh.Bounds
	Z         float64
	LineCount int
	Notice    string // empty when the slice succeeded inside the Z range
}

// Preview slices m once at z. It never fails: a height outside the mesh or
// a slicing error is reported through Notice.
func Preview(m *mesh.Mesh, z float64) *PreviewResult {
	b := m.Bounds()
	res := &PreviewResult{
		ZBounds: [2]float64{b.Min.Z, b.Max.Z},
		Bounds:  b,
		Z:       z,
	}

	sec, err := Slice(m, z)
	switch {
	case err != nil:
		res.Notice = err.Error()
	case !b.ContainsZ(z):
		res.Notice = OutOfBoundsNotice
	}

	for _, l := range sec.Lines {
		res.Lines = append(res.Lines, l.Project())
	}
	res.LineCount = len(res.Lines)
	return res
}
