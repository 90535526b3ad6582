// Package slicer intersects a triangle mesh with horizontal planes and
// stitches the resulting segments into contour lines.
package slicer

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/mesh"
	"github.com/Faultbox/topomap/pkg/topoerr"
)

// WeldTolerance is the absolute distance below which two segment endpoints
// are treated as the same point.
const WeldTolerance = 1e-6

// collinearTolerance bounds |a x b| / (|a| |b|) for merging straight runs.
const collinearTolerance = 1e-9

// ContourLine is one connected intersection path at a single height.
type ContourLine struct {
	Points []math.Vec3
	Closed bool // first and last point coincide
}

// Project drops the Z coordinate of every point.
func (l ContourLine) Project() []math.Vec2 {
	out := make([]math.Vec2, len(l.Points))
	for i, p := range l.Points {
		out[i] = p.XY()
	}
	return out
}

// SectionKind tells how many lines a Section holds.
type SectionKind int

const (
	SectionEmpty SectionKind = iota
	SectionSingle
	SectionMulti
)

func (k SectionKind) String() string {
	switch k {
	case SectionEmpty:
		return "empty"
	case SectionSingle:
		return "single"
	case SectionMulti:
		return "multi"
	default:
		return fmt.Sprintf("SectionKind(%d)", int(k))
	}
}

// Section is the result of slicing a mesh at one height.
type Section struct {
	Z     float64
	Lines []ContourLine
}

// Kind classifies the section by its line count.
func (s Section) Kind() SectionKind {
	switch len(s.Lines) {
	case 0:
		return SectionEmpty
	case 1:
		return SectionSingle
	default:
		return SectionMulti
	}
}

// Single returns the only line of a SectionSingle section.
func (s Section) Single() (ContourLine, bool) {
	if s.Kind() != SectionSingle {
		return ContourLine{}, false
	}
	return s.Lines[0], true
}

// Slice intersects m with the plane at height z. A plane outside the mesh's
// Z range yields an empty section and no error.
func Slice(m *mesh.Mesh, z float64) (Section, error) {
	sec := Section{Z: z}
	if gomath.IsNaN(z) || gomath.IsInf(z, 0) {
		return sec, topoerr.New(topoerr.KindGeometry, "slice height %v is not finite", z)
	}
	if err := m.Validate(); err != nil {
		return sec, topoerr.Wrap(topoerr.KindGeometry, err, "cannot slice at z=%g", z)
	}
	if len(m.Vertices) == 0 || !m.Bounds().ContainsZ(z) {
		return sec, nil
	}

	g := newGraph(WeldTolerance)
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		if p, q, ok := intersect(a, b, c, z); ok {
			g.addSegment(p, q)
		}
	}

	for _, pts := range g.stitch() {
		closed := len(pts) > 2 && pts[0] == pts[len(pts)-1]
		sec.Lines = append(sec.Lines, ContourLine{
			Points: simplify(pts, closed),
			Closed: closed,
		})
	}
	return sec, nil
}

// intersect returns the segment where triangle abc meets the plane at z.
// Triangles that only touch the plane at a single vertex, or lie in it,
// contribute nothing. An edge lying in the plane is returned as is.
func intersect(a, b, c math.Vec3, z float64) (math.Vec3, math.Vec3, bool) {
	v := [3]math.Vec3{a, b, c}
	d := [3]float64{a.Z - z, b.Z - z, c.Z - z}

	var zeros []int
	for i := range d {
		if d[i] == 0 {
			zeros = append(zeros, i)
		}
	}

	switch len(zeros) {
	case 3:
		return math.Vec3{}, math.Vec3{}, false

	case 2:
		return onPlane(v[zeros[0]], z), onPlane(v[zeros[1]], z), true

	case 1:
		i := zeros[0]
		j, k := (i+1)%3, (i+2)%3
		if (d[j] > 0) == (d[k] > 0) {
			return math.Vec3{}, math.Vec3{}, false
		}
		return onPlane(v[i], z), lerp(v[j], v[k], d[j], d[k], z), true
	}

	// No vertex on the plane: the lone vertex on one side owns both
	// crossing edges.
	for i := range d {
		j, k := (i+1)%3, (i+2)%3
		if (d[i] > 0) != (d[j] > 0) && (d[i] > 0) != (d[k] > 0) {
			return lerp(v[i], v[j], d[i], d[j], z), lerp(v[i], v[k], d[i], d[k], z), true
		}
	}
	return math.Vec3{}, math.Vec3{}, false
}

// lerp finds the zero crossing on the edge pq given signed distances dp, dq.
func lerp(p, q math.Vec3, dp, dq, z float64) math.Vec3 {
	t := dp / (dp - dq)
	return math.Vec3{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
		Z: z,
	}
}

func onPlane(p math.Vec3, z float64) math.Vec3 {
	p.Z = z
	return p
}

// simplify merges collinear interior points. For closed lines the seam
// point is tested as well and the loop is re-rooted at the first kept
// corner.
func simplify(pts []math.Vec3, closed bool) []math.Vec3 {
	if closed {
		ring := pts[:len(pts)-1]
		n := len(ring)
		var kept []math.Vec3
		for i := range ring {
			if !collinear(ring[(i+n-1)%n], ring[i], ring[(i+1)%n]) {
				kept = append(kept, ring[i])
			}
		}
		if len(kept) < 3 {
			return pts
		}
		return append(kept, kept[0])
	}

	if len(pts) < 3 {
		return pts
	}
	out := []math.Vec3{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		if !collinear(out[len(out)-1], pts[i], pts[i+1]) {
			out = append(out, pts[i])
		}
	}
	return append(out, pts[len(pts)-1])
}

// collinear reports whether b lies on the straight run from a to c, going
// forward.
func collinear(a, b, c math.Vec3) bool {
	u, w := b.Sub(a), c.Sub(b)
	lu, lw := u.Length(), w.Length()
	if lu == 0 || lw == 0 {
		return true
	}
	return u.Cross(w).Length() <= collinearTolerance*lu*lw && u.Dot(w) > 0
}
