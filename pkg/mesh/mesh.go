// Package mesh holds the indexed triangle mesh and the stages that normalize
// it before slicing: loading, auto-orientation and the affine transform.
//
// Stages mutate a *Mesh in place and hand the pointer forward. Nothing in
// this package retains a mesh after returning.
package mesh

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/topomap/pkg/math"
)

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Name     string
	Vertices []math.Vec3
	Faces    [][3]int

	// Dropped lists the names of scene objects discarded by Load.
	Dropped []string
}

// Validate checks that every face index is in range and every vertex is finite.
func (m *Mesh) Validate() error {
	for i, v := range m.Vertices {
		if !v.IsFinite() {
			return fmt.Errorf("vertex %d is not finite: %v", i, v)
		}
	}
	n := len(m.Vertices)
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("face %d references vertex %d, mesh has %d", i, idx, n)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:     m.Name,
		Vertices: append([]math.Vec3(nil), m.Vertices...),
		Faces:    append([][3]int(nil), m.Faces...),
	}
	if m.Dropped != nil {
		c.Dropped = append([]string(nil), m.Dropped...)
	}
	return c
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Extent returns the size of the box along each axis.
func (b Bounds) Extent() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// ContainsZ reports whether z lies within [Min.Z, Max.Z].
func (b Bounds) ContainsZ(z float64) bool {
	return z >= b.Min.Z && z <= b.Max.Z
}

// Bounds computes the bounding box of all vertices. It is recomputed on every
// call. An empty mesh yields a zero box.
func (m *Mesh) Bounds() Bounds {
	if len(m.Vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		b.Min = b.Min.Min(v)
		b.Max = b.Max.Max(v)
	}
	return b
}

// Centroid returns the area-weighted centroid of the surface. A mesh with no
// surface area (no faces or only degenerate ones) falls back to the mean of
// its vertices.
func (m *Mesh) Centroid() math.Vec3 {
	var sum math.Vec3
	var area float64
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		w := b.Sub(a).Cross(c.Sub(a)).Length() / 2
		if w == 0 || gomath.IsNaN(w) {
			continue
		}
		center := a.Add(b).Add(c).Scale(1.0 / 3)
		sum = sum.Add(center.Scale(w))
		area += w
	}
	if area > 0 {
		return sum.Scale(1 / area)
	}

	if len(m.Vertices) == 0 {
		return math.Vec3{}
	}
	for _, v := range m.Vertices {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float64(len(m.Vertices)))
}

// SurfaceArea returns the total triangle area.
func (m *Mesh) SurfaceArea() float64 {
	var area float64
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		area += b.Sub(a).Cross(c.Sub(a)).Length() / 2
	}
	return area
}
