// Package meshgen builds sample meshes: an exact cube and signed distance
// field solids polygonized with marching cubes.
package meshgen

import (
	"fmt"
	gomath "math"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/mesh"
)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 64

// Shapes lists the names accepted by Generate.
var Shapes = []string{"cube", "sphere", "box", "cylinder"}

// Cube returns an axis-aligned cube centered on the origin with 8 vertices
// and 12 triangles.
func Cube(size float64) *mesh.Mesh {
	h := size / 2
	return &mesh.Mesh{
		Name: "cube",
		Vertices: []math.Vec3{
			{X: -h, Y: -h, Z: -h},
			{X: h, Y: -h, Z: -h},
			{X: h, Y: h, Z: -h},
			{X: -h, Y: h, Z: -h},
			{X: -h, Y: -h, Z: h},
			{X: h, Y: -h, Z: h},
			{X: h, Y: h, Z: h},
			{X: -h, Y: h, Z: h},
		},
		Faces: [][3]int{
			{0, 2, 1}, {0, 3, 2},
			{4, 5, 6}, {4, 6, 7},
			{0, 1, 5}, {0, 5, 4},
			{2, 3, 7}, {2, 7, 6},
			{1, 2, 6}, {1, 6, 5},
			{3, 0, 4}, {3, 4, 7},
		},
	}
}

// Sphere polygonizes a sphere of the given radius.
func Sphere(radius float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sphere: %w", err)
	}
	return polygonize("sphere", s, cells), nil
}

// Box polygonizes a box with rounded edges, centered on the origin.
func Box(size math.Vec3, round float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Box3D(v3.Vec{X: size.X, Y: size.Y, Z: size.Z}, round)
	if err != nil {
		return nil, fmt.Errorf("box: %w", err)
	}
	return polygonize("box", s, cells), nil
}

// Cylinder polygonizes an upright cylinder centered on the origin.
func Cylinder(height, radius float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("cylinder: %w", err)
	}
	return polygonize("cylinder", s, cells), nil
}

// Generate builds one of the named sample shapes at its default size.
func Generate(shape string, cells int) (*mesh.Mesh, error) {
	if cells <= 0 {
		cells = DefaultCells
	}
	switch strings.ToLower(shape) {
	case "cube":
		return Cube(1), nil
	case "sphere":
		return Sphere(1, cells)
	case "box":
		return Box(math.Vec3{X: 3, Y: 2, Z: 1}, 0.1, cells)
	case "cylinder":
		return Cylinder(3, 1, cells)
	default:
		return nil, fmt.Errorf("unknown shape %q (want one of %s)", shape, strings.Join(Shapes, ", "))
	}
}

// polygonize runs marching cubes on s and welds the per-triangle corners
// into shared vertices.
func polygonize(name string, s sdf.SDF3, cells int) *mesh.Mesh {
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	m := &mesh.Mesh{Name: name}
	index := make(map[[3]float64]int)
	for _, tri := range triangles {
		var face [3]int
		for j := 0; j < 3; j++ {
			v := tri[j]
			key := [3]float64{snap(v.X), snap(v.Y), snap(v.Z)}
			idx, ok := index[key]
			if !ok {
				idx = len(m.Vertices)
				index[key] = idx
				m.Vertices = append(m.Vertices, math.Vec3{X: v.X, Y: v.Y, Z: v.Z})
			}
			face[j] = idx
		}
		if face[0] == face[1] || face[1] == face[2] || face[0] == face[2] {
			continue
		}
		m.Faces = append(m.Faces, face)
	}
	return m
}

// snap rounds to a 1e-9 grid so corners computed from either side of a
// cube edge share a key.
func snap(f float64) float64 {
	return gomath.Round(f*1e9) / 1e9
}
