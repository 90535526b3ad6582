package meshgen

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hschendel/stl"

	"github.com/Faultbox/topomap/pkg/formats"
	"github.com/Faultbox/topomap/pkg/mesh"
)

// Write encodes m as STL (binary) or OBJ.
func Write(w io.Writer, m *mesh.Mesh, format formats.Format) error {
	switch format {
	case formats.FormatSTL:
		return WriteSTL(w, m)
	case formats.FormatOBJ:
		return WriteOBJ(w, m)
	default:
		return fmt.Errorf("%w: cannot write %s", formats.ErrUnsupportedFormat, format)
	}
}

// WriteSTL encodes m as a binary STL solid.
func WriteSTL(w io.Writer, m *mesh.Mesh) error {
	solid := &stl.Solid{Name: m.Name}
	solid.Triangles = make([]stl.Triangle, len(m.Faces))
	for i, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()
		tri := &solid.Triangles[i]
		tri.Normal = stl.Vec3{float32(n.X), float32(n.Y), float32(n.Z)}
		for j, v := range [3]int{f[0], f[1], f[2]} {
			p := m.Vertices[v]
			tri.Vertices[j] = stl.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
		}
	}
	return solid.WriteAll(w)
}

// WriteOBJ encodes m as a Wavefront OBJ object.
func WriteOBJ(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	if m.Name != "" {
		fmt.Fprintf(bw, "o %s\n", m.Name)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, f := range m.Faces {
		fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
	}
	return bw.Flush()
}
