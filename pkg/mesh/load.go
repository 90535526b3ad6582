package mesh

import (
	"io"
	"os"

	"github.com/Faultbox/topomap/pkg/formats"
	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/topoerr"
)

// Load reads a mesh in the given format from r. The first mesh object in
// file order is selected; the names of the others are kept in Dropped.
func Load(r io.Reader, format formats.Format) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, topoerr.Wrap(topoerr.KindLoad, err, "reading %s data", format)
	}
	return Decode(data, format)
}

// LoadFile reads a mesh from path. The format is taken from the extension.
func LoadFile(path string) (*Mesh, error) {
	format, err := formats.FormatFromPath(path)
	if err != nil {
		return nil, topoerr.Wrap(topoerr.KindLoad, err, "detecting format of %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, topoerr.Wrap(topoerr.KindLoad, err, "opening file")
	}
	defer file.Close()

	return Load(file, format)
}

// Decode parses an in-memory mesh file with default parser limits.
func Decode(data []byte, format formats.Format) (*Mesh, error) {
	return DecodeWith(data, format, formats.Options{})
}

// DecodeWith is Decode with explicit parser limits.
func DecodeWith(data []byte, format formats.Format, opts formats.Options) (*Mesh, error) {
	scene, err := formats.ParseWith(data, format, opts)
	if err != nil {
		return nil, topoerr.Wrap(topoerr.KindLoad, err, "parsing %s", format)
	}
	if len(scene.Objects) == 0 {
		return nil, topoerr.New(topoerr.KindLoad, "%s scene contains no mesh objects", format)
	}

	obj := scene.Objects[0]
	if len(obj.Vertices) == 0 {
		return nil, topoerr.New(topoerr.KindLoad, "mesh %q has no vertices", obj.Name)
	}

	m := &Mesh{
		Name:     obj.Name,
		Vertices: make([]math.Vec3, len(obj.Vertices)),
		Faces:    obj.Faces,
	}
	for i, v := range obj.Vertices {
		m.Vertices[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	for _, other := range scene.Objects[1:] {
		m.Dropped = append(m.Dropped, other.Name)
	}

	if err := m.Validate(); err != nil {
		return nil, topoerr.Wrap(topoerr.KindLoad, err, "invalid mesh %q", obj.Name)
	}
	return m, nil
}
