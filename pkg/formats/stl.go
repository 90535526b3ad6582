// STL parser backed by github.com/hschendel/stl.
package formats

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hschendel/stl"
)

// ParseSTL parses ascii or binary STL data. STL stores unindexed triangles,
// so corners with bit-identical coordinates are welded into shared vertices.
// A solid without triangles yields an empty scene.
func ParseSTL(data []byte) (*Scene, error) {
	solid, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}

	scene := &Scene{}
	if len(solid.Triangles) == 0 {
		return scene, nil
	}

	name := strings.TrimSpace(solid.Name)
	if name == "" {
		name = "stl"
	}
	obj := Object{
		Name:  name,
		Faces: make([][3]int, 0, len(solid.Triangles)),
	}

	index := make(map[stl.Vec3]int, len(solid.Triangles))
	for _, tri := range solid.Triangles {
		var face [3]int
		for i, v := range tri.Vertices {
			idx, ok := index[v]
			if !ok {
				idx = len(obj.Vertices)
				obj.Vertices = append(obj.Vertices, [3]float64{float64(v[0]), float64(v[1]), float64(v[2])})
				index[v] = idx
			}
			face[i] = idx
		}
		obj.Faces = append(obj.Faces, face)
	}

	scene.Objects = append(scene.Objects, obj)
	return scene, nil
}
