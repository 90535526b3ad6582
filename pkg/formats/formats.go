// Package formats provides parsers for 3D mesh interchange formats.
//
// Every parser produces a Scene: the mesh objects of the file in file order,
// each with its own vertex buffer and triangle list. Polygons are fan
// triangulated. Materials, normals and texture coordinates are ignored.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a mesh file format.
type Format string

const (
	FormatOBJ Format = "obj"
	FormatFBX Format = "fbx"
	FormatSTL Format = "stl"
	FormatPLY Format = "ply"
)

// Supported lists the accepted formats in display order.
var Supported = []Format{FormatOBJ, FormatFBX, FormatSTL, FormatPLY}

// ErrUnsupportedFormat is returned for format tags outside Supported.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// ParseFormat converts a tag such as "stl", ".STL" or "Ply" into a Format.
func ParseFormat(tag string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tag)), "."))
	for _, s := range Supported {
		if f == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, tag)
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Object is one mesh object of a scene.
type Object struct {
	Name     string
	Vertices [][3]float64
	Faces    [][3]int // indices into Vertices
}

// Scene holds the mesh objects of a file in file order.
type Scene struct {
	Objects []Object
}

// DefaultMaxInflated caps the total decompressed size of compressed arrays
// in one file.
const DefaultMaxInflated = 512 << 20

// Options holds parser limits. The zero value uses the defaults.
type Options struct {
	// MaxInflated is the total number of bytes compressed arrays may
	// expand to.
	MaxInflated int64
}

func (o Options) maxInflated() int64 {
	if o.MaxInflated <= 0 {
		return DefaultMaxInflated
	}
	return o.MaxInflated
}

// Parse decodes data in the given format with default options.
func Parse(data []byte, format Format) (*Scene, error) {
	return ParseWith(data, format, Options{})
}

// ParseWith decodes data in the given format.
func ParseWith(data []byte, format Format, opts Options) (*Scene, error) {
	switch format {
	case FormatOBJ:
		return ParseOBJ(data)
	case FormatPLY:
		return ParsePLY(data)
	case FormatSTL:
		return ParseSTL(data)
	case FormatFBX:
		return ParseFBXWith(data, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}

// fan appends the fan triangulation of polygon to faces.
func fan(faces [][3]int, polygon []int) [][3]int {
	for i := 1; i+1 < len(polygon); i++ {
		faces = append(faces, [3]int{polygon[0], polygon[i], polygon[i+1]})
	}
	return faces
}
