// Wavefront OBJ parser.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrInvalidOBJVertex = errors.New("invalid OBJ vertex")
	ErrInvalidOBJFace   = errors.New("invalid OBJ face")
)

// objBuilder collects one OBJ object. OBJ indices are global to the file, so
// each object remaps the vertices it references into its own buffer.
type objBuilder struct {
	name  string
	local map[int]int
	obj   Object
}

func newOBJBuilder(name string) *objBuilder {
	return &objBuilder{name: name, local: make(map[int]int)}
}

func (b *objBuilder) vertex(global int, all [][3]float64) int {
	if idx, ok := b.local[global]; ok {
		return idx
	}
	idx := len(b.obj.Vertices)
	b.obj.Vertices = append(b.obj.Vertices, all[global])
	b.local[global] = idx
	return idx
}

// ParseOBJ parses Wavefront OBJ data. "o" and "g" statements start a new
// object; objects that end up without faces are not reported.
func ParseOBJ(data []byte) (*Scene, error) {
	scene := &Scene{}
	var vertices [][3]float64
	cur := newOBJBuilder("default")

	flush := func() {
		if len(cur.obj.Faces) > 0 {
			cur.obj.Name = cur.name
			scene.Objects = append(scene.Objects, cur.obj)
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: need 3 coordinates", ErrInvalidOBJVertex, lineNo)
			}
			var v [3]float64
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJVertex, lineNo, err)
				}
				v[i] = f
			}
			vertices = append(vertices, v)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: need at least 3 vertices", ErrInvalidOBJFace, lineNo)
			}
			polygon := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				global, err := objIndex(tok, len(vertices))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJFace, lineNo, err)
				}
				polygon = append(polygon, cur.vertex(global, vertices))
			}
			cur.obj.Faces = fan(cur.obj.Faces, polygon)

		case "o", "g":
			name := strings.TrimSpace(strings.Join(fields[1:], " "))
			if len(cur.obj.Faces) == 0 {
				// Nothing emitted yet: rename instead of starting over.
				if name != "" {
					cur.name = name
				}
				continue
			}
			flush()
			cur = newOBJBuilder(name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	flush()

	return scene, nil
}

// objIndex resolves a face token ("7", "7/1", "7//3", "-1/2/3") to a
// zero-based vertex index.
func objIndex(tok string, count int) (int, error) {
	if slash := strings.IndexByte(tok, '/'); slash >= 0 {
		tok = tok[:slash]
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0:
		n--
	case n < 0:
		n += count
	default:
		return 0, errors.New("index 0 is not valid")
	}
	if n < 0 || n >= count {
		return 0, fmt.Errorf("index %s out of range (%d vertices)", tok, count)
	}
	return n, nil
}
