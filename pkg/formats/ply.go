// Stanford PLY parser (ascii and binary).
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic   = errors.New("invalid PLY magic: expected 'ply'")
	ErrInvalidPLYHeader  = errors.New("invalid PLY header")
	ErrTruncatedPLYData  = errors.New("truncated PLY data")
	ErrUnsupportedPLYFmt = errors.New("unsupported PLY encoding")
)

type plyEncoding int

const (
	plyASCII plyEncoding = iota
	plyBinaryLE
	plyBinaryBE
)

type plyProperty struct {
	name      string
	typ       string // scalar type, or item type for lists
	countType string // non-empty for list properties
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

// plySizes maps PLY scalar types to their binary width.
var plySizes = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4, "double": 8, "float64": 8,
}

// ParsePLY parses PLY data. The vertex element supplies x/y/z, the face
// element's first list property supplies polygons. A PLY file always
// describes at most one object.
func ParsePLY(data []byte) (*Scene, error) {
	enc, elements, body, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}
	if err := checkPLYCounts(enc, elements, len(body)); err != nil {
		return nil, err
	}

	var r plyValueReader
	if enc == plyASCII {
		r = &plyASCIIReader{fields: strings.Fields(string(body))}
	} else {
		order := binary.ByteOrder(binary.LittleEndian)
		if enc == plyBinaryBE {
			order = binary.BigEndian
		}
		r = &plyBinaryReader{data: body, order: order}
	}

	obj := Object{Name: "ply"}
	for _, el := range elements {
		switch el.name {
		case "vertex":
			if err := readPLYVertices(r, el, &obj); err != nil {
				return nil, err
			}
		case "face":
			if err := readPLYFaces(r, el, &obj); err != nil {
				return nil, err
			}
		default:
			if err := skipPLYElement(r, el); err != nil {
				return nil, err
			}
		}
	}

	for _, f := range obj.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(obj.Vertices) {
				return nil, fmt.Errorf("%w: face index %d out of range (%d vertices)", ErrInvalidPLYHeader, idx, len(obj.Vertices))
			}
		}
	}

	scene := &Scene{}
	if len(obj.Faces) > 0 {
		scene.Objects = append(scene.Objects, obj)
	}
	return scene, nil
}

func parsePLYHeader(data []byte) (plyEncoding, []plyElement, []byte, error) {
	if !bytes.HasPrefix(data, []byte("ply")) {
		return 0, nil, nil, ErrInvalidPLYMagic
	}
	end := bytes.Index(data, []byte("end_header"))
	if end < 0 {
		return 0, nil, nil, fmt.Errorf("%w: missing end_header", ErrInvalidPLYHeader)
	}
	bodyStart := end + len("end_header")
	// The header ends with a single line terminator.
	if bodyStart < len(data) && data[bodyStart] == '\r' {
		bodyStart++
	}
	if bodyStart < len(data) && data[bodyStart] == '\n' {
		bodyStart++
	}

	var (
		enc      plyEncoding
		encSeen  bool
		elements []plyElement
	)
	for _, raw := range strings.Split(string(data[:end]), "\n") {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "ply", "comment", "obj_info":
		case "format":
			if len(fields) < 2 {
				return 0, nil, nil, fmt.Errorf("%w: bad format line", ErrInvalidPLYHeader)
			}
			switch fields[1] {
			case "ascii":
				enc = plyASCII
			case "binary_little_endian":
				enc = plyBinaryLE
			case "binary_big_endian":
				enc = plyBinaryBE
			default:
				return 0, nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFmt, fields[1])
			}
			encSeen = true
		case "element":
			if len(fields) != 3 {
				return 0, nil, nil, fmt.Errorf("%w: bad element line %q", ErrInvalidPLYHeader, raw)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return 0, nil, nil, fmt.Errorf("%w: bad element count %q", ErrInvalidPLYHeader, fields[2])
			}
			elements = append(elements, plyElement{name: fields[1], count: n})
		case "property":
			if len(elements) == 0 {
				return 0, nil, nil, fmt.Errorf("%w: property before element", ErrInvalidPLYHeader)
			}
			el := &elements[len(elements)-1]
			var p plyProperty
			if len(fields) == 5 && fields[1] == "list" {
				p = plyProperty{countType: fields[2], typ: fields[3], name: fields[4]}
				if _, ok := plySizes[p.countType]; !ok {
					return 0, nil, nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPLYHeader, p.countType)
				}
			} else if len(fields) == 3 {
				p = plyProperty{typ: fields[1], name: fields[2]}
			} else {
				return 0, nil, nil, fmt.Errorf("%w: bad property line %q", ErrInvalidPLYHeader, raw)
			}
			if _, ok := plySizes[p.typ]; !ok {
				return 0, nil, nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPLYHeader, p.typ)
			}
			el.props = append(el.props, p)
		default:
			return 0, nil, nil, fmt.Errorf("%w: unexpected keyword %q", ErrInvalidPLYHeader, fields[0])
		}
	}
	if !encSeen {
		return 0, nil, nil, fmt.Errorf("%w: missing format line", ErrInvalidPLYHeader)
	}

	return enc, elements, data[bodyStart:], nil
}

// checkPLYCounts rejects element counts the body cannot hold. An ASCII
// value takes at least two bytes with its separator; a binary row takes at
// least the width of its scalars and list counts.
func checkPLYCounts(enc plyEncoding, elements []plyElement, bodyLen int) error {
	remaining := bodyLen + 1
	for _, el := range elements {
		if el.count == 0 {
			continue
		}
		minRow := 0
		for _, p := range el.props {
			switch {
			case enc == plyASCII:
				minRow += 2
			case p.countType != "":
				minRow += plySizes[p.countType]
			default:
				minRow += plySizes[p.typ]
			}
		}
		if minRow == 0 {
			return fmt.Errorf("%w: element %q has rows but no properties", ErrInvalidPLYHeader, el.name)
		}
		if el.count > remaining/minRow {
			return fmt.Errorf("%w: element %q declares %d rows, body has %d bytes",
				ErrTruncatedPLYData, el.name, el.count, bodyLen)
		}
		remaining -= el.count * minRow
	}
	return nil
}

func readPLYVertices(r plyValueReader, el plyElement, obj *Object) error {
	axis := map[string]int{"x": 0, "y": 1, "z": 2}
	found := 0
	for _, p := range el.props {
		if _, ok := axis[p.name]; ok && p.countType == "" {
			found++
		}
	}
	if found != 3 {
		return fmt.Errorf("%w: vertex element needs x, y and z", ErrInvalidPLYHeader)
	}

	obj.Vertices = make([][3]float64, 0, el.count)
	for i := 0; i < el.count; i++ {
		var v [3]float64
		for _, p := range el.props {
			if p.countType != "" {
				if _, err := readPLYList(r, p); err != nil {
					return err
				}
				continue
			}
			f, err := r.read(p.typ)
			if err != nil {
				return err
			}
			if a, ok := axis[p.name]; ok {
				v[a] = f
			}
		}
		obj.Vertices = append(obj.Vertices, v)
	}
	return nil
}

func readPLYFaces(r plyValueReader, el plyElement, obj *Object) error {
	listIdx := -1
	for i, p := range el.props {
		if p.countType != "" && (p.name == "vertex_indices" || p.name == "vertex_index") {
			listIdx = i
			break
		}
	}
	if listIdx < 0 {
		for i, p := range el.props {
			if p.countType != "" {
				listIdx = i
				break
			}
		}
	}
	if listIdx < 0 {
		return fmt.Errorf("%w: face element has no list property", ErrInvalidPLYHeader)
	}

	for i := 0; i < el.count; i++ {
		for j, p := range el.props {
			if p.countType == "" {
				if _, err := r.read(p.typ); err != nil {
					return err
				}
				continue
			}
			items, err := readPLYList(r, p)
			if err != nil {
				return err
			}
			if j != listIdx || len(items) < 3 {
				continue
			}
			polygon := make([]int, len(items))
			for k, f := range items {
				polygon[k] = int(f)
			}
			obj.Faces = fan(obj.Faces, polygon)
		}
	}
	return nil
}

func skipPLYElement(r plyValueReader, el plyElement) error {
	for i := 0; i < el.count; i++ {
		for _, p := range el.props {
			var err error
			if p.countType != "" {
				_, err = readPLYList(r, p)
			} else {
				_, err = r.read(p.typ)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func readPLYList(r plyValueReader, p plyProperty) ([]float64, error) {
	n, err := r.read(p.countType)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > 1<<20 {
		return nil, fmt.Errorf("%w: list length %v", ErrInvalidPLYHeader, n)
	}
	items := make([]float64, int(n))
	for i := range items {
		if items[i], err = r.read(p.typ); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// plyValueReader yields successive scalar values of the body.
type plyValueReader interface {
	read(typ string) (float64, error)
}

type plyASCIIReader struct {
	fields []string
	pos    int
}

func (r *plyASCIIReader) read(string) (float64, error) {
	if r.pos >= len(r.fields) {
		return 0, ErrTruncatedPLYData
	}
	tok := r.fields[r.pos]
	r.pos++
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad value %q", ErrInvalidPLYHeader, tok)
	}
	return f, nil
}

type plyBinaryReader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

func (r *plyBinaryReader) read(typ string) (float64, error) {
	size := plySizes[typ]
	if r.pos+size > len(r.data) {
		return 0, ErrTruncatedPLYData
	}
	b := r.data[r.pos : r.pos+size]
	r.pos += size

	switch typ {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(r.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(r.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(r.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(r.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(r.order.Uint32(b))), nil
	default: // double, float64
		return math.Float64frombits(r.order.Uint64(b)), nil
	}
}
