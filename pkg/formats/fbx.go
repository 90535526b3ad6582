// Binary FBX parser. Only the geometry of "Geometry" objects is decoded.
package formats

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// FBX format errors.
var (
	ErrInvalidFBXMagic  = errors.New("invalid FBX magic: expected 'Kaydara FBX Binary'")
	ErrUnsupportedFBX   = errors.New("unsupported FBX variant")
	ErrTruncatedFBXData = errors.New("truncated FBX data")
	ErrInvalidFBXNode   = errors.New("invalid FBX node")
	ErrFBXArrayTooLarge = errors.New("FBX arrays exceed the inflate limit")
)

const (
	fbxMagic      = "Kaydara FBX Binary  \x00"
	fbxHeaderSize = 27 // magic(21) + 0x1A 0x00 + version(4)
)

// fbxNode is a decoded node record. Only the property kinds the geometry
// extraction needs are kept; everything else is skipped.
type fbxNode struct {
	Name     string
	Props    []any // int64, float64, string, []int64, []float64
	Children []*fbxNode
}

func (n *fbxNode) child(name string) *fbxNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ParseFBX parses binary FBX data with default options. Each Geometry node
// that carries both Vertices and PolygonVertexIndex becomes one object, in
// file order.
func ParseFBX(data []byte) (*Scene, error) {
	return ParseFBXWith(data, Options{})
}

// ParseFBXWith is ParseFBX with explicit limits. Compressed arrays count
// against opts.MaxInflated before they are decompressed.
func ParseFBXWith(data []byte, opts Options) (*Scene, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(";")) {
		return nil, fmt.Errorf("%w: ascii FBX", ErrUnsupportedFBX)
	}
	if len(data) < fbxHeaderSize {
		return nil, ErrTruncatedFBXData
	}
	if string(data[:len(fbxMagic)]) != fbxMagic {
		return nil, ErrInvalidFBXMagic
	}

	p := &fbxParser{
		data:    data,
		pos:     fbxHeaderSize,
		version: binary.LittleEndian.Uint32(data[23:27]),
		inflate: opts.maxInflated(),
	}
	if p.version < 7000 {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFBX, p.version)
	}

	var roots []*fbxNode
	for p.pos < len(data) {
		node, err := p.readNode()
		if err != nil {
			return nil, err
		}
		if node == nil {
			break
		}
		roots = append(roots, node)
	}

	scene := &Scene{}
	for _, root := range roots {
		if root.Name != "Objects" {
			continue
		}
		for _, n := range root.Children {
			if n.Name != "Geometry" {
				continue
			}
			obj, ok, err := fbxGeometry(n)
			if err != nil {
				return nil, err
			}
			if ok {
				scene.Objects = append(scene.Objects, obj)
			}
		}
	}
	return scene, nil
}

func fbxGeometry(n *fbxNode) (Object, bool, error) {
	vn, in := n.child("Vertices"), n.child("PolygonVertexIndex")
	if vn == nil || in == nil || len(vn.Props) == 0 || len(in.Props) == 0 {
		return Object{}, false, nil
	}

	coords, ok := fbxFloats(vn.Props[0])
	if !ok || len(coords)%3 != 0 {
		return Object{}, false, fmt.Errorf("%w: Vertices is not a coordinate array", ErrInvalidFBXNode)
	}
	indices, ok := fbxInts(in.Props[0])
	if !ok {
		return Object{}, false, fmt.Errorf("%w: PolygonVertexIndex is not an index array", ErrInvalidFBXNode)
	}

	obj := Object{Name: fbxObjectName(n)}
	obj.Vertices = make([][3]float64, len(coords)/3)
	for i := range obj.Vertices {
		obj.Vertices[i] = [3]float64{coords[3*i], coords[3*i+1], coords[3*i+2]}
	}

	// A negative index closes a polygon and encodes the vertex as ^index.
	var polygon []int
	for _, raw := range indices {
		last := raw < 0
		if last {
			raw = ^raw
		}
		if raw >= int64(len(obj.Vertices)) {
			return Object{}, false, fmt.Errorf("%w: polygon index %d out of range", ErrInvalidFBXNode, raw)
		}
		polygon = append(polygon, int(raw))
		if last {
			obj.Faces = fan(obj.Faces, polygon)
			polygon = polygon[:0]
		}
	}

	return obj, len(obj.Faces) > 0, nil
}

// fbxObjectName extracts "Cube" from the "Cube\x00\x01Geometry" name property.
func fbxObjectName(n *fbxNode) string {
	for _, p := range n.Props {
		if s, ok := p.(string); ok {
			if i := strings.Index(s, "\x00\x01"); i >= 0 {
				s = s[:i]
			}
			if s != "" {
				return s
			}
		}
	}
	return "geometry"
}

func fbxFloats(v any) ([]float64, bool) {
	switch a := v.(type) {
	case []float64:
		return a, true
	case []int64:
		out := make([]float64, len(a))
		for i, x := range a {
			out[i] = float64(x)
		}
		return out, true
	}
	return nil, false
}

func fbxInts(v any) ([]int64, bool) {
	a, ok := v.([]int64)
	return a, ok
}

type fbxParser struct {
	data    []byte
	pos     int
	version uint32
	inflate int64 // remaining bytes compressed arrays may expand to
}

func (p *fbxParser) need(n int) error {
	if n < 0 || p.pos+n > len(p.data) {
		return ErrTruncatedFBXData
	}
	return nil
}

func (p *fbxParser) u8() (uint8, error) {
	if err := p.need(1); err != nil {
		return 0, err
	}
	v := p.data[p.pos]
	p.pos++
	return v, nil
}

func (p *fbxParser) u32() (uint32, error) {
	if err := p.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return v, nil
}

func (p *fbxParser) u64() (uint64, error) {
	if err := p.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(p.data[p.pos:])
	p.pos += 8
	return v, nil
}

// offset reads a record header field: 64 bit from version 7500 on.
func (p *fbxParser) offset() (uint64, error) {
	if p.version >= 7500 {
		return p.u64()
	}
	v, err := p.u32()
	return uint64(v), err
}

func (p *fbxParser) bytes(n int) ([]byte, error) {
	if err := p.need(n); err != nil {
		return nil, err
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

// readNode reads one node record. It returns nil at a null record, which
// terminates a node list.
func (p *fbxParser) readNode() (*fbxNode, error) {
	endOffset, err := p.offset()
	if err != nil {
		return nil, err
	}
	numProps, err := p.offset()
	if err != nil {
		return nil, err
	}
	if _, err := p.offset(); err != nil { // property list length
		return nil, err
	}
	nameLen, err := p.u8()
	if err != nil {
		return nil, err
	}
	if endOffset == 0 {
		return nil, nil
	}
	if endOffset > uint64(len(p.data)) || endOffset <= uint64(p.pos) {
		return nil, fmt.Errorf("%w: end offset %d out of range", ErrInvalidFBXNode, endOffset)
	}

	name, err := p.bytes(int(nameLen))
	if err != nil {
		return nil, err
	}
	node := &fbxNode{Name: string(name)}

	for i := uint64(0); i < numProps; i++ {
		prop, err := p.readProperty()
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name, err)
		}
		if prop != nil {
			node.Props = append(node.Props, prop)
		}
	}

	for uint64(p.pos) < endOffset {
		child, err := p.readNode()
		if err != nil {
			return nil, err
		}
		if child == nil {
			break
		}
		node.Children = append(node.Children, child)
	}
	p.pos = int(endOffset)

	return node, nil
}

func (p *fbxParser) readProperty() (any, error) {
	code, err := p.u8()
	if err != nil {
		return nil, err
	}

	switch code {
	case 'C':
		b, err := p.u8()
		return int64(b), err
	case 'Y':
		b, err := p.bytes(2)
		if err != nil {
			return nil, err
		}
		return int64(int16(binary.LittleEndian.Uint16(b))), nil
	case 'I':
		v, err := p.u32()
		return int64(int32(v)), err
	case 'L':
		v, err := p.u64()
		return int64(v), err
	case 'F':
		v, err := p.u32()
		return float64(math.Float32frombits(v)), err
	case 'D':
		v, err := p.u64()
		return math.Float64frombits(v), err
	case 'S', 'R':
		n, err := p.u32()
		if err != nil {
			return nil, err
		}
		b, err := p.bytes(int(n))
		if err != nil {
			return nil, err
		}
		if code == 'R' {
			return nil, nil
		}
		return string(b), nil
	case 'f', 'd', 'l', 'i', 'b':
		return p.readArray(code)
	default:
		return nil, fmt.Errorf("%w: unknown property type %q", ErrInvalidFBXNode, code)
	}
}

func (p *fbxParser) readArray(code byte) (any, error) {
	count, err := p.u32()
	if err != nil {
		return nil, err
	}
	encoding, err := p.u32()
	if err != nil {
		return nil, err
	}
	size, err := p.u32()
	if err != nil {
		return nil, err
	}
	raw, err := p.bytes(int(size))
	if err != nil {
		return nil, err
	}

	width := map[byte]int{'f': 4, 'd': 8, 'l': 8, 'i': 4, 'b': 1}[code]
	if encoding == 1 {
		want := int64(count) * int64(width)
		if want > p.inflate {
			return nil, fmt.Errorf("%w: array of %d bytes, %d left", ErrFBXArrayTooLarge, want, p.inflate)
		}
		p.inflate -= want
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: array: %v", ErrInvalidFBXNode, err)
		}
		defer zr.Close()
		raw, err = io.ReadAll(io.LimitReader(zr, want+1))
		if err != nil {
			return nil, fmt.Errorf("%w: array: %v", ErrInvalidFBXNode, err)
		}
	}
	if len(raw) != int(count)*width {
		return nil, fmt.Errorf("%w: array holds %d bytes, want %d", ErrTruncatedFBXData, len(raw), int(count)*width)
	}

	switch code {
	case 'f', 'd':
		out := make([]float64, count)
		for i := range out {
			if code == 'f' {
				out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
			} else {
				out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
			}
		}
		return out, nil
	default:
		out := make([]int64, count)
		for i := range out {
			switch code {
			case 'i':
				out[i] = int64(int32(binary.LittleEndian.Uint32(raw[4*i:])))
			case 'l':
				out[i] = int64(binary.LittleEndian.Uint64(raw[8*i:]))
			default:
				out[i] = int64(raw[i])
			}
		}
		return out, nil
	}
}
