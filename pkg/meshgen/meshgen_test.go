package meshgen

import (
	"bytes"
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/topomap/pkg/formats"
	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/mesh"
)

func TestCube(t *testing.T) {
	m := Cube(1)
	if len(m.Vertices) != 8 || len(m.Faces) != 12 {
		t.Fatalf("got %d vertices / %d faces, want 8 / 12", len(m.Vertices), len(m.Faces))
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	b := m.Bounds()
	if b.Min != (math.Vec3{X: -0.5, Y: -0.5, Z: -0.5}) || b.Max != (math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}) {
		t.Errorf("bounds: got %+v", b)
	}
	if got := m.SurfaceArea(); gomath.Abs(got-6) > 1e-12 {
		t.Errorf("area: got %v, want 6", got)
	}
}

func TestSphere(t *testing.T) {
	m, err := Sphere(1, 16)
	if err != nil {
		t.Fatalf("Sphere failed: %v", err)
	}
	if len(m.Faces) == 0 {
		t.Fatal("sphere has no faces")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	ext := m.Bounds().Extent()
	for axis := 0; axis < 3; axis++ {
		if d := ext.Axis(axis); gomath.Abs(d-2) > 0.25 {
			t.Errorf("axis %d extent: got %v, want about 2", axis, d)
		}
	}

	// Marching cubes corners are welded, so most vertices are shared.
	if len(m.Vertices) >= 3*len(m.Faces) {
		t.Errorf("vertices were not welded: %d vertices for %d faces", len(m.Vertices), len(m.Faces))
	}
}

func TestGenerate(t *testing.T) {
	for _, shape := range Shapes {
		t.Run(shape, func(t *testing.T) {
			m, err := Generate(shape, 12)
			if err != nil {
				t.Fatalf("Generate(%q) failed: %v", shape, err)
			}
			if len(m.Faces) == 0 {
				t.Errorf("Generate(%q) produced no faces", shape)
			}
		})
	}

	if _, err := Generate("teapot", 12); err == nil {
		t.Error("expected error for unknown shape")
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	for _, format := range []formats.Format{formats.FormatSTL, formats.FormatOBJ} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, Cube(2), format); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			m, err := mesh.Decode(buf.Bytes(), format)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(m.Vertices) != 8 || len(m.Faces) != 12 {
				t.Errorf("got %d vertices / %d faces, want 8 / 12", len(m.Vertices), len(m.Faces))
			}
			if got := m.Bounds().Extent(); got != (math.Vec3{X: 2, Y: 2, Z: 2}) {
				t.Errorf("extent: got %v", got)
			}
		})
	}
}

func TestWrite_Unsupported(t *testing.T) {
	err := Write(&bytes.Buffer{}, Cube(1), formats.FormatFBX)
	if !errors.Is(err, formats.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
