package mesh

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOrient(t *testing.T) {
	tests := []struct {
		name       string
		mesh       *Mesh
		wantChange bool
	}{
		{"x longest", box(6, 2, 1), true},
		{"y longest", box(1, 6, 2), true},
		{"z longest", box(1, 2, 6), false},
		{"x and y tie", box(4, 4, 1), true},
		{"all equal", unitCube(), false},
		{"z ties x", box(3, 1, 3), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := Orient(tt.mesh, OrientAxisAligned)
			if changed != tt.wantChange {
				t.Errorf("Orient changed = %v, want %v", changed, tt.wantChange)
			}

			ext := tt.mesh.Bounds().Extent()
			if ext.Z < ext.X || ext.Z < ext.Y {
				t.Errorf("vertical extent not dominant after Orient: %v", ext)
			}

			before := tt.mesh.Clone()
			if Orient(tt.mesh, OrientAxisAligned) {
				t.Error("second Orient reported a change")
			}
			if diff := cmp.Diff(before.Vertices, tt.mesh.Vertices); diff != "" {
				t.Errorf("second Orient moved vertices (-before +after):\n%s", diff)
			}
		})
	}
}

func TestOrient_AxisMapping(t *testing.T) {
	m := box(6, 2, 1)
	Orient(m, OrientAxisAligned)
	if got := m.Bounds().Extent(); got.X != 1 || got.Y != 2 || got.Z != 6 {
		t.Errorf("x longest: got extent %v, want (1, 2, 6)", got)
	}

	m = box(1, 6, 2)
	Orient(m, OrientAxisAligned)
	if got := m.Bounds().Extent(); got.X != 1 || got.Y != 2 || got.Z != 6 {
		t.Errorf("y longest: got extent %v, want (1, 2, 6)", got)
	}
}

func TestOrient_LegacyX(t *testing.T) {
	// Y longest works the same way as the axis aligned strategy.
	m := box(1, 6, 2)
	Orient(m, OrientLegacyX)
	if got := m.Bounds().Extent(); got.Z != 6 {
		t.Errorf("y longest: got extent %v, want z = 6", got)
	}

	// X longest stays horizontal: the rotation about X only swaps Y and Z.
	m = box(6, 2, 1)
	Orient(m, OrientLegacyX)
	if got := m.Bounds().Extent(); got.X != 6 || got.Z != 2 {
		t.Errorf("x longest: got extent %v, want (6, 1, 2)", got)
	}
	if !Orient(m, OrientLegacyX) {
		t.Error("legacy strategy should rotate again when X is longest")
	}
}

func TestOrient_None(t *testing.T) {
	m := box(6, 2, 1)
	if Orient(m, OrientNone) {
		t.Error("OrientNone reported a change")
	}
	if got := m.Bounds().Extent(); got.X != 6 {
		t.Errorf("OrientNone moved the mesh: %v", got)
	}
}

func TestParseOrientStrategy(t *testing.T) {
	for _, s := range []OrientStrategy{OrientAxisAligned, OrientLegacyX, OrientNone} {
		got, err := ParseOrientStrategy(s.String())
		if err != nil {
			t.Fatalf("ParseOrientStrategy(%q) failed: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseOrientStrategy(%q) = %v", s, got)
		}
	}

	if _, err := ParseOrientStrategy("diagonal"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
