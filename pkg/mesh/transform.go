package mesh

import (
	gomath "math"

	"github.com/Faultbox/topomap/pkg/math"
	"github.com/Faultbox/topomap/pkg/topoerr"
)

// Transform holds the user-controlled placement of a mesh.
type Transform struct {
	Rotation    [3]float64 // degrees about X, Y, Z
	Pivot       math.Vec3
	Translation math.Vec3
	Scale       float64
}

// IdentityTransform returns a transform that only centers the mesh.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// NormalizeAngle maps an angle in degrees into [-180, 180].
func NormalizeAngle(deg float64) float64 {
	deg = gomath.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg > 180 {
		deg -= 360
	}
	return deg
}

// Normalized returns a copy with all rotation angles normalized.
func (t Transform) Normalized() Transform {
	for i := range t.Rotation {
		t.Rotation[i] = NormalizeAngle(t.Rotation[i])
	}
	return t
}

// Validate checks the transform parameters.
func (t Transform) Validate() error {
	if !(t.Scale > 0) || gomath.IsInf(t.Scale, 0) {
		return topoerr.New(topoerr.KindTransform, "scale must be a positive finite number, got %v", t.Scale)
	}
	for i, a := range t.Rotation {
		if gomath.IsNaN(a) || gomath.IsInf(a, 0) {
			return topoerr.New(topoerr.KindTransform, "rotation %c is not finite", "XYZ"[i])
		}
	}
	if !t.Pivot.IsFinite() {
		return topoerr.New(topoerr.KindTransform, "pivot is not finite: %v", t.Pivot)
	}
	if !t.Translation.IsFinite() {
		return topoerr.New(topoerr.KindTransform, "translation is not finite: %v", t.Translation)
	}
	return nil
}

// Apply runs the transform stages on m in a fixed order: center on the
// surface centroid, subtract the pivot, rotate about X then Y then Z,
// scale, and translate. The transform is validated before any vertex is
// touched.
func Apply(m *Mesh, t Transform) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.Normalized()

	centroid := m.Centroid()
	eachVertex(m, func(v math.Vec3) math.Vec3 { return v.Sub(centroid) })

	if t.Pivot != (math.Vec3{}) {
		eachVertex(m, func(v math.Vec3) math.Vec3 { return v.Sub(t.Pivot) })
	}

	// Each axis is a separate multiply so that the X, Y, Z order is explicit.
	rotations := [3]func(float64) math.Mat4{math.RotateX, math.RotateY, math.RotateZ}
	for axis, deg := range t.Rotation {
		if deg == 0 {
			continue
		}
		TransformBy(m, rotations[axis](math.Radians(deg)))
	}

	if t.Scale != 1 {
		TransformBy(m, math.Scale(t.Scale, t.Scale, t.Scale))
	}

	if tr := t.Translation; tr != (math.Vec3{}) {
		TransformBy(m, math.Translate(tr.X, tr.Y, tr.Z))
	}
	return nil
}

// TransformBy multiplies every vertex by mat.
func TransformBy(m *Mesh, mat math.Mat4) {
	eachVertex(m, mat.TransformVec3)
}
