package mesh

import (
	"fmt"
	"strings"

	"github.com/Faultbox/topomap/pkg/math"
)

// OrientStrategy selects how the longest horizontal axis is turned upright.
type OrientStrategy int

const (
	// OrientAxisAligned rotates about Y when X is longest and about X when Y
	// is longest, so the longest extent always ends up vertical.
	OrientAxisAligned OrientStrategy = iota

	// OrientLegacyX rotates about X in both cases. When X is the longest
	// extent this leaves it horizontal, so a second pass rotates again.
	OrientLegacyX

	// OrientNone disables auto-orientation.
	OrientNone
)

var orientNames = map[OrientStrategy]string{
	OrientAxisAligned: "axis",
	OrientLegacyX:     "legacy-x",
	OrientNone:        "none",
}

func (s OrientStrategy) String() string {
	if name, ok := orientNames[s]; ok {
		return name
	}
	return fmt.Sprintf("OrientStrategy(%d)", int(s))
}

// ParseOrientStrategy converts a strategy name back into its value.
func ParseOrientStrategy(name string) (OrientStrategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range orientNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown orientation strategy %q (want axis, legacy-x or none)", name)
}

// Orient rotates m by an exact quarter turn so that its longest bounding box
// extent lies along Z. It reports whether the mesh was changed. A mesh whose
// Z extent is already at least as large as both others is left alone, which
// makes a second call a no-op under OrientAxisAligned.
func Orient(m *Mesh, strategy OrientStrategy) bool {
	if strategy == OrientNone || len(m.Vertices) == 0 {
		return false
	}

	ext := m.Bounds().Extent()
	if ext.Z >= ext.X && ext.Z >= ext.Y {
		return false
	}

	// Ties between X and Y resolve to X.
	xLongest := ext.X >= ext.Y

	switch {
	case strategy == OrientAxisAligned && xLongest:
		eachVertex(m, quarterTurnY)
	default:
		eachVertex(m, quarterTurnX)
	}
	return true
}

// quarterTurnX is a +90 degree rotation about X: Y goes to Z.
func quarterTurnX(v math.Vec3) math.Vec3 {
	return math.Vec3{X: v.X, Y: -v.Z, Z: v.Y}
}

// quarterTurnY is a +90 degree rotation about Y: X goes to -Z.
func quarterTurnY(v math.Vec3) math.Vec3 {
	return math.Vec3{X: v.Z, Y: v.Y, Z: -v.X}
}

func eachVertex(m *Mesh, fn func(math.Vec3) math.Vec3) {
	for i, v := range m.Vertices {
		m.Vertices[i] = fn(v)
	}
}
