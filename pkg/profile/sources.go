package profile

import (
	"fmt"

	"github.com/chazu/railsweep/pkg/kernel"
	"github.com/chazu/railsweep/pkg/mesh"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"honnef.co/go/curve"
)

// FromOutline flattens a chain of cubic Bézier segments in the XY plane into
// a swept ring. points holds the start point followed by three points
// (control, control, end) per segment. The polyline stays within tolerance
// of the curve, so tight corners get more vertices than gentle ones and
// straight segments collapse to their end points.
func FromOutline(name string, points []v2.Vec, tolerance float64, opts Options) (*Profile, error) {
	if len(points) < 4 || (len(points)-1)%3 != 0 {
		return nil, fmt.Errorf("profile %q: %w: outline needs 1+3k points, got %d",
			name, ErrInvalidProfile, len(points))
	}
	if !(tolerance > 0) {
		return nil, fmt.Errorf("profile %q: %w: outline tolerance must be positive, got %v",
			name, ErrInvalidProfile, tolerance)
	}

	pt := func(p v2.Vec) curve.Point { return curve.Pt(p.X, p.Y) }

	var path curve.BezPath
	path.MoveTo(pt(points[0]))
	for i := 1; i < len(points); i += 3 {
		path.CubicTo(pt(points[i]), pt(points[i+1]), pt(points[i+2]))
	}

	var ring []v3.Vec
	for el := range path.Flatten(tolerance) {
		switch el.Kind {
		case curve.MoveToKind, curve.LineToKind:
			ring = append(ring, v3.Vec{X: el.P0.X, Y: el.P0.Y})
		}
	}
	return New(name, ring, opts)
}

// FromMesh creates a profile from a loaded mesh. A mesh with triangles
// becomes a stamped profile, otherwise its vertices form a swept ring.
func FromMesh(name string, m *mesh.Mesh, opts Options) (*Profile, error) {
	if m == nil || m.IsEmpty() {
		return nil, fmt.Errorf("profile %q: %w: mesh has no vertices", name, ErrInvalidProfile)
	}
	if m.TriangleCount() == 0 {
		return New(name, m.Vertices, opts)
	}
	return NewStamped(name, m.Vertices, m.Indices, m.Normals, m.UVs, opts)
}

// FromSolid tessellates a kernel solid into a stamped profile. The kernel
// mesh carries no texture coordinates, so they are projected onto the XZ
// plane of the solid's bounding box.
func FromSolid(name string, k kernel.Kernel, s kernel.Solid, opts Options) (*Profile, error) {
	m, err := k.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("profile %q: tessellate: %w", name, err)
	}
	if m.TriangleCount() == 0 {
		return nil, fmt.Errorf("profile %q: %w: solid produced no triangles", name, ErrInvalidProfile)
	}
	if len(m.UVs) != m.VertexCount() {
		m.UVs = PlanarUVs(m)
	}
	return FromMesh(name, m, opts)
}

// PlanarUVs projects every vertex onto the XZ plane of the mesh bounds,
// mapping the bounds to the unit square.
func PlanarUVs(m *mesh.Mesh) []v2.Vec {
	box := m.Bounds()
	size := box.Max.Sub(box.Min)
	uvs := make([]v2.Vec, len(m.Vertices))
	for i, v := range m.Vertices {
		uvs[i] = v2.Vec{X: unitSpan(v.X-box.Min.X, size.X), Y: unitSpan(v.Z-box.Min.Z, size.Z)}
	}
	return uvs
}

func unitSpan(d, span float64) float64 {
	if span <= 0 {
		return 0
	}
	return d / span
}
