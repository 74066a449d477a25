// Package kernel defines the solid-modeling interface used to build stamped
// profiles such as sleepers, chairs and bolts. A solid is modelled in the
// profile's local frame (x left, y up, z along the track) and tessellated
// once; the sweep then stamps the resulting mesh at every curve point.
package kernel

import "github.com/chazu/railsweep/pkg/mesh"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds and tessellates solids. Primitives are centred on the
// origin.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error) // axis along z
	Sphere(radius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// ToMesh tessellates the solid into an indexed mesh with per-vertex
	// normals and no texture coordinates.
	ToMesh(s Solid) (*mesh.Mesh, error)
}
