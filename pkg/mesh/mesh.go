// Package mesh holds the triangle mesh produced by sweeping profiles along
// a track, plus the merge and normal helpers the assembler needs.
package mesh

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is an indexed triangle mesh. Indices holds three entries per
// triangle. Normals and UVs are per vertex and may be empty.
type Mesh struct {
	Name     string
	Vertices []v3.Vec
	Indices  []int
	Normals  []v3.Vec
	UVs      []v2.Vec
}

// New allocates a mesh with room for the given vertex and index counts.
// Normals and UVs are sized to match the vertices.
func New(name string, vertices, indices int) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]v3.Vec, vertices),
		Indices:  make([]int, indices),
		Normals:  make([]v3.Vec, vertices),
		UVs:      make([]v2.Vec, vertices),
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty reports whether the mesh has no geometry.
func (m *Mesh) IsEmpty() bool { return len(m.Vertices) == 0 }

// Validate checks that every index is in range and that the per-vertex
// arrays are either empty or match the vertex count.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q: index count %d is not a multiple of 3", m.Name, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return fmt.Errorf("mesh %q: index %d at %d out of range [0,%d)", m.Name, idx, i, len(m.Vertices))
		}
	}
	if n := len(m.Normals); n != 0 && n != len(m.Vertices) {
		return fmt.Errorf("mesh %q: %d normals for %d vertices", m.Name, n, len(m.Vertices))
	}
	if n := len(m.UVs); n != 0 && n != len(m.Vertices) {
		return fmt.Errorf("mesh %q: %d uvs for %d vertices", m.Name, n, len(m.Vertices))
	}
	return nil
}

// Append adds the geometry of other to m, offsetting its indices by the
// current vertex count.
func (m *Mesh) Append(other *Mesh) {
	offset := len(m.Vertices)
	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Normals = append(m.Normals, padded(other.Normals, len(other.Vertices))...)
	m.UVs = append(m.UVs, paddedUV(other.UVs, len(other.Vertices))...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, idx+offset)
	}
}

// Merge combines fragments into one mesh named name.
func Merge(name string, fragments ...*Mesh) *Mesh {
	vertices, indices := 0, 0
	for _, f := range fragments {
		vertices += len(f.Vertices)
		indices += len(f.Indices)
	}
	out := &Mesh{
		Name:     name,
		Vertices: make([]v3.Vec, 0, vertices),
		Indices:  make([]int, 0, indices),
		Normals:  make([]v3.Vec, 0, vertices),
		UVs:      make([]v2.Vec, 0, vertices),
	}
	for _, f := range fragments {
		out.Append(f)
	}
	return out
}

// RecalculateNormals replaces the normals with the normalized sum of the
// face normals around each vertex. Larger faces weigh more. Vertices that
// touch no triangle get a zero normal.
func (m *Mesh) RecalculateNormals() {
	normals := make([]v3.Vec, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		face := m.Vertices[b].Sub(m.Vertices[a]).Cross(m.Vertices[c].Sub(m.Vertices[a]))
		normals[a] = normals[a].Add(face)
		normals[b] = normals[b].Add(face)
		normals[c] = normals[c].Add(face)
	}
	for i, n := range normals {
		if l := n.Length(); l > 0 {
			normals[i] = n.MulScalar(1 / l)
		}
	}
	m.Normals = normals
}

// Triangles expands the mesh into a triangle soup for STL export.
func (m *Mesh) Triangles() []*sdf.Triangle3 {
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tris = append(tris, &sdf.Triangle3{
			m.Vertices[m.Indices[i]],
			m.Vertices[m.Indices[i+1]],
			m.Vertices[m.Indices[i+2]],
		})
	}
	return tris
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() sdf.Box3 {
	if len(m.Vertices) == 0 {
		return sdf.Box3{}
	}
	lo, hi := m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = v3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = v3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return sdf.Box3{Min: lo, Max: hi}
}

func padded(normals []v3.Vec, n int) []v3.Vec {
	if len(normals) == n {
		return normals
	}
	return make([]v3.Vec, n)
}

func paddedUV(uvs []v2.Vec, n int) []v2.Vec {
	if len(uvs) == n {
		return uvs
	}
	return make([]v2.Vec, n)
}
