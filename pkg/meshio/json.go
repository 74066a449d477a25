package meshio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/chazu/railsweep/pkg/mesh"
)

// Palette assigns distinct colours to meshes in output order.
var Palette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the flat mesh format sent to viewers. Vertices and normals
// hold three floats per vertex, uvs two, indices three per triangle.
type MeshData struct {
	Name     string    `json:"name"`
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	UVs      []float32 `json:"uvs"`
	Indices  []uint32  `json:"indices"`
	Color    string    `json:"color"`
}

// Payload is the document written by WriteJSON.
type Payload struct {
	Meshes []MeshData `json:"meshes"`
}

// Flatten converts a mesh into the viewer format.
func Flatten(m *mesh.Mesh, color string) MeshData {
	d := MeshData{
		Name:     m.Name,
		Vertices: make([]float32, 0, len(m.Vertices)*3),
		Normals:  make([]float32, 0, len(m.Normals)*3),
		UVs:      make([]float32, 0, len(m.UVs)*2),
		Indices:  make([]uint32, 0, len(m.Indices)),
		Color:    color,
	}
	for _, v := range m.Vertices {
		d.Vertices = append(d.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
	}
	for _, n := range m.Normals {
		d.Normals = append(d.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for _, uv := range m.UVs {
		d.UVs = append(d.UVs, float32(uv.X), float32(uv.Y))
	}
	for _, i := range m.Indices {
		d.Indices = append(d.Indices, uint32(i))
	}
	return d
}

// NewPayload flattens meshes, colouring them from Palette.
func NewPayload(meshes ...*mesh.Mesh) Payload {
	p := Payload{Meshes: make([]MeshData, 0, len(meshes))}
	for i, m := range meshes {
		p.Meshes = append(p.Meshes, Flatten(m, Palette[i%len(Palette)]))
	}
	return p
}

// WriteJSON encodes meshes as a Payload.
func WriteJSON(w io.Writer, meshes ...*mesh.Mesh) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(NewPayload(meshes...)); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
