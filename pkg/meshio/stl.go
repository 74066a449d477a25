package meshio

import (
	"errors"
	"fmt"

	"github.com/chazu/railsweep/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// SaveSTL writes the triangles of every mesh into one binary STL file.
func SaveSTL(path string, meshes ...*mesh.Mesh) error {
	var tris []*sdf.Triangle3
	for _, m := range meshes {
		tris = append(tris, m.Triangles()...)
	}
	if len(tris) == 0 {
		return errors.New("save stl: no triangles")
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("save stl %s: %w", path, err)
	}
	return nil
}
