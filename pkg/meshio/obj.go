// Package meshio reads and writes generated meshes: Wavefront OBJ for
// profile input and export, STL for printing and CAD tools, and a JSON
// payload for viewers.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/railsweep/pkg/mesh"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// faceVert is one v/vt/vn reference of a face, zero-based, -1 when absent.
type faceVert struct {
	position, texco, normal int
}

// ReadOBJ parses positions, texture coordinates, normals and faces.
// Polygons are fan triangulated and every distinct v/vt/vn combination
// becomes one mesh vertex. A file without faces yields its positions as a
// bare ring, which is how swept profiles are authored.
func ReadOBJ(r io.Reader, name string) (*mesh.Mesh, error) {
	var positions, normals []v3.Vec
	var texcos []v2.Vec
	var faces [][]faceVert

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		ident, args := fields[0], fields[1:]
		switch ident {
		case "o":
			if len(args) > 0 && name == "" {
				name = args[0]
			}
		case "v", "vn":
			v, err := parseVec3(args)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %s: %w", lineNo, ident, err)
			}
			if ident == "v" {
				positions = append(positions, v)
			} else {
				normals = append(normals, v)
			}
		case "vt":
			v, err := parseFloats(args, 2)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: vt: %w", lineNo, err)
			}
			texcos = append(texcos, v2.Vec{X: v[0], Y: v[1]})
		case "f":
			if len(args) < 3 {
				return nil, fmt.Errorf("obj line %d: face needs at least 3 vertices, got %d", lineNo, len(args))
			}
			face := make([]faceVert, len(args))
			for i, s := range args {
				fv, err := parseFaceVert(s, len(positions), len(texcos), len(normals))
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
				}
				face[i] = fv
			}
			faces = append(faces, face)
		default:
			// Materials, groups, smoothing and lines carry nothing we use.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	if len(faces) == 0 {
		return &mesh.Mesh{Name: name, Vertices: positions}, nil
	}
	return buildIndexed(name, positions, texcos, normals, faces), nil
}

// LoadOBJ reads an OBJ file. The mesh is named after the first object
// statement, or the file name when there is none.
func LoadOBJ(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load obj: %w", err)
	}
	defer f.Close()

	m, err := ReadOBJ(f, "")
	if err != nil {
		return nil, fmt.Errorf("load obj %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

func buildIndexed(name string, positions []v3.Vec, texcos []v2.Vec, normals []v3.Vec, faces [][]faceVert) *mesh.Mesh {
	m := &mesh.Mesh{Name: name}
	hasTex, hasNorm := true, true
	for _, face := range faces {
		for _, fv := range face {
			hasTex = hasTex && fv.texco >= 0
			hasNorm = hasNorm && fv.normal >= 0
		}
	}

	seen := make(map[faceVert]int)
	index := func(fv faceVert) int {
		if i, ok := seen[fv]; ok {
			return i
		}
		i := len(m.Vertices)
		seen[fv] = i
		m.Vertices = append(m.Vertices, positions[fv.position])
		if hasTex {
			m.UVs = append(m.UVs, texcos[fv.texco])
		}
		if hasNorm {
			m.Normals = append(m.Normals, normals[fv.normal])
		}
		return i
	}

	for _, face := range faces {
		first := index(face[0])
		for k := 1; k+1 < len(face); k++ {
			m.Indices = append(m.Indices, first, index(face[k]), index(face[k+1]))
		}
	}
	return m
}

func parseVec3(args []string) (v3.Vec, error) {
	v, err := parseFloats(args, 3)
	if err != nil {
		return v3.Vec{}, err
	}
	return v3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

func parseFloats(args []string, n int) ([]float64, error) {
	if len(args) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// parseFaceVert parses v, v/vt, v//vn or v/vt/vn. Negative indices count
// back from the end of the lists read so far.
func parseFaceVert(s string, np, nt, nn int) (faceVert, error) {
	parts := strings.Split(s, "/")
	fv := faceVert{position: -1, texco: -1, normal: -1}

	resolve := func(field string, count int) (int, error) {
		if field == "" {
			return -1, nil
		}
		i, err := strconv.Atoi(field)
		if err != nil {
			return 0, fmt.Errorf("face index %q: %w", field, err)
		}
		if i < 0 {
			i = count + i
		} else {
			i-- // obj indices start at 1
		}
		if i < 0 || i >= count {
			return 0, fmt.Errorf("face index %q out of range [1,%d]", field, count)
		}
		return i, nil
	}

	var err error
	if fv.position, err = resolve(parts[0], np); err != nil {
		return fv, err
	}
	if fv.position < 0 {
		return fv, fmt.Errorf("face vertex %q has no position", s)
	}
	if len(parts) > 1 {
		if fv.texco, err = resolve(parts[1], nt); err != nil {
			return fv, err
		}
	}
	if len(parts) > 2 {
		if fv.normal, err = resolve(parts[2], nn); err != nil {
			return fv, err
		}
	}
	return fv, nil
}

// WriteOBJ writes every mesh as its own object. Indices continue across
// objects as the format requires.
func WriteOBJ(w io.Writer, meshes ...*mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	offset := 1
	for _, m := range meshes {
		fmt.Fprintf(bw, "o %s\n", objName(m.Name))
		for _, v := range m.Vertices {
			fmt.Fprintf(bw, "v %s %s %s\n", ff(v.X), ff(v.Y), ff(v.Z))
		}
		hasTex := len(m.UVs) == len(m.Vertices) && len(m.UVs) > 0
		hasNorm := len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0
		if hasTex {
			for _, uv := range m.UVs {
				fmt.Fprintf(bw, "vt %s %s\n", ff(uv.X), ff(uv.Y))
			}
		}
		if hasNorm {
			for _, n := range m.Normals {
				fmt.Fprintf(bw, "vn %s %s %s\n", ff(n.X), ff(n.Y), ff(n.Z))
			}
		}
		for i := 0; i+2 < len(m.Indices); i += 3 {
			bw.WriteString("f")
			for _, idx := range m.Indices[i : i+3] {
				ref := idx + offset
				switch {
				case hasTex && hasNorm:
					fmt.Fprintf(bw, " %d/%d/%d", ref, ref, ref)
				case hasTex:
					fmt.Fprintf(bw, " %d/%d", ref, ref)
				case hasNorm:
					fmt.Fprintf(bw, " %d//%d", ref, ref)
				default:
					fmt.Fprintf(bw, " %d", ref)
				}
			}
			bw.WriteString("\n")
		}
		offset += len(m.Vertices)
	}
	return bw.Flush()
}

// SaveOBJ writes meshes to an OBJ file.
func SaveOBJ(path string, meshes ...*mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save obj: %w", err)
	}
	if err := WriteOBJ(f, meshes...); err != nil {
		f.Close()
		return fmt.Errorf("save obj %s: %w", path, err)
	}
	return f.Close()
}

func ff(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func objName(name string) string {
	if name == "" {
		return "mesh"
	}
	return strings.ReplaceAll(name, " ", "_")
}
