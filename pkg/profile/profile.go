// Package profile models the cross-sections swept along a track.
//
// A profile without triangles is a bare ring that is swept: consecutive
// rings are stitched into a tube-like surface. A profile with triangles is
// a complete object that is stamped once per curve point.
package profile

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInvalidProfile is returned when profile geometry or options are
// inconsistent.
var ErrInvalidProfile = errors.New("invalid profile")

var validate = validator.New()

// Options control how a profile is placed along the curve.
type Options struct {
	SizeX float64 `yaml:"size_x" validate:"gt=0"`
	SizeY float64 `yaml:"size_y" validate:"gt=0"`
	SizeZ float64 `yaml:"size_z" validate:"gt=0"`

	// Offsets are applied in the curve's left/up plane after scaling.
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`

	// Symmetry adds a copy mirrored across the curve: lateral components are
	// negated and the winding reversed, so both copies face outward.
	Symmetry bool `yaml:"symmetry"`

	Loop        bool `yaml:"loop"`         // close the ring seam
	FlipNormals bool `yaml:"flip_normals"` // reverse triangle winding
	Enabled     bool `yaml:"enabled"`

	// Material names the material the exported mesh groups reference.
	Material string `yaml:"material"`
}

// DefaultOptions returns unit sizes, no offset, enabled.
func DefaultOptions() Options {
	return Options{SizeX: 1, SizeY: 1, SizeZ: 1, Enabled: true}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%w: %s must be %s %s", ErrInvalidProfile, e.Field(), e.Tag(), e.Param())
		}
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return nil
}

// Profile is a named cross-section.
type Profile struct {
	Name    string
	Options Options

	vertices  []v3.Vec
	triangles []int
	normals   []v3.Vec
	uvs       []v2.Vec

	// order maps raw vertex index to ring position. nil until normalized.
	order []int
}

// New creates a swept profile from a ring of local vertices.
func New(name string, vertices []v3.Vec, opts Options) (*Profile, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}
	return &Profile{Name: name, Options: opts, vertices: vertices}, nil
}

// NewStamped creates a stamped profile from a complete object. Normals and
// UVs must be empty or match the vertex count.
func NewStamped(name string, vertices []v3.Vec, triangles []int, normals []v3.Vec, uvs []v2.Vec, opts Options) (*Profile, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}
	if len(triangles)%3 != 0 {
		return nil, fmt.Errorf("profile %q: %w: %d triangle indices is not a multiple of 3",
			name, ErrInvalidProfile, len(triangles))
	}
	for _, idx := range triangles {
		if idx < 0 || idx >= len(vertices) {
			return nil, fmt.Errorf("profile %q: %w: triangle index %d out of range [0,%d)",
				name, ErrInvalidProfile, idx, len(vertices))
		}
	}
	if len(normals) != 0 && len(normals) != len(vertices) {
		return nil, fmt.Errorf("profile %q: %w: %d normals for %d vertices",
			name, ErrInvalidProfile, len(normals), len(vertices))
	}
	if len(uvs) != 0 && len(uvs) != len(vertices) {
		return nil, fmt.Errorf("profile %q: %w: %d uvs for %d vertices",
			name, ErrInvalidProfile, len(uvs), len(vertices))
	}
	return &Profile{
		Name:      name,
		Options:   opts,
		vertices:  vertices,
		triangles: triangles,
		normals:   normals,
		uvs:       uvs,
	}, nil
}

// Stamped reports whether the profile carries its own triangles.
func (p *Profile) Stamped() bool { return len(p.triangles) > 0 }

// VertexCount returns the number of raw vertices.
func (p *Profile) VertexCount() int { return len(p.vertices) }

// Vertices returns the raw vertices in input order.
func (p *Profile) Vertices() []v3.Vec { return p.vertices }

// Triangles returns the stamped triangle indices.
func (p *Profile) Triangles() []int { return p.triangles }

// Normals returns the stamped per-vertex normals.
func (p *Profile) Normals() []v3.Vec { return p.normals }

// UVs returns the stamped per-vertex texture coordinates.
func (p *Profile) UVs() []v2.Vec { return p.uvs }

// SetVertices replaces the raw vertices and drops the cached ring order.
func (p *Profile) SetVertices(vertices []v3.Vec) {
	p.vertices = vertices
	p.order = nil
}

// Normalized reports whether the ring order is cached.
func (p *Profile) Normalized() bool { return p.order != nil }

// Order returns the ring position of every raw vertex, computing it on
// first use.
func (p *Profile) Order() []int {
	if p.order == nil {
		p.order = Normalize(p.vertices)
	}
	return p.order
}

// Ring returns the raw vertices rearranged into ring order.
func (p *Profile) Ring() []v3.Vec {
	order := p.Order()
	ring := make([]v3.Vec, len(order))
	for i, k := range order {
		ring[k] = p.vertices[i]
	}
	return ring
}

// RingLength returns the length of the open ring polyline before sizing.
func (p *Profile) RingLength() float64 {
	ring := p.Ring()
	total := 0.0
	for k := 1; k < len(ring); k++ {
		total += ring[k].Sub(ring[k-1]).Length()
	}
	return total
}
