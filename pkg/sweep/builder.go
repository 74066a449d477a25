// Package sweep turns baked track segments and profiles into meshes.
package sweep

import (
	"fmt"

	"github.com/chazu/railsweep/pkg/mesh"
	"github.com/chazu/railsweep/pkg/profile"
	"github.com/chazu/railsweep/pkg/track"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Builder synthesizes the mesh fragment for one profile on one segment.
type Builder struct {
	// Resolution is the curve resolution the points were baked with. It
	// scales the v texture coordinate so textures tile once per ring length.
	Resolution float64
}

// SegmentPoints returns the points a profile is placed at for the segment
// starting at node. Swept profiles also use the first point of the next
// segment so consecutive fragments meet.
func SegmentPoints(node, next *track.Node, stamped bool) []track.CurvePoint {
	points := node.Points()
	if stamped || next == nil || len(next.Points()) == 0 {
		return points
	}
	joined := make([]track.CurvePoint, 0, len(points)+1)
	joined = append(joined, points...)
	return append(joined, next.Points()[0])
}

// Build creates the fragment for the segment starting at node.
func (b Builder) Build(p *profile.Profile, node, next *track.Node) (*mesh.Mesh, error) {
	points := SegmentPoints(node, next, p.Stamped())
	if p.Stamped() {
		return b.Stamped(p, points)
	}
	return b.Swept(p, points)
}

// SweptCounts returns the vertex and index counts of a swept fragment with
// the given point and ring sizes.
func SweptCounts(points, ring int, symmetry, loop bool) (vertices, indices int) {
	transitions := points - 1
	if transitions < 0 {
		transitions = 0
	}
	perTransition := 6*ring - 6
	if loop {
		perTransition = 6 * ring
	}
	vertices = points * ring
	indices = transitions * perTransition
	if symmetry {
		vertices *= 2
		indices *= 2
	}
	return vertices, indices
}

// frame places a local profile vertex at a curve point.
func frame(pt track.CurvePoint, v v3.Vec, opts profile.Options, mirror bool) v3.Vec {
	left := pt.Perpendicular
	if mirror {
		left = left.MulScalar(-1)
	}
	local := track.Up.MulScalar(v.Y * opts.SizeY).
		Add(left.MulScalar(v.X * opts.SizeX)).
		Add(pt.Direction.MulScalar(v.Z * opts.SizeZ))
	plane := left.MulScalar(opts.OffsetX).Add(track.Up.MulScalar(opts.OffsetY))
	return pt.Position.Add(local).Add(plane)
}

// Swept extrudes the profile ring along points. Ring k at point i is joined
// to ring k and k+1 at point i+1. With symmetry a mirrored copy across the
// curve is stored after the first half with reversed winding.
func (b Builder) Swept(p *profile.Profile, points []track.CurvePoint) (*mesh.Mesh, error) {
	ring := p.Ring()
	n := len(ring)
	if n < 2 {
		return nil, fmt.Errorf("sweep %q: %w: ring needs at least 2 vertices, got %d",
			p.Name, profile.ErrInvalidProfile, n)
	}
	opts := p.Options

	vertexCount, indexCount := SweptCounts(len(points), n, opts.Symmetry, opts.Loop)
	m := mesh.New(p.Name, vertexCount, indexCount)
	half := len(points) * n

	ringLength := p.RingLength()
	offsets := make([]float64, n)
	for k := 1; k < n; k++ {
		offsets[k] = offsets[k-1] + ring[k].Sub(ring[k-1]).Length()
	}

	for i, pt := range points {
		var v float64
		if ringLength > 0 && opts.SizeX > 0 && b.Resolution > 0 {
			v = float64(i) / ringLength / opts.SizeX / b.Resolution
		}
		for k, rv := range ring {
			idx := i*n + k
			var u float64
			if ringLength > 0 {
				u = offsets[k] / ringLength
			}
			m.Vertices[idx] = frame(pt, rv, opts, false)
			m.UVs[idx] = v2.Vec{X: u, Y: v}
			if opts.Symmetry {
				m.Vertices[idx+half] = frame(pt, rv, opts, true)
				m.UVs[idx+half] = v2.Vec{X: u, Y: v}
			}
		}
	}

	t := 0
	for iVert := 0; iVert+n < half; iVert++ {
		next := iVert + 1
		if (iVert+1)%n == 0 {
			if !opts.Loop {
				continue
			}
			next = iVert + 1 - n
		}
		// Reversed so the faces point away from the curve.
		m.Indices[t+0] = next
		m.Indices[t+1] = iVert + n
		m.Indices[t+2] = next + n
		m.Indices[t+3] = iVert + n
		m.Indices[t+4] = next
		m.Indices[t+5] = iVert
		t += 6
	}

	if opts.Symmetry {
		for j := 0; j < t; j += 3 {
			m.Indices[t+j+0] = m.Indices[j+1] + half
			m.Indices[t+j+1] = m.Indices[j+0] + half
			m.Indices[t+j+2] = m.Indices[j+2] + half
		}
		t *= 2
	}

	if t != indexCount {
		return nil, fmt.Errorf("sweep %q: wrote %d indices, sized for %d", p.Name, t, indexCount)
	}

	if opts.FlipNormals {
		flip(m.Indices)
	}
	return m, nil
}

// Stamped places a verbatim copy of the profile object at every point.
// Imported objects are assumed to wind the other way, so triangles are
// flipped unless FlipNormals is set.
func (b Builder) Stamped(p *profile.Profile, points []track.CurvePoint) (*mesh.Mesh, error) {
	if len(p.UVs()) == 0 {
		return nil, fmt.Errorf("sweep %q: %w", p.Name, ErrNoUVData)
	}
	opts := p.Options
	vertices := p.Vertices()
	triangles := p.Triangles()
	normals := p.Normals()
	uvs := p.UVs()
	vc, tc := len(vertices), len(triangles)

	m := mesh.New(p.Name, len(points)*vc, len(points)*tc)
	for i, pt := range points {
		base := i * vc
		for k, v := range vertices {
			m.Vertices[base+k] = frame(pt, v, opts, false)
		}
		for k, idx := range triangles {
			m.Indices[i*tc+k] = idx + base
		}
		copy(m.Normals[base:base+vc], normals)
		copy(m.UVs[base:base+vc], uvs)
	}

	if !opts.FlipNormals {
		flip(m.Indices)
	}
	return m, nil
}

// flip swaps the first two indices of every triangle.
func flip(indices []int) {
	for i := 0; i+2 < len(indices); i += 3 {
		indices[i], indices[i+1] = indices[i+1], indices[i]
	}
}
