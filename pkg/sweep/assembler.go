package sweep

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/railsweep/pkg/diag"
	"github.com/chazu/railsweep/pkg/mesh"
	"github.com/chazu/railsweep/pkg/profile"
	"github.com/chazu/railsweep/pkg/track"
)

// ProfileError records why one profile produced no mesh.
type ProfileError struct {
	Profile string
	Err     error
}

func (e ProfileError) Error() string { return fmt.Sprintf("profile %s: %v", e.Profile, e.Err) }

func (e ProfileError) Unwrap() error { return e.Err }

// Result holds the meshes of a run. A failing profile is listed in Failures
// and has no mesh; the other profiles are unaffected.
type Result struct {
	Meshes   []*mesh.Mesh
	Failures []ProfileError
	Stats    GenerationStats
}

// Err joins the profile failures, nil when every profile succeeded.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Mesh returns the mesh generated for the named profile, or nil.
func (r *Result) Mesh(name string) *mesh.Mesh {
	for _, m := range r.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Assembler generates one mesh per enabled profile from a baked network.
type Assembler struct {
	builder Builder
	sink    diag.Sink
}

// NewAssembler creates an assembler for curves baked at resolution.
func NewAssembler(resolution float64, sink diag.Sink) *Assembler {
	return &Assembler{
		builder: Builder{Resolution: resolution},
		sink:    diag.Or(sink),
	}
}

// Generate sweeps every enabled profile along every baked, non-end segment
// whose profile mask allows it.
func (a *Assembler) Generate(net *track.Network, profiles []*profile.Profile) *Result {
	start := time.Now()
	res := &Result{Stats: GenerationStats{RunID: uuid.New()}}
	contributing := make(map[int]bool)

	for _, p := range profiles {
		if !p.Options.Enabled {
			continue
		}
		m, points, err := a.generateProfile(net, p, contributing)
		if err != nil {
			res.Failures = append(res.Failures, ProfileError{Profile: p.Name, Err: err})
			diag.Errorf(a.sink, "sweep", "%s: %v", p.Name, err)
			continue
		}
		res.Meshes = append(res.Meshes, m)
		res.Stats.PointCount += points
		res.Stats.VertexCount += m.VertexCount()
		res.Stats.TriangleCount += m.TriangleCount()
	}

	res.Stats.MeshCount = len(res.Meshes)
	res.Stats.NodeCount = len(contributing)
	res.Stats.Elapsed = time.Since(start)

	if len(res.Meshes) > 0 {
		diag.Infof(a.sink, "sweep", "Mesh successfully generated: %d meshes, %d vertices, %d triangles",
			res.Stats.MeshCount, res.Stats.VertexCount, res.Stats.TriangleCount)
	}
	return res
}

func (a *Assembler) generateProfile(net *track.Network, p *profile.Profile, contributing map[int]bool) (*mesh.Mesh, int, error) {
	p.Order()

	var fragments []*mesh.Mesh
	var used []int
	points := 0
	for i, n := range net.Nodes() {
		if n.Kind == track.KindEnd || !n.Baked() || !n.ProfileEnabled(p.Name) {
			continue
		}
		frag, err := a.builder.Build(p, n, net.NextNode(i))
		if err != nil {
			return nil, 0, err
		}
		points += len(n.Points())
		fragments = append(fragments, frag)
		used = append(used, i)
	}
	if points == 0 {
		return nil, 0, ErrNoCurveData
	}

	m := mesh.Merge(p.Name, fragments...)
	if !p.Stamped() {
		m.RecalculateNormals()
	}
	for _, i := range used {
		contributing[i] = true
	}
	return m, points, nil
}
