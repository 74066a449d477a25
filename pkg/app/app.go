// Package app runs the railsweep pipeline: a layout script is evaluated into
// nodes and profiles, the nodes are connected and baked, and every profile
// is swept along the resulting chain.
package app

import (
	"fmt"
	"time"

	"github.com/chazu/railsweep/pkg/config"
	"github.com/chazu/railsweep/pkg/diag"
	"github.com/chazu/railsweep/pkg/engine"
	"github.com/chazu/railsweep/pkg/kernel"
	"github.com/chazu/railsweep/pkg/kernel/sdfx"
	"github.com/chazu/railsweep/pkg/mesh"
	"github.com/chazu/railsweep/pkg/meshio"
	"github.com/chazu/railsweep/pkg/metrics"
	"github.com/chazu/railsweep/pkg/sweep"
	"github.com/chazu/railsweep/pkg/track"
)

// Result is the full output of one run. When the script fails to evaluate
// only Errors is set.
type Result struct {
	Layout   *engine.Layout
	Network  *track.Network
	Connect  track.ConnectionStats
	Sweep    *sweep.Result
	Errors   []engine.EvalError
	Warnings []engine.EvalWarning
}

// Meshes returns the generated meshes, nil before the sweep has run.
func (r *Result) Meshes() []*mesh.Mesh {
	if r.Sweep == nil {
		return nil
	}
	return r.Sweep.Meshes
}

// Payload converts the meshes to the JSON render format.
func (r *Result) Payload() meshio.Payload {
	return meshio.NewPayload(r.Meshes()...)
}

// App wires the engine, the track network and the sweep together.
type App struct {
	settings config.Settings
	kernel   kernel.Kernel
	engine   *engine.Engine
	sink     diag.Sink
	metrics  *metrics.Registry
	dir      string
}

// Option configures an App.
type Option func(*App)

// WithSink routes diagnostics to s.
func WithSink(s diag.Sink) Option {
	return func(a *App) { a.sink = s }
}

// WithMetrics records run metrics into r.
func WithMetrics(r *metrics.Registry) Option {
	return func(a *App) { a.metrics = r }
}

// WithKernel replaces the default sdfx kernel.
func WithKernel(k kernel.Kernel) Option {
	return func(a *App) { a.kernel = k }
}

// WithBaseDir lets layout scripts load OBJ files relative to dir.
func WithBaseDir(dir string) Option {
	return func(a *App) { a.dir = dir }
}

// New creates an App over settings s.
func New(s config.Settings, opts ...Option) *App {
	a := &App{settings: s}
	for _, opt := range opts {
		opt(a)
	}
	a.sink = diag.Or(a.sink)
	if a.kernel == nil {
		a.kernel = sdfx.New(sdfx.WithMeshCells(s.Mesh.Cells))
	}
	if a.metrics == nil {
		a.metrics = metrics.NewRegistry()
	}
	a.engine = engine.NewEngine(a.kernel,
		engine.WithTimeout(s.Engine.Timeout),
		engine.WithBaseDir(a.dir),
	)
	return a
}

// Metrics returns the registry runs are recorded into.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Connect evaluates source and connects its nodes without sweeping.
func (a *App) Connect(source string) (*Result, error) {
	res, err := a.evaluate(source)
	if err != nil || len(res.Errors) > 0 {
		return res, err
	}

	res.Network = res.Layout.Network(a.sink)
	stats, err := res.Network.Connect(false)
	a.metrics.RecordOperation("connect", err, stats.Elapsed)
	if err != nil {
		return res, err
	}
	res.Connect = stats
	a.metrics.RecordChain(stats.TotalLength, stats.PointCount)
	return res, nil
}

// Bake connects the nodes of source and then re-bakes every curve of the
// chain without sweeping. A failed bake leaves no curve data behind.
func (a *App) Bake(source string) (*Result, error) {
	res, err := a.Connect(source)
	if err != nil || len(res.Errors) > 0 {
		return res, err
	}

	stats, err := res.Network.BakeAll()
	a.metrics.RecordOperation("bake", err, stats.Elapsed)
	if err != nil {
		return res, err
	}
	res.Connect = stats
	a.metrics.RecordChain(stats.TotalLength, stats.PointCount)
	return res, nil
}

// Evaluate runs the whole pipeline. Profile failures do not fail the run;
// they are listed in the sweep result.
func (a *App) Evaluate(source string) (*Result, error) {
	res, err := a.Connect(source)
	if err != nil || len(res.Errors) > 0 {
		return res, err
	}

	asm := sweep.NewAssembler(res.Layout.Settings.Curve.Resolution, a.sink)
	res.Sweep = asm.Generate(res.Network, res.Layout.Profiles)

	a.metrics.RecordOperation("sweep", res.Sweep.Err(), res.Sweep.Stats.Elapsed)
	for _, m := range res.Sweep.Meshes {
		a.metrics.RecordMesh(m.Name, m.VertexCount(), m.TriangleCount())
	}
	for _, f := range res.Sweep.Failures {
		a.metrics.RecordProfileFailure(f.Profile)
	}
	return res, nil
}

func (a *App) evaluate(source string) (*Result, error) {
	start := time.Now()
	layout, evalErrs, err := a.engine.Evaluate(source, a.settings)
	if err == nil && len(evalErrs) > 0 {
		err = evalErrs[0]
	}
	a.metrics.RecordOperation("evaluate", err, time.Since(start))

	if layout == nil {
		if len(evalErrs) == 0 {
			// Fatal: timeout, panic or a superseded run.
			diag.Errorf(a.sink, "evaluate", "%v", err)
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		for _, e := range evalErrs {
			diag.Errorf(a.sink, "evaluate", "%v", e)
		}
		return &Result{Errors: evalErrs}, nil
	}

	for _, w := range layout.Warnings {
		diag.Warnf(a.sink, "evaluate", "%s", w)
	}
	return &Result{Layout: layout, Warnings: layout.Warnings}, nil
}
