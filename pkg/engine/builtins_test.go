package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/railsweep/pkg/config"
	"github.com/chazu/railsweep/pkg/kernel/sdfx"
	"github.com/chazu/railsweep/pkg/track"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(node "a" :kind :start)`,
			expect: `(node "a" "__kw_kind" "__kw_start")`,
		},
		{
			name:   "multiple keywords",
			input:  `(settings :accuracy 400 :resolution 2)`,
			expect: `(settings "__kw_accuracy" 400 "__kw_resolution" 2)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(close-loop :min-range r)`,
			expect: `(close_loop "__kw_min-range" r)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec2 -0.5 0)`,
			expect: `(vec2 -0.5 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// evalOK evaluates source and fails the test on any error.
func evalOK(t *testing.T, eng *Engine, source string) *Layout {
	t.Helper()
	l, evalErrs, err := eng.Evaluate(source, config.Default())
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if l == nil {
		t.Fatal("expected non-nil layout")
	}
	return l
}

// evalFails evaluates source and returns the joined eval error messages.
func evalFails(t *testing.T, eng *Engine, source string) string {
	t.Helper()
	l, evalErrs, err := eng.Evaluate(source, config.Default())
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if l != nil {
		t.Fatal("expected nil layout")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	msgs := make([]string, len(evalErrs))
	for i, e := range evalErrs {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// ---------------------------------------------------------------------------
// Node tests
// ---------------------------------------------------------------------------

func TestNodeDeclarations(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `
(node "a" (vec3 0 0 0) :kind :start)
(node "b" :at (vec3 10 0 0) :min-range 2 :max-range 40)
(node "c" (vec3 20 0 5) :kind :end)
`)
	if len(l.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(l.Nodes))
	}

	a := l.Node("a")
	if a == nil || a.Kind != track.KindStart {
		t.Fatalf("a: expected start node, got %+v", a)
	}
	b := l.Node("b")
	if b.Position() != (v3.Vec{X: 10}) {
		t.Errorf("b: position = %v", b.Position())
	}
	if b.MinRange != 2 || b.MaxRange != 40 {
		t.Errorf("b: range = (%g, %g), want (2, 40)", b.MinRange, b.MaxRange)
	}
	if c := l.Node("c"); c.Kind != track.KindEnd {
		t.Errorf("c: kind = %s, want end", c.Kind)
	}
	if l.Node("missing") != nil {
		t.Error("Node should return nil for unknown names")
	}
}

func TestNodeExplicitHandles(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `
(node "a" (vec3 0 0 0) :handles (list (vec3 3 0 0) (vec3 -3 0 0)))
(node "b" (vec3 10 0 0) :handles (list (vec3 13 0 0) (vec3 7 0 0)) :reset true)
`)
	a := l.Node("a")
	out, in, ok := a.Handles()
	if !ok {
		t.Fatal("a: expected handles")
	}
	if out != (v3.Vec{X: 3}) || in != (v3.Vec{X: -3}) {
		t.Errorf("a: handles = %v, %v", out, in)
	}
	if a.Reset {
		t.Error("a: explicit handles should clear Reset")
	}
	if !l.Node("b").Reset {
		t.Error("b: :reset true should force repositioning")
	}
}

func TestNodeEndHandlesWarn(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `(node "z" (vec3 0 0 0) :kind :end :handles (list (vec3 1 0 0) (vec3 -1 0 0)))`)
	if _, _, ok := l.Node("z").Handles(); ok {
		t.Error("end node should not carry handles")
	}
	if len(l.Warnings) != 1 || l.Warnings[0].Node != "z" {
		t.Fatalf("expected one warning for z, got %v", l.Warnings)
	}
}

func TestNodeSkipProfiles(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `
(profile "rail" (list (vec2 -1 0) (vec2 1 0)))
(node "a" (vec3 0 0 0) :skip (list "rail" "ballast"))
`)
	a := l.Node("a")
	if a.ProfileEnabled("rail") {
		t.Error("rail should be disabled on a")
	}
	if len(l.Warnings) != 1 || !strings.Contains(l.Warnings[0].Message, "ballast") {
		t.Errorf("expected a warning about the unknown ballast profile, got %v", l.Warnings)
	}
}

func TestNodeErrors(t *testing.T) {
	eng := NewEngine(nil)

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"duplicate", `(node "a" (vec3 0 0 0)) (node "a" (vec3 1 0 0))`, "duplicate"},
		{"missing position", `(node "a")`, "missing position"},
		{"bad kind", `(node "a" (vec3 0 0 0) :kind :siding)`, "invalid node kind"},
		{"bad handles", `(node "a" (vec3 0 0 0) :handles (list (vec3 1 0 0)))`, "expected 2 points"},
		{"vec2 position", `(node "a" (vec2 0 0))`, "expected vec3"},
		{"missing name", `(node)`, "missing name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, eng, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q should contain %q", msg, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Settings tests
// ---------------------------------------------------------------------------

func TestSettingsOverride(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `
(settings :accuracy 200 :resolution 2 :min-range 1 :max-range 50 :iteration-cap 10 :close-loop true)
`)
	s := l.Settings
	if s.Curve.Accuracy != 200 || s.Curve.Resolution != 2 {
		t.Errorf("curve = %+v", s.Curve)
	}
	if s.Connect.MinRange != 1 || s.Connect.MaxRange != 50 || s.Connect.IterationCap != 10 {
		t.Errorf("connect = %+v", s.Connect)
	}
	if !s.Connect.CloseLoop {
		t.Error("close-loop should be set")
	}
	if s.Mesh != config.Default().Mesh {
		t.Errorf("mesh settings should keep the base, got %+v", s.Mesh)
	}
}

func TestSettingsInvalid(t *testing.T) {
	eng := NewEngine(nil)

	msg := evalFails(t, eng, `(settings :min-range 50 :max-range 10)`)
	if !strings.Contains(msg, "invalid settings") {
		t.Errorf("error %q should report invalid settings", msg)
	}
	msg = evalFails(t, eng, `(settings :accuracy 2.5)`)
	if !strings.Contains(msg, "expected integer") {
		t.Errorf("error %q should reject a fractional accuracy", msg)
	}
}

func TestVariableReference(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `
(def spacing 12)
(node "a" (vec3 0 0 0))
(node "b" (vec3 spacing 0 0))
(node "c" (vec3 (* 2 spacing) 0 0))
`)
	if got := l.Node("c").Position().X; got != 24 {
		t.Errorf("c.x = %g, want 24", got)
	}
}

// ---------------------------------------------------------------------------
// Profile tests
// ---------------------------------------------------------------------------

func TestProfileSwept(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `
(profile "rail"
  (list (vec2 -0.5 0) (vec2 -0.5 1) (vec2 0.5 1) (vec2 0.5 0))
  :size (vec3 2 3 1) :offset (vec2 0.75 0.1)
  :symmetry :loop true :material "steel")
`)
	p := l.Profile("rail")
	if p == nil {
		t.Fatal("expected profile rail")
	}
	if p.Stamped() {
		t.Error("rail should be swept")
	}
	if p.VertexCount() != 4 {
		t.Errorf("vertex count = %d, want 4", p.VertexCount())
	}
	o := p.Options
	if o.SizeX != 2 || o.SizeY != 3 || o.SizeZ != 1 {
		t.Errorf("size = (%g, %g, %g)", o.SizeX, o.SizeY, o.SizeZ)
	}
	if o.OffsetX != 0.75 || o.OffsetY != 0.1 {
		t.Errorf("offset = (%g, %g)", o.OffsetX, o.OffsetY)
	}
	if !o.Symmetry || !o.Loop || o.FlipNormals || !o.Enabled {
		t.Errorf("flags = %+v", o)
	}
	if o.Material != "steel" {
		t.Errorf("material = %q", o.Material)
	}
}

func TestProfileOptionErrors(t *testing.T) {
	eng := NewEngine(nil)

	msg := evalFails(t, eng, `(profile "rail" (list (vec2 0 0) (vec2 1 0)) :size-y 0)`)
	if !strings.Contains(msg, "invalid profile") {
		t.Errorf("error %q should reject a zero size", msg)
	}
	msg = evalFails(t, eng, `(profile "rail" (list (vec2 0 0) 3))`)
	if !strings.Contains(msg, "point 1") {
		t.Errorf("error %q should name the bad point", msg)
	}
	msg = evalFails(t, eng, `(profile "rail" (list (vec2 0 0)) :loop 1)`)
	if !strings.Contains(msg, "expected boolean") {
		t.Errorf("error %q should reject a numeric flag", msg)
	}
}

func TestProfileDuplicate(t *testing.T) {
	eng := NewEngine(nil)

	msg := evalFails(t, eng, `
(profile "rail" (list (vec2 0 0) (vec2 1 0)))
(profile "rail" (list (vec2 0 0) (vec2 1 0)))
`)
	if !strings.Contains(msg, "duplicate") {
		t.Errorf("error %q should report the duplicate", msg)
	}
}

func TestOutline(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `
(def bed (list (vec2 -2 0) (vec2 -1.5 0.6) (vec2 1.5 0.6) (vec2 2 0)))
(outline "ballast" bed :enabled false)
(outline "fine" bed :tolerance 0.0001)
`)
	p := l.Profile("ballast")
	if p.VertexCount() < 3 {
		t.Errorf("vertex count = %d, want the bed subdivided", p.VertexCount())
	}
	if p.Options.Enabled {
		t.Error("ballast should be disabled")
	}
	if fine := l.Profile("fine"); fine.VertexCount() <= p.VertexCount() {
		t.Errorf("finer tolerance gave %d vertices, default %d", fine.VertexCount(), p.VertexCount())
	}

	msg := evalFails(t, eng, `(outline "bad" (list (vec2 0 0) (vec2 1 1) (vec2 2 1) (vec2 3 0)) :tolerance 0)`)
	if !strings.Contains(msg, "tolerance") {
		t.Errorf("error %q should name the tolerance", msg)
	}
}

func TestStampSolids(t *testing.T) {
	eng := NewEngine(sdfx.New(sdfx.WithMeshCells(16)))

	l := evalOK(t, eng, `
(def sleeper (box 2.6 0.2 0.3))
(def hole (translate (cylinder 0.4 0.05) (vec3 0.75 0 0)))
(stamp "sleeper" (difference sleeper hole) :material "timber")
(stamp "chair" (rotate (union (box 0.2 0.1 0.2) (sphere 0.08)) (vec3 0 90 0)))
(stamp "key" (intersection (box 0.1 0.1 0.1) (sphere 0.07)))
`)
	if len(l.Profiles) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(l.Profiles))
	}
	for _, p := range l.Profiles {
		if !p.Stamped() {
			t.Errorf("%s should be stamped", p.Name)
		}
		if len(p.UVs()) != p.VertexCount() {
			t.Errorf("%s: %d uvs for %d vertices", p.Name, len(p.UVs()), p.VertexCount())
		}
	}
	if l.Profile("sleeper").Options.Material != "timber" {
		t.Error("sleeper material should be timber")
	}
}

func TestSolidErrors(t *testing.T) {
	tests := []struct {
		name   string
		eng    *Engine
		source string
		want   string
	}{
		{"no kernel", NewEngine(nil), `(box 1 1 1)`, "no solid kernel"},
		{"box arity", NewEngine(sdfx.New()), `(box 1 1)`, "expected 3 numbers"},
		{"union arity", NewEngine(sdfx.New()), `(union (box 1 1 1))`, "at least 2 solids"},
		{"stamp non-solid", NewEngine(sdfx.New()), `(stamp "x" 4)`, "expected solid"},
		{"translate vector", NewEngine(sdfx.New()), `(translate (box 1 1 1) (vec2 1 1))`, "expected vec3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, tt.eng, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q should contain %q", msg, tt.want)
			}
		})
	}
}

func TestObjProfiles(t *testing.T) {
	dir := t.TempDir()
	ring := "o rail\nv -1 0 0\nv -1 1 0\nv 1 1 0\nv 1 0 0\n"
	if err := os.WriteFile(filepath.Join(dir, "rail.obj"), []byte(ring), 0o644); err != nil {
		t.Fatal(err)
	}
	tri := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\nf 1/1 2/2 3/3\n"
	if err := os.WriteFile(filepath.Join(dir, "plate.obj"), []byte(tri), 0o644); err != nil {
		t.Fatal(err)
	}

	eng := NewEngine(nil, WithBaseDir(dir))
	l := evalOK(t, eng, `
(obj "rail" "rail.obj" :loop true)
(obj "plate" "plate.obj")
`)
	if p := l.Profile("rail"); p.Stamped() || p.VertexCount() != 4 || !p.Options.Loop {
		t.Errorf("rail: stamped=%v vertices=%d loop=%v", p.Stamped(), p.VertexCount(), p.Options.Loop)
	}
	if p := l.Profile("plate"); !p.Stamped() || len(p.Triangles()) != 3 {
		t.Errorf("plate: stamped=%v triangles=%v", p.Stamped(), p.Triangles())
	}

	msg := evalFails(t, NewEngine(nil), `(obj "rail" "rail.obj")`)
	if !strings.Contains(msg, "disabled") {
		t.Errorf("error %q should report disabled loading", msg)
	}
	msg = evalFails(t, eng, `(obj "missing" "missing.obj")`)
	if !strings.Contains(msg, "missing.obj") {
		t.Errorf("error %q should name the missing file", msg)
	}
}

// ---------------------------------------------------------------------------
// Layout tests
// ---------------------------------------------------------------------------

func TestLayoutNetwork(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `
(settings :min-range 1 :max-range 50)
(node "a" (vec3 0 0 0) :kind :start)
(node "b" (vec3 10 0 0))
(node "c" (vec3 20 0 0) :kind :end)
`)
	net := l.Network(nil)
	stats, err := net.Connect(false)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if stats.Links != 2 {
		t.Errorf("links = %d, want 2", stats.Links)
	}
	if stats.PointCount != 20 {
		t.Errorf("points = %d, want 20", stats.PointCount)
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	eng := NewEngine(nil)

	l := evalOK(t, eng, `
(def half (/ 2.5 2))
(profile "p" (list (vec2 (- 0 half) 0) (vec2 half 0)))
`)
	verts := l.Profile("p").Vertices()
	if verts[0].X != -1.25 || verts[1].X != 1.25 {
		t.Errorf("vertices = %v", verts)
	}
}
