package sweep

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/railsweep/pkg/profile"
	"github.com/chazu/railsweep/pkg/track"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// straightPoints returns count points one meter apart heading along +Z.
func straightPoints(count int) []track.CurvePoint {
	points := make([]track.CurvePoint, count)
	for i := range points {
		points[i] = track.NewCurvePoint(v3.Vec{Z: float64(i)}, v3.Vec{Z: 1})
	}
	return points
}

func makeSquare(t *testing.T, mutate func(*profile.Options)) *profile.Profile {
	t.Helper()
	opts := profile.DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	p, err := profile.New("square", []v3.Vec{
		{X: -1, Y: 0}, {X: -1, Y: 2}, {X: 1, Y: 0}, {X: 1, Y: 2},
	}, opts)
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	return p
}

func makeTriangle(t *testing.T, withUVs bool, mutate func(*profile.Options)) *profile.Profile {
	t.Helper()
	opts := profile.DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	var uvs []v2.Vec
	if withUVs {
		uvs = []v2.Vec{{}, {X: 1}, {Y: 1}}
	}
	p, err := profile.NewStamped("bolt",
		[]v3.Vec{{}, {X: 1}, {Y: 1}},
		[]int{0, 1, 2},
		[]v3.Vec{{Z: 1}, {Z: 1}, {Z: 1}},
		uvs, opts)
	if err != nil {
		t.Fatalf("profile.NewStamped: %v", err)
	}
	return p
}

func TestSweptCounts(t *testing.T) {
	tests := []struct {
		name           string
		symmetry, loop bool
		vertices       int
		indices        int
	}{
		{"plain", false, false, 20, 72},
		{"symmetry", true, false, 40, 144},
		{"loop", false, true, 20, 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := makeSquare(t, func(o *profile.Options) {
				o.Symmetry = tt.symmetry
				o.Loop = tt.loop
			})
			m, err := Builder{Resolution: 1}.Swept(p, straightPoints(5))
			if err != nil {
				t.Fatalf("Swept: %v", err)
			}
			if m.VertexCount() != tt.vertices {
				t.Errorf("vertices = %d, want %d", m.VertexCount(), tt.vertices)
			}
			if len(m.Indices) != tt.indices {
				t.Errorf("indices = %d, want %d", len(m.Indices), tt.indices)
			}
			v, i := SweptCounts(5, 4, tt.symmetry, tt.loop)
			if v != tt.vertices || i != tt.indices {
				t.Errorf("SweptCounts = %d/%d, want %d/%d", v, i, tt.vertices, tt.indices)
			}
			if err := m.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestLoopAddsSixIndicesPerTransition(t *testing.T) {
	for _, points := range []int{2, 3, 7} {
		open, err := Builder{Resolution: 1}.Swept(makeSquare(t, nil), straightPoints(points))
		if err != nil {
			t.Fatalf("Swept: %v", err)
		}
		closed, err := Builder{Resolution: 1}.Swept(makeSquare(t, func(o *profile.Options) { o.Loop = true }), straightPoints(points))
		if err != nil {
			t.Fatalf("Swept: %v", err)
		}
		if got, want := len(closed.Indices)-len(open.Indices), 6*(points-1); got != want {
			t.Errorf("%d points: loop added %d indices, want %d", points, got, want)
		}
	}
}

func TestSweptDegeneratePoints(t *testing.T) {
	b := Builder{Resolution: 1}
	for _, count := range []int{0, 1} {
		m, err := b.Swept(makeSquare(t, nil), straightPoints(count))
		if err != nil {
			t.Fatalf("%d points: %v", count, err)
		}
		if len(m.Indices) != 0 {
			t.Errorf("%d points: got %d indices, want 0", count, len(m.Indices))
		}
		if m.VertexCount() != count*4 {
			t.Errorf("%d points: got %d vertices, want %d", count, m.VertexCount(), count*4)
		}
	}

	single, err := profile.New("dot", []v3.Vec{{}}, profile.DefaultOptions())
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	if _, err := b.Swept(single, straightPoints(3)); !errors.Is(err, profile.ErrInvalidProfile) {
		t.Errorf("single vertex ring err = %v, want ErrInvalidProfile", err)
	}
}

func TestSweptPlacement(t *testing.T) {
	p := makeSquare(t, func(o *profile.Options) {
		o.SizeX = 2
		o.OffsetY = 0.5
		o.Symmetry = true
	})
	m, err := Builder{Resolution: 1}.Swept(p, straightPoints(2))
	if err != nil {
		t.Fatalf("Swept: %v", err)
	}

	// Heading +Z the left axis is -X. Ring position 0 is raw vertex (1,0).
	if got, want := m.Vertices[0], (v3.Vec{X: -2, Y: 0.5}); got != want {
		t.Errorf("vertex 0 = %v, want %v", got, want)
	}
	if got, want := m.Vertices[8], (v3.Vec{X: 2, Y: 0.5}); got != want {
		t.Errorf("mirrored vertex 0 = %v, want %v", got, want)
	}
	// Ring position 1 is raw vertex (1,2) on the second point.
	if got, want := m.Vertices[5], (v3.Vec{X: -2, Y: 2.5, Z: 1}); got != want {
		t.Errorf("vertex 5 = %v, want %v", got, want)
	}
}

func TestSweptWinding(t *testing.T) {
	p := makeSquare(t, func(o *profile.Options) { o.Symmetry = true })
	m, err := Builder{Resolution: 1}.Swept(p, straightPoints(2))
	if err != nil {
		t.Fatalf("Swept: %v", err)
	}
	want := []int{1, 4, 5, 4, 1, 0}
	if diff := cmp.Diff(want, m.Indices[:6]); diff != "" {
		t.Errorf("first quad (-want +got):\n%s", diff)
	}
	half := len(m.Indices) / 2
	wantMirror := []int{12, 9, 13, 9, 12, 8}
	if diff := cmp.Diff(wantMirror, m.Indices[half:half+6]); diff != "" {
		t.Errorf("mirrored quad (-want +got):\n%s", diff)
	}

	flipped, err := Builder{Resolution: 1}.Swept(makeSquare(t, func(o *profile.Options) { o.FlipNormals = true }), straightPoints(2))
	if err != nil {
		t.Fatalf("Swept: %v", err)
	}
	if diff := cmp.Diff([]int{4, 1, 5, 1, 4, 0}, flipped.Indices[:6]); diff != "" {
		t.Errorf("flipped quad (-want +got):\n%s", diff)
	}
}

func TestSweptLoopSeam(t *testing.T) {
	p := makeSquare(t, func(o *profile.Options) { o.Loop = true })
	m, err := Builder{Resolution: 1}.Swept(p, straightPoints(2))
	if err != nil {
		t.Fatalf("Swept: %v", err)
	}
	// The fourth quad joins ring position 3 back to 0.
	want := []int{0, 7, 4, 7, 0, 3}
	if diff := cmp.Diff(want, m.Indices[18:24]); diff != "" {
		t.Errorf("seam quad (-want +got):\n%s", diff)
	}
}

func TestSweptUVs(t *testing.T) {
	m, err := Builder{Resolution: 2}.Swept(makeSquare(t, nil), straightPoints(3))
	if err != nil {
		t.Fatalf("Swept: %v", err)
	}
	wantU := []float64{0, 2.0 / 6, 4.0 / 6, 1}
	for i := 0; i < 3; i++ {
		wantV := float64(i) / 6 / 1 / 2
		for k := 0; k < 4; k++ {
			uv := m.UVs[i*4+k]
			if math.Abs(uv.X-wantU[k]) > 1e-12 || math.Abs(uv.Y-wantV) > 1e-12 {
				t.Errorf("uv[%d][%d] = %v, want (%v, %v)", i, k, uv, wantU[k], wantV)
			}
		}
	}
}

func TestStamped(t *testing.T) {
	b := Builder{Resolution: 1}

	m, err := b.Stamped(makeTriangle(t, true, nil), straightPoints(3))
	if err != nil {
		t.Fatalf("Stamped: %v", err)
	}
	if m.VertexCount() != 9 || len(m.Indices) != 9 {
		t.Fatalf("counts = %d/%d, want 9/9", m.VertexCount(), len(m.Indices))
	}
	// Flipped by default.
	if diff := cmp.Diff([]int{1, 0, 2, 4, 3, 5, 7, 6, 8}, m.Indices); diff != "" {
		t.Errorf("indices (-want +got):\n%s", diff)
	}
	for i, n := range m.Normals {
		if n != (v3.Vec{Z: 1}) {
			t.Errorf("normal %d = %v, want verbatim copy", i, n)
		}
	}
	if m.UVs[4] != (v2.Vec{X: 1}) {
		t.Errorf("uv 4 = %v, want (1,0)", m.UVs[4])
	}

	m, err = b.Stamped(makeTriangle(t, true, func(o *profile.Options) { o.FlipNormals = true }), straightPoints(1))
	if err != nil {
		t.Fatalf("Stamped: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, m.Indices); diff != "" {
		t.Errorf("FlipNormals should keep input winding (-want +got):\n%s", diff)
	}
}

func TestStampedNoUVs(t *testing.T) {
	_, err := Builder{Resolution: 1}.Stamped(makeTriangle(t, false, nil), straightPoints(2))
	if !errors.Is(err, ErrNoUVData) {
		t.Errorf("err = %v, want ErrNoUVData", err)
	}
}

func TestSegmentPoints(t *testing.T) {
	net := track.NewNetwork([]*track.Node{
		track.NewNode("a", v3.Vec{}, track.KindNormal),
		track.NewNode("b", v3.Vec{X: 10}, track.KindNormal),
		track.NewNode("c", v3.Vec{X: 20}, track.KindEnd),
	}, track.Settings{
		Curve:   track.CurveSettings{Accuracy: 1000, Resolution: 1},
		Connect: track.ConnectSettings{MinRange: 1, MaxRange: 50},
	}, nil)
	if _, err := net.Connect(false); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	a, b := net.Node(0), net.Node(1)
	swept := SegmentPoints(a, b, false)
	if len(swept) != len(a.Points())+1 {
		t.Errorf("swept points = %d, want %d", len(swept), len(a.Points())+1)
	}
	if swept[len(swept)-1] != b.Points()[0] {
		t.Error("joint point should be the next segment's first point")
	}
	if got := len(SegmentPoints(a, b, true)); got != len(a.Points()) {
		t.Errorf("stamped points = %d, want %d", got, len(a.Points()))
	}
	if got := len(SegmentPoints(b, net.Node(2), false)); got != len(b.Points()) {
		t.Errorf("points before an end node = %d, want %d", got, len(b.Points()))
	}
}
