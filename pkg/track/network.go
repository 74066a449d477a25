package track

import (
	"fmt"
	"math"
	"time"

	"github.com/chazu/railsweep/pkg/diag"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ConnectionStats summarises the last connect or bake run.
type ConnectionStats struct {
	LastAction  string
	Elapsed     time.Duration
	NodeCount   int
	Links       int
	PointCount  int
	TotalLength float64
}

// Network is the arena of nodes and the chain connecting them. Operations
// are synchronous and not safe for concurrent use.
type Network struct {
	nodes    []*Node
	first    int
	settings Settings
	sink     diag.Sink
	stats    ConnectionStats
}

// NewNetwork creates a network over nodes. The first node is the first
// Start-kind node, or index 0 when there is none.
func NewNetwork(nodes []*Node, s Settings, sink diag.Sink) *Network {
	net := &Network{
		nodes:    nodes,
		settings: s,
		sink:     diag.Or(sink),
	}
	for i, n := range nodes {
		if n.Kind == KindStart {
			net.first = i
			break
		}
	}
	return net
}

// Add appends a node to the arena and returns its index.
func (net *Network) Add(n *Node) int {
	net.nodes = append(net.nodes, n)
	return len(net.nodes) - 1
}

// Len returns the number of nodes.
func (net *Network) Len() int { return len(net.nodes) }

// Node returns the node at index i, or nil when out of range.
func (net *Network) Node(i int) *Node {
	if i < 0 || i >= len(net.nodes) {
		return nil
	}
	return net.nodes[i]
}

// Nodes returns the arena in index order.
func (net *Network) Nodes() []*Node { return net.nodes }

// First returns the index the chain starts from.
func (net *Network) First() int { return net.first }

// SetFirst designates the node the chain starts from.
func (net *Network) SetFirst(i int) error {
	if net.Node(i) == nil {
		return fmt.Errorf("first node index %d out of range [0,%d)", i, len(net.nodes))
	}
	net.first = i
	return nil
}

// Settings returns the settings the network was created with.
func (net *Network) Settings() Settings { return net.settings }

// Stats returns the statistics of the last connect or bake run.
func (net *Network) Stats() ConnectionStats { return net.stats }

// NextNode returns the node linked after i, or nil.
func (net *Network) NextNode(i int) *Node {
	n := net.Node(i)
	if n == nil {
		return nil
	}
	return net.Node(n.next)
}

// MoveNode moves node i and discards the curves that end or start at it.
func (net *Network) MoveNode(i int, p v3.Vec) {
	n := net.Node(i)
	if n == nil {
		return
	}
	n.MoveTo(p)
	if prev := net.Node(n.prev); prev != nil {
		prev.invalidate()
	}
}

// BakeNode bakes the segment starting at node i.
func (net *Network) BakeNode(i int) error {
	n := net.Node(i)
	if n == nil {
		return fmt.Errorf("node index %d out of range [0,%d)", i, len(net.nodes))
	}
	if err := n.Bake(net.NextNode(i), net.settings.Curve); err != nil {
		return fmt.Errorf("bake %s: %w", n.Name, err)
	}
	return nil
}

// Connect rebuilds the chain from scratch by greedy nearest-neighbour
// search from the first node, then bakes every segment. With hardReset
// every node's handles are repositioned before baking; otherwise only
// nodes flagged for reset are.
func (net *Network) Connect(hardReset bool) (ConnectionStats, error) {
	start := time.Now()
	action := "Connect Network"
	if hardReset {
		action = "Hard Reset"
	}

	if len(net.nodes) < 2 {
		err := fmt.Errorf("connect: %w, got %d", ErrInsufficientNodes, len(net.nodes))
		diag.Errorf(net.sink, "connect", "%v", err)
		return ConnectionStats{}, err
	}

	net.resetNodes()

	chain, err := net.walk()
	if err != nil {
		net.abort()
		diag.Errorf(net.sink, "connect", "%v", err)
		return ConnectionStats{}, err
	}

	for _, i := range chain {
		n := net.nodes[i]
		if hardReset || n.Reset {
			net.resetHandles(i)
			n.Reset = false
		}
	}

	for _, i := range chain {
		if net.nodes[i].next == None {
			continue
		}
		if err := net.BakeNode(i); err != nil {
			net.abort()
			err = fmt.Errorf("connect: %w", err)
			diag.Errorf(net.sink, "bake", "%v", err)
			return ConnectionStats{}, err
		}
	}

	net.finish(action, start)
	diag.Infof(net.sink, "connect", "%s succeeded: %d links, %.2fm of curve",
		action, net.stats.Links, net.stats.TotalLength)
	return net.stats, nil
}

// BakeAll re-bakes every non-end node without touching connectivity. It
// stops at the first failure and leaves every curve unbaked.
func (net *Network) BakeAll() (ConnectionStats, error) {
	start := time.Now()

	if len(net.nodes) < 2 {
		err := fmt.Errorf("bake curves: %w, got %d", ErrInsufficientNodes, len(net.nodes))
		diag.Errorf(net.sink, "bake", "%v", err)
		return ConnectionStats{}, err
	}

	for i, n := range net.nodes {
		if n.Kind == KindEnd {
			continue
		}
		if err := net.BakeNode(i); err != nil {
			for _, n := range net.nodes {
				n.invalidate()
			}
			net.stats = ConnectionStats{}
			err = fmt.Errorf("bake curves: %w", err)
			diag.Errorf(net.sink, "bake", "%v", err)
			return ConnectionStats{}, err
		}
	}

	net.finish("Bake Curves", start)
	diag.Infof(net.sink, "bake", "Bake Curves succeeded: %d points", net.stats.PointCount)
	return net.stats, nil
}

// Path concatenates the curve points of the chain, walking next links from
// the first node until the chain ends or loops back.
func (net *Network) Path() ([]CurvePoint, float64) {
	var points []CurvePoint
	total := 0.0

	seen := make(map[int]bool, len(net.nodes))
	for i := net.first; i != None && !seen[i]; i = net.nodes[i].next {
		seen[i] = true
		n := net.nodes[i]
		if n.next == None {
			break
		}
		if n.baked {
			points = append(points, n.points...)
			total += n.length
		}
	}
	return points, total
}

// resetNodes clears links and curve data and makes sure handle counts match
// the node kinds.
func (net *Network) resetNodes() {
	for _, n := range net.nodes {
		n.unlink()
		switch {
		case n.Kind == KindEnd:
			n.handles = nil
		case len(n.handles) != 2:
			diag.Warnf(net.sink, "connect", "%s does not contain two handles, they will be recreated", n.Name)
			n.handles = []v3.Vec{n.position, n.position}
			n.Reset = true
		}
	}
}

// walk links nodes into a chain and returns every chain member in order,
// including the final target.
func (net *Network) walk() ([]int, error) {
	iterCap := net.settings.Connect.IterationCap
	if iterCap <= 0 {
		iterCap = DefaultIterationCap
	}

	first := net.first
	// The first node anchors the chain. A closing loop may return to it
	// once the chain spans three nodes.
	net.nodes[first].connected = true

	chain := []int{first}
	current := first
	for steps := 0; ; steps++ {
		if steps >= iterCap {
			return nil, fmt.Errorf("connect: %w after %d steps", ErrConnectionFailed, iterCap)
		}

		if net.nodes[current].Kind == KindEnd {
			break
		}

		candidate := net.nearest(current)
		if candidate == None {
			break
		}
		net.link(current, candidate)

		if candidate == first {
			break
		}
		chain = append(chain, candidate)
		if net.settings.Connect.CloseLoop && len(chain) == 3 {
			net.nodes[first].connected = false
		}
		if net.nodes[candidate].Kind == KindConnection {
			break
		}
		current = candidate
	}
	return chain, nil
}

// nearest returns the closest unconnected node strictly inside the
// connection band of node i. Ties go to the lowest index.
func (net *Network) nearest(i int) int {
	from := net.nodes[i]

	lo, hi := net.settings.Connect.MinRange, net.settings.Connect.MaxRange
	if from.MinRange > 0 {
		lo = from.MinRange
	}
	if from.MaxRange > 0 {
		hi = from.MaxRange
	}

	best := None
	bestDistance := math.MaxFloat64
	for j, other := range net.nodes {
		if j == i || other.connected {
			continue
		}
		d := other.position.Sub(from.position).Length()
		if d > lo && d < hi && d < bestDistance {
			best = j
			bestDistance = d
		}
	}
	return best
}

// abort drops every link and curve so a failed connect leaves nothing
// half-built behind.
func (net *Network) abort() {
	for _, n := range net.nodes {
		n.unlink()
	}
	net.stats = ConnectionStats{}
}

func (net *Network) link(from, to int) {
	a, b := net.nodes[from], net.nodes[to]
	a.next = to
	a.invalidate()
	b.prev = from
	b.connected = true
}

func (net *Network) finish(action string, start time.Time) {
	points, total := net.Path()
	links := 0
	for _, n := range net.nodes {
		if n.next != None {
			links++
		}
	}
	net.stats = ConnectionStats{
		LastAction:  action,
		Elapsed:     time.Since(start),
		NodeCount:   len(net.nodes),
		Links:       links,
		PointCount:  len(points),
		TotalLength: total,
	}
}
