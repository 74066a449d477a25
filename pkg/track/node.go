package track

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Up is the world up axis used to frame every curve point.
var Up = v3.Vec{X: 0, Y: 1, Z: 0}

// None marks an absent next/prev link.
const None = -1

// Kind enumerates the roles a node plays in the chain.
type Kind int

const (
	KindNormal     Kind = iota // ordinary chain member
	KindEnd                    // terminal, never has handles or a next node
	KindStart                  // preferred first node of the chain
	KindConnection             // junction, the walk hands off after reaching it
)

func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindEnd:
		return "end"
	case KindStart:
		return "start"
	case KindConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "normal", "":
		return KindNormal, nil
	case "end":
		return KindEnd, nil
	case "start":
		return KindStart, nil
	case "connection":
		return KindConnection, nil
	}
	return 0, fmt.Errorf("invalid node kind %q, expected normal, end, start or connection", s)
}

// CurvePoint is one evenly spaced sample on a baked segment.
type CurvePoint struct {
	Position      v3.Vec
	Direction     v3.Vec // unit tangent
	Perpendicular v3.Vec // Direction × Up
}

// NewCurvePoint frames a sample from its position and tangent.
func NewCurvePoint(position, direction v3.Vec) CurvePoint {
	return CurvePoint{
		Position:      position,
		Direction:     direction,
		Perpendicular: direction.Cross(Up),
	}
}

// Node is an author-placed control point. Its curve data describes the
// segment from this node to its next node and is only valid after a
// successful bake.
type Node struct {
	Name string
	Kind Kind

	// Reset forces handle repositioning on the next connect.
	Reset bool

	// MinRange and MaxRange override the network connection band for
	// candidates searched from this node when positive.
	MinRange float64
	MaxRange float64

	position v3.Vec
	handles  []v3.Vec

	next      int
	prev      int
	connected bool

	points []CurvePoint
	length float64
	baked  bool

	skipProfiles map[string]bool
}

// NewNode creates an unlinked node. Non-end nodes start with both handles
// collapsed onto the node; connecting repositions them.
func NewNode(name string, position v3.Vec, kind Kind) *Node {
	n := &Node{
		Name:     name,
		Kind:     kind,
		position: position,
		next:     None,
		prev:     None,
	}
	if kind != KindEnd {
		n.handles = []v3.Vec{position, position}
		n.Reset = true
	}
	return n
}

// Position returns the node's world position.
func (n *Node) Position() v3.Vec { return n.position }

// MoveTo moves the node and discards its curve data. The previous node's
// segment also ends here; Network.MoveNode invalidates both.
func (n *Node) MoveTo(p v3.Vec) {
	n.position = p
	n.invalidate()
}

// Handles returns the outgoing and incoming tangent handles. ok is false when
// the node does not carry two handles.
func (n *Node) Handles() (out, in v3.Vec, ok bool) {
	if len(n.handles) != 2 {
		return v3.Vec{}, v3.Vec{}, false
	}
	return n.handles[0], n.handles[1], true
}

// SetHandles replaces both handles and discards the curve data. End nodes
// ignore handles.
func (n *Node) SetHandles(out, in v3.Vec) {
	if n.Kind == KindEnd {
		return
	}
	n.handles = []v3.Vec{out, in}
	n.invalidate()
}

// ClearHandles removes both handles.
func (n *Node) ClearHandles() {
	n.handles = nil
	n.invalidate()
}

// Next returns the arena index of the next node, or None.
func (n *Node) Next() int { return n.next }

// Prev returns the arena index of the previous node, or None.
func (n *Node) Prev() int { return n.prev }

// Connected reports whether another node links to this one.
func (n *Node) Connected() bool { return n.connected }

// Baked reports whether the curve data is current.
func (n *Node) Baked() bool { return n.baked }

// Points returns the baked curve points, nil when stale.
func (n *Node) Points() []CurvePoint { return n.points }

// Length returns the baked arc length of the segment.
func (n *Node) Length() float64 { return n.length }

// Color is the display colour for the node's kind.
func (n *Node) Color() [3]float64 {
	k := float64(n.Kind)
	return [3]float64{(k + 1) / 2, (k + 1) / 4, k / 8}
}

// DisableProfile stops the named profile from being swept along this
// node's segment.
func (n *Node) DisableProfile(name string) {
	if n.skipProfiles == nil {
		n.skipProfiles = make(map[string]bool)
	}
	n.skipProfiles[name] = true
}

// EnableProfile undoes DisableProfile.
func (n *Node) EnableProfile(name string) {
	delete(n.skipProfiles, name)
}

// ProfileEnabled reports whether the named profile is swept along this
// node's segment.
func (n *Node) ProfileEnabled(name string) bool {
	return !n.skipProfiles[name]
}

func (n *Node) invalidate() {
	n.points = nil
	n.length = 0
	n.baked = false
}

// unlink clears the transient connection state.
func (n *Node) unlink() {
	n.next = None
	n.prev = None
	n.connected = false
	n.invalidate()
}
