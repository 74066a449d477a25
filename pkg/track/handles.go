package track

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// handleScale is the fraction of the neighbour distance a handle sits from
// its node.
const handleScale = 0.4

// resetHandles places node i's outgoing handle and its previous node's
// incoming handle along the averaged direction through the node.
func (net *Network) resetHandles(i int) {
	n := net.nodes[i]
	dir, ok := net.handleDirection(i)
	if !ok {
		return
	}

	if next := net.Node(n.next); next != nil && len(n.handles) == 2 {
		scale := next.position.Sub(n.position).Length() * handleScale
		n.handles[0] = n.position.Add(dir.MulScalar(scale))
		n.invalidate()
	}

	if prev := net.Node(n.prev); prev != nil && len(prev.handles) == 2 {
		scale := n.position.Sub(prev.position).Length() * handleScale
		prev.handles[1] = n.position.Sub(dir.MulScalar(scale))
		prev.invalidate()
	}
}

// handleDirection averages the unit directions from the previous node and
// towards the next node.
func (net *Network) handleDirection(i int) (v3.Vec, bool) {
	n := net.nodes[i]
	var dir v3.Vec

	if prev := net.Node(n.prev); prev != nil {
		if d, ok := unit(n.position.Sub(prev.position)); ok {
			dir = dir.Add(d)
		}
	}
	if next := net.Node(n.next); next != nil {
		if d, ok := unit(next.position.Sub(n.position)); ok {
			dir = dir.Add(d)
		}
	}
	return unit(dir)
}

func unit(v v3.Vec) (v3.Vec, bool) {
	l := v.Length()
	if l < 1e-12 {
		return v3.Vec{}, false
	}
	return v.MulScalar(1 / l), true
}
