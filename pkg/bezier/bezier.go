// Package bezier evaluates cubic Bézier segments in 3D. The four control
// points are the segment's start node, its two tangent handles and the next
// node, in that order.
package bezier

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Position returns the point at parameter t in [0, 1].
//
//	(1-t)^3·p0 + 3(1-t)^2·t·p1 + 3(1-t)·t^2·p2 + t^3·p3
func Position(t float64, p0, p1, p2, p3 v3.Vec) v3.Vec {
	// The endpoints are returned as-is so that callers can rely on exact
	// equality with the control nodes.
	switch t {
	case 0:
		return p0
	case 1:
		return p3
	}

	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t

	return p0.MulScalar(b0).
		Add(p1.MulScalar(b1)).
		Add(p2.MulScalar(b2)).
		Add(p3.MulScalar(b3))
}

// Derivative returns the unnormalized first derivative at t.
//
//	3(1-t)^2·(p1-p0) + 6(1-t)·t·(p2-p1) + 3t^2·(p3-p2)
func Derivative(t float64, p0, p1, p2, p3 v3.Vec) v3.Vec {
	u := 1 - t
	return p1.Sub(p0).MulScalar(3 * u * u).
		Add(p2.Sub(p1).MulScalar(6 * u * t)).
		Add(p3.Sub(p2).MulScalar(3 * t * t))
}

// Tangent returns the unit tangent at t. Where the derivative vanishes (a
// handle sitting on its node) the chord direction p0→p3 is used instead; if
// the chord is degenerate too, the zero vector is returned.
func Tangent(t float64, p0, p1, p2, p3 v3.Vec) v3.Vec {
	if d, ok := normalize(Derivative(t, p0, p1, p2, p3)); ok {
		return d
	}
	if d, ok := normalize(p3.Sub(p0)); ok {
		return d
	}
	return v3.Vec{}
}

// epsilon is the length below which a vector is treated as zero.
const epsilon = 1e-12

func normalize(v v3.Vec) (v3.Vec, bool) {
	l := v.Length()
	if l < epsilon {
		return v3.Vec{}, false
	}
	return v.MulScalar(1 / l), true
}
