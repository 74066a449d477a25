package track

import (
	"fmt"
	"math"

	"github.com/chazu/railsweep/pkg/bezier"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Bake samples the segment from n to next and stores evenly spaced curve
// points. On failure the node is left without curve data.
func (n *Node) Bake(next *Node, cs CurveSettings) error {
	n.invalidate()

	if next == nil {
		return ErrMissingNextNode
	}
	out, in, ok := n.Handles()
	if !ok {
		return fmt.Errorf("%w: has %d", ErrMissingHandles, len(n.handles))
	}
	if cs.Accuracy < 1 {
		return fmt.Errorf("curve accuracy must be at least 1, got %d", cs.Accuracy)
	}
	if cs.Resolution <= 0 {
		return fmt.Errorf("curve resolution must be positive, got %v", cs.Resolution)
	}

	p0, p1, p2, p3 := n.position, out, in, next.position

	samples := make([]v3.Vec, cs.Accuracy+1)
	segments := make([]float64, cs.Accuracy+1)
	length := 0.0

	prev := p0
	for i := 0; i <= cs.Accuracy; i++ {
		pt := bezier.Position(float64(i)/float64(cs.Accuracy), p0, p1, p2, p3)
		segments[i] = pt.Sub(prev).Length()
		samples[i] = pt
		length += segments[i]
		prev = pt
	}

	points, err := resample(samples, segments, length, cs, func(index int) v3.Vec {
		return bezier.Tangent(float64(index)/float64(cs.Accuracy), p0, p1, p2, p3)
	})
	if err != nil {
		return err
	}

	n.points = points
	n.length = length
	n.baked = true
	return nil
}

// lengthEpsilon absorbs the summation error of the dense samples so a
// straight 10m segment yields 10 points, not 9.
const lengthEpsilon = 1e-9

// pointCount is floor(resolution·length).
func pointCount(resolution, length float64) int {
	return int(math.Floor(resolution*length + lengthEpsilon))
}

// resample walks the unequal samples and picks floor(resolution·length)
// points spaced length/n apart. The sample reached when the accumulated
// length first covers i·Δ becomes output point i.
func resample(samples []v3.Vec, segments []float64, length float64, cs CurveSettings, tangent func(int) v3.Vec) ([]CurvePoint, error) {
	count := pointCount(cs.Resolution, length)
	if count <= 0 {
		return []CurvePoint{}, nil
	}

	spacing := length / float64(count)
	points := make([]CurvePoint, count)

	index := 0
	accumulated := 0.0
	for i := 0; i < count; i++ {
		target := float64(i) * spacing
		for target > accumulated {
			if index >= len(segments) {
				return nil, fmt.Errorf("%w: placed %d of %d points from %d samples",
					ErrInsufficientSamples, i, count, len(samples))
			}
			accumulated += segments[index]
			index++
		}
		if index >= len(samples) {
			return nil, fmt.Errorf("%w: placed %d of %d points from %d samples",
				ErrInsufficientSamples, i, count, len(samples))
		}
		points[i] = NewCurvePoint(samples[index], tangent(index))
	}

	return points, nil
}
