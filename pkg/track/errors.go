package track

import "errors"

var (
	// ErrMissingNextNode is returned when a node is baked without a next node.
	ErrMissingNextNode = errors.New("node has no next node")

	// ErrMissingHandles is returned when a non-end node does not carry its
	// two tangent handles.
	ErrMissingHandles = errors.New("node does not have two tangent handles")

	// ErrInsufficientSamples is returned when the dense curve sampling runs
	// out before every evenly spaced point is placed. Raising the curve
	// accuracy relative to the resolution fixes it.
	ErrInsufficientSamples = errors.New("insufficient curve samples, raise the curve accuracy")

	// ErrConnectionFailed is returned when connecting exceeds the iteration cap.
	ErrConnectionFailed = errors.New("connecting failed")

	// ErrInsufficientNodes is returned when fewer than two nodes are present.
	ErrInsufficientNodes = errors.New("at least two nodes are required")
)
