package sweep

import "errors"

var (
	// ErrNoCurveData is returned when no node contributed sample points to a
	// profile.
	ErrNoCurveData = errors.New("no curve data, connect and bake the network first")

	// ErrNoUVData is returned when a stamped profile has no texture
	// coordinates to copy.
	ErrNoUVData = errors.New("no uvs available to map")
)
