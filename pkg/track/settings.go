package track

// CurveSettings controls how a segment is sampled.
type CurveSettings struct {
	Accuracy   int     // dense samples per segment before resampling
	Resolution float64 // evenly spaced points per meter
}

// ConnectSettings controls how nodes are chained together.
type ConnectSettings struct {
	MinRange     float64 // candidates must be farther than this
	MaxRange     float64 // candidates must be closer than this
	IterationCap int     // maximum walk steps before connecting fails
	CloseLoop    bool    // allow the walk to end on the first node
}

// Settings bundles the per-run settings the network reads.
type Settings struct {
	Curve   CurveSettings
	Connect ConnectSettings
}

// DefaultIterationCap is used when ConnectSettings.IterationCap is zero.
const DefaultIterationCap = 100
