package sweep

import (
	"time"

	"github.com/google/uuid"
)

// GenerationStats summarises one Generate run.
type GenerationStats struct {
	RunID         uuid.UUID
	Elapsed       time.Duration
	NodeCount     int // segments that contributed to at least one mesh
	PointCount    int
	VertexCount   int
	TriangleCount int
	MeshCount     int
}
