package profile

import (
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Normalize orders an arbitrary cross-section into a ring and returns the
// ring position of every raw vertex.
//
// Vertices left of the centre line (x < 0) rank upwards from N/2 for every
// same-side vertex above them; vertices on the right rank downwards from
// N/2-1. For input split into two halves that are each monotonic in y this
// traces the outline in one consistent winding. Other shapes get a ring that
// may be mis-ordered but is always a complete permutation: ranks are
// resolved by a stable sort on (rank, raw index).
func Normalize(vertices []v3.Vec) []int {
	n := len(vertices)
	ranks := make([]int, n)
	for i, vi := range vertices {
		left := vi.X < 0
		rank := n/2 - 1
		if left {
			rank = n / 2
		}
		for j, vj := range vertices {
			if j == i || (vj.X < 0) != left {
				continue
			}
			if vj.Y > vi.Y {
				if left {
					rank++
				} else {
					rank--
				}
			}
		}
		ranks[i] = rank
	}

	byRank := make([]int, n)
	for i := range byRank {
		byRank[i] = i
	}
	sort.SliceStable(byRank, func(a, b int) bool {
		return ranks[byRank[a]] < ranks[byRank[b]]
	})

	order := make([]int, n)
	for pos, i := range byRank {
		order[i] = pos
	}
	return order
}
