package query

import (
	"slices"

	"github.com/ritzau/lumen-atlas/pkg/atlas"
)

// WalkRegionBoundary returns the sorted ids of nodes in one of regions that
// have at least one surface neighbor in a different region of the same set.
// Boundaries are always computed over the surface edge set. With fewer than
// two distinct regions the result is empty. Nodes without a region never
// take part.
func WalkRegionBoundary(g Graph, regions []string) []int64 {
	lookup := make(map[string]bool, len(regions))
	for _, r := range regions {
		if r != "" {
			lookup[r] = true
		}
	}

	boundary := make([]int64, 0)
	for _, n := range g.Nodes() {
		if !lookup[n.Region] {
			continue
		}
		for _, id := range g.Neighbors(n.ID, atlas.EdgeSetSurface) {
			neighbor, ok := g.Node(id)
			if ok && lookup[neighbor.Region] && neighbor.Region != n.Region {
				boundary = append(boundary, n.ID)
				break
			}
		}
	}

	slices.Sort(boundary)
	return slices.Compact(boundary)
}
