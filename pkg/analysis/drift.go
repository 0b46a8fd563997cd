package analysis

import (
	"slices"

	"github.com/ritzau/lumen-atlas/pkg/atlas"
)

// Edge is one directed adjacency entry of a named edge set.
type Edge struct {
	EdgeSet string `json:"edgeSet"`
	From    int64  `json:"from"`
	To      int64  `json:"to"`
}

// Drift lists adjacency edges not backed by authored neighbors, which an
// authored export loses. An edge counts as backed when either endpoint lists
// the other under the same edge set, as authored neighbors are mirrored both
// ways on import.
func Drift(g atlas.View) []Edge {
	authored := func(id int64, edgeSet string, other int64) bool {
		n, ok := g.Node(id)
		return ok && slices.Contains(n.Neighbors[edgeSet], other)
	}

	drift := make([]Edge, 0)
	for _, name := range g.EdgeSetNames() {
		for _, edge := range g.Edges(name) {
			from, to := edge[0], edge[1]
			if authored(from, name, to) || authored(to, name, from) {
				continue
			}
			drift = append(drift, Edge{EdgeSet: name, From: from, To: to})
		}
	}
	return drift
}
