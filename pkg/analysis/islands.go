// Package analysis reports structural facts about an atlas graph that help
// while calibrating or annotating an installation: disconnected islands in an
// edge set and edges that an authored export would drop.
package analysis

import (
	"cmp"
	"slices"

	"github.com/ritzau/lumen-atlas/pkg/logging"
	"gonum.org/v1/gonum/graph/simple"
)

// EdgeSource is the adjacency access island detection needs.
type EdgeSource interface {
	Edges(edgeSet string) [][2]int64
}

// Island is a group of nodes that can all reach each other in one edge set.
type Island struct {
	EdgeSet string  `json:"edgeSet"`
	Nodes   []int64 `json:"nodes"`
}

// Islands splits the nodes that take part in edgeSet into mutually reachable
// groups. For a bidirectional edge set these are its connected components;
// for one-way edges they are the strongly connected components. Members are
// sorted and islands are ordered by their lowest member.
func Islands(g EdgeSource, edgeSet string) []Island {
	dg := simple.NewDirectedGraph()

	ensure := func(id int64) {
		if dg.Node(id) == nil {
			dg.AddNode(simple.Node(id))
		}
	}

	for _, edge := range g.Edges(edgeSet) {
		from, to := edge[0], edge[1]
		ensure(from)
		ensure(to)
		// simple graphs reject self loops; they never change reachability
		if from == to {
			continue
		}
		dg.SetEdge(dg.NewEdge(dg.Node(from), dg.Node(to)))
	}

	groups := newTarjan(dg).components()

	islands := make([]Island, 0, len(groups))
	for _, group := range groups {
		slices.Sort(group)
		islands = append(islands, Island{EdgeSet: edgeSet, Nodes: group})
	}
	slices.SortFunc(islands, func(a, b Island) int {
		return cmp.Compare(a.Nodes[0], b.Nodes[0])
	})

	logging.Debug("computed islands", "edgeSet", edgeSet, "count", len(islands))
	return islands
}
