// Package query answers topology questions about an atlas graph: tag lookup,
// breadth-first traversal, shortest hop paths, hop distances and region
// boundaries. Every query reads the graph's edge-set adjacency and never
// mutates it. Absent nodes, absent edge sets and unreachable goals give empty
// results, not errors.
package query

import "github.com/ritzau/lumen-atlas/pkg/atlas"

// Graph is the read access queries need. atlas.Graph and atlas.View both
// satisfy it.
type Graph interface {
	Node(id int64) (*atlas.Node, bool)
	Nodes() []*atlas.Node
	Neighbors(id int64, edgeSet string) []int64
}

// NodesWithTag returns the nodes carrying tag, in node storage order.
func NodesWithTag(g Graph, tag string) []*atlas.Node {
	matched := make([]*atlas.Node, 0)
	for _, n := range g.Nodes() {
		if n.HasTag(tag) {
			matched = append(matched, n)
		}
	}
	return matched
}
