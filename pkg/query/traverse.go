package query

import "iter"

// TraverseOption tunes BreadthFirst.
type TraverseOption func(*traverseConfig)

type traverseConfig struct {
	maxDepth int // negative means unlimited
}

// WithMaxDepth stops expansion at depth hops from the start. Nodes at exactly
// depth are still yielded.
func WithMaxDepth(depth int) TraverseOption {
	return func(c *traverseConfig) { c.maxDepth = depth }
}

// queueEntry is a node waiting in the BFS queue
type queueEntry struct {
	id    int64
	depth int
}

// BreadthFirst returns the node ids reachable from start over edgeSet in
// breadth-first order, start first. Each id is yielded once, even on cyclic
// adjacency. A start id that is not in the graph is still yielded, with no
// neighbors.
//
// The sequence is lazy: each range over it runs a fresh traversal against
// the current graph state, and a consumer may stop early at no cost.
func BreadthFirst(g Graph, start int64, edgeSet string, opts ...TraverseOption) iter.Seq[int64] {
	cfg := traverseConfig{maxDepth: -1}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(yield func(int64) bool) {
		visited := map[int64]bool{start: true}
		queue := []queueEntry{{id: start}}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			if !yield(current.id) {
				return
			}

			next := current.depth + 1
			if cfg.maxDepth >= 0 && next > cfg.maxDepth {
				continue
			}

			for _, neighbor := range g.Neighbors(current.id, edgeSet) {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				queue = append(queue, queueEntry{id: neighbor, depth: next})
			}
		}
	}
}
