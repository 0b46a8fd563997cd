package query

import "slices"

// ShortestHopPath returns the path from start to goal with the fewest hops
// over edgeSet, geometry ignored. Ties resolve toward lower neighbor ids since
// exploration follows sorted adjacency. It returns [start] when start equals
// goal and an empty slice when goal is unreachable.
func ShortestHopPath(g Graph, start, goal int64, edgeSet string) []int64 {
	if start == goal {
		return []int64{start}
	}

	// parent records how each node was first reached
	parent := map[int64]int64{start: start}
	queue := []int64{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range g.Neighbors(current, edgeSet) {
			if _, seen := parent[neighbor]; seen {
				continue
			}
			parent[neighbor] = current
			if neighbor == goal {
				return unwind(parent, start, goal)
			}
			queue = append(queue, neighbor)
		}
	}

	return []int64{}
}

func unwind(parent map[int64]int64, start, goal int64) []int64 {
	path := []int64{goal}
	for node := goal; node != start; {
		node = parent[node]
		path = append(path, node)
	}
	slices.Reverse(path)
	return path
}

// HopDistances returns, for every node reachable over edgeSet from any of the
// seeds, the number of hops to the nearest seed. Seeds map to 0. Unreachable
// nodes are absent from the result.
func HopDistances(g Graph, edgeSet string, seeds []int64) map[int64]int {
	distances := make(map[int64]int, len(seeds))
	queue := make([]int64, 0, len(seeds))
	for _, seed := range seeds {
		if _, dup := distances[seed]; dup {
			continue
		}
		distances[seed] = 0
		queue = append(queue, seed)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range g.Neighbors(current, edgeSet) {
			if _, seen := distances[neighbor]; seen {
				continue
			}
			distances[neighbor] = distances[current] + 1
			queue = append(queue, neighbor)
		}
	}

	return distances
}
