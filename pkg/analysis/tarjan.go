package analysis

import (
	"gonum.org/v1/gonum/graph"
)

// tarjan finds strongly connected components using Tarjan's algorithm
type tarjan struct {
	graph   graph.Directed
	counter int
	stack   []int64
	onStack map[int64]bool
	index   map[int64]int
	low     map[int64]int
	groups  [][]int64
}

func newTarjan(g graph.Directed) *tarjan {
	return &tarjan{
		graph:   g,
		onStack: make(map[int64]bool),
		index:   make(map[int64]int),
		low:     make(map[int64]int),
	}
}

// components returns every strongly connected component, singletons included
func (t *tarjan) components() [][]int64 {
	nodes := t.graph.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()
		if _, seen := t.index[id]; !seen {
			t.visit(id)
		}
	}
	return t.groups
}

func (t *tarjan) visit(id int64) {
	t.index[id] = t.counter
	t.low[id] = t.counter
	t.counter++

	t.stack = append(t.stack, id)
	t.onStack[id] = true

	successors := t.graph.From(id)
	for successors.Next() {
		next := successors.Node().ID()
		if _, seen := t.index[next]; !seen {
			t.visit(next)
			t.low[id] = min(t.low[id], t.low[next])
		} else if t.onStack[next] {
			t.low[id] = min(t.low[id], t.index[next])
		}
	}

	// id roots a component: pop it off the stack
	if t.low[id] == t.index[id] {
		var group []int64
		for {
			top := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[top] = false
			group = append(group, top)
			if top == id {
				break
			}
		}
		t.groups = append(t.groups, group)
	}
}
