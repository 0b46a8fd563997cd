package analysis

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/ritzau/lumen-atlas/pkg/atlas"
)

// AtlasDiff is the difference between two atlas states, e.g. before and after
// a snapshot reload.
type AtlasDiff struct {
	AddedNodes    []int64 `json:"addedNodes"`
	RemovedNodes  []int64 `json:"removedNodes"`
	ModifiedNodes []int64 `json:"modifiedNodes"` // same id, different record
	AddedEdges    []Edge  `json:"addedEdges"`
	RemovedEdges  []Edge  `json:"removedEdges"`
	FullGraph     bool    `json:"fullGraph"` // no previous state to compare with
}

// Empty reports whether the two states were identical.
func (d *AtlasDiff) Empty() bool {
	return !d.FullGraph &&
		len(d.AddedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.ModifiedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.RemovedEdges) == 0
}

// Diff computes the difference from old to updated. Node records are
// compared in their adjacency form so edits to either authored neighbors or
// adjacency show up. A nil old yields a full diff. All lists are sorted.
func Diff(old, updated atlas.View) *AtlasDiff {
	if old == nil {
		diff := &AtlasDiff{FullGraph: true, AddedEdges: edgeList(updated)}
		for _, n := range updated.Nodes() {
			diff.AddedNodes = append(diff.AddedNodes, n.ID)
		}
		return diff
	}

	diff := &AtlasDiff{
		AddedNodes:    make([]int64, 0),
		RemovedNodes:  make([]int64, 0),
		ModifiedNodes: make([]int64, 0),
		AddedEdges:    make([]Edge, 0),
		RemovedEdges:  make([]Edge, 0),
	}

	opts := atlas.ExportOptions{Source: atlas.ExportAdjacency}
	for _, n := range updated.Nodes() {
		before, ok := old.Record(n.ID, opts)
		if !ok {
			diff.AddedNodes = append(diff.AddedNodes, n.ID)
			continue
		}
		after, _ := updated.Record(n.ID, opts)
		if !reflect.DeepEqual(before, after) {
			diff.ModifiedNodes = append(diff.ModifiedNodes, n.ID)
		}
	}
	for _, n := range old.Nodes() {
		if _, ok := updated.Node(n.ID); !ok {
			diff.RemovedNodes = append(diff.RemovedNodes, n.ID)
		}
	}

	oldEdges := edgeIndex(old)
	newEdges := edgeIndex(updated)
	for e := range newEdges {
		if _, ok := oldEdges[e]; !ok {
			diff.AddedEdges = append(diff.AddedEdges, e)
		}
	}
	for e := range oldEdges {
		if _, ok := newEdges[e]; !ok {
			diff.RemovedEdges = append(diff.RemovedEdges, e)
		}
	}
	slices.SortFunc(diff.AddedEdges, compareEdges)
	slices.SortFunc(diff.RemovedEdges, compareEdges)

	return diff
}

func edgeList(v atlas.View) []Edge {
	edges := make([]Edge, 0)
	for _, name := range v.EdgeSetNames() {
		for _, e := range v.Edges(name) {
			edges = append(edges, Edge{EdgeSet: name, From: e[0], To: e[1]})
		}
	}
	return edges
}

func edgeIndex(v atlas.View) map[Edge]struct{} {
	index := make(map[Edge]struct{})
	for _, e := range edgeList(v) {
		index[e] = struct{}{}
	}
	return index
}

func compareEdges(a, b Edge) int {
	return cmp.Or(
		cmp.Compare(a.EdgeSet, b.EdgeSet),
		cmp.Compare(a.From, b.From),
		cmp.Compare(a.To, b.To),
	)
}
