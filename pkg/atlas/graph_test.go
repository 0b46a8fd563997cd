package atlas

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph(t *testing.T) {
	g := NewGraph()
	require.NotNil(t, g)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.EdgeSetNames())
}

func TestAddNodeReplacesByID(t *testing.T) {
	g := NewGraph()

	first := NewNode(1, "chunk-a", 0)
	first.Region = "ceiling"
	first.Tags = []string{"old"}
	g.AddNode(first)

	second := NewNode(1, "chunk-b", 7)
	second.Tags = []string{"new"}
	g.AddNode(second)

	require.Equal(t, 1, g.Len())
	got, ok := g.Node(1)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, "chunk-b", got.ChunkID)
	assert.Equal(t, 7, got.IndexInChunk)
	assert.Empty(t, got.Region)
	assert.Equal(t, []string{"new"}, got.Tags)
}

func TestAddNodeMirrorsNeighbors(t *testing.T) {
	g := NewGraph()

	n := NewNode(1, "c", 0)
	n.Neighbors[EdgeSetSurface] = []int64{2}
	g.AddNode(n)

	assert.Equal(t, []int64{2}, g.Neighbors(1, EdgeSetSurface))
	assert.Equal(t, []int64{1}, g.Neighbors(2, EdgeSetSurface))
	assert.Equal(t, []string{EdgeSetSurface}, g.EdgeSetNames())
}

func TestAddNodeNormalizesLiteral(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: 3, ChunkID: "c"})

	n, ok := g.Node(3)
	require.True(t, ok)
	assert.NotNil(t, n.AtlasUV)
	assert.NotNil(t, n.Neighbors)
	assert.NotNil(t, n.Tags)
	assert.NotNil(t, n.CameraObservations)
}

func TestNewNodeDoesNotShareContainers(t *testing.T) {
	a := NewNode(1, "c", 0)
	b := NewNode(2, "c", 1)

	a.Tags = append(a.Tags, "x")
	a.AtlasUV["u"] = 1
	a.AddNeighbor(EdgeSetStrip, 2)

	assert.Empty(t, b.Tags)
	assert.Empty(t, b.AtlasUV)
	assert.Empty(t, b.Neighbors)
}

func TestAddNeighborSkipsDuplicates(t *testing.T) {
	n := NewNode(1, "c", 0)
	n.AddNeighbor(EdgeSetStrip, 2)
	n.AddNeighbor(EdgeSetStrip, 3)
	n.AddNeighbor(EdgeSetStrip, 2)

	assert.Equal(t, []int64{2, 3}, n.Neighbors[EdgeSetStrip])
}

func TestAddEdge(t *testing.T) {
	tests := []struct {
		name          string
		a, b          int64
		bidirectional bool
		wantA, wantB  []int64
	}{
		{"bidirectional", 1, 2, true, []int64{2}, []int64{1}},
		{"one way", 1, 2, false, []int64{2}, []int64{}},
		{"self edge", 4, 4, true, []int64{4}, []int64{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph()
			g.AddEdge(tt.a, tt.b, "wiring", tt.bidirectional)

			assert.Equal(t, tt.wantA, g.Neighbors(tt.a, "wiring"))
			assert.Equal(t, tt.wantB, g.Neighbors(tt.b, "wiring"))
		})
	}
}

func TestAddEdgeDoesNotTouchAuthoredNeighbors(t *testing.T) {
	g := NewGraph()
	g.AddNode(NewNode(1, "c", 0))
	g.AddNode(NewNode(2, "c", 1))

	g.AddEdge(1, 2, EdgeSetSurface, true)

	n, _ := g.Node(1)
	assert.Empty(t, n.Neighbors)
	assert.Equal(t, []int64{2}, g.Neighbors(1, EdgeSetSurface))
}

func TestAddEdgeIgnoresEmptyEdgeSet(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 2, "", true)
	assert.Empty(t, g.EdgeSetNames())
}

func TestZeroValueGraphAcceptsEdges(t *testing.T) {
	var g Graph
	g.AddEdge(1, 2, EdgeSetStrip, true)
	assert.Equal(t, []int64{2}, g.Neighbors(1, EdgeSetStrip))
}

func TestNeighborsSorted(t *testing.T) {
	g := NewGraph()
	g.AddEdgeSetFromPairs([][2]int64{{5, 9}, {5, 1}, {5, 7}, {5, 3}, {5, 1}}, EdgeSetSurface, true)

	got := g.Neighbors(5, EdgeSetSurface)
	assert.Equal(t, []int64{1, 3, 7, 9}, got)
	assert.True(t, slices.IsSorted(got))
}

func TestNeighborsAbsent(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 2, EdgeSetSurface, true)

	assert.Empty(t, g.Neighbors(42, EdgeSetSurface))
	assert.Empty(t, g.Neighbors(1, "no-such-set"))
	assert.NotNil(t, g.Neighbors(1, "no-such-set"))
}

func TestEdgeSetNamesSorted(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 2, "strip", true)
	g.AddEdge(1, 2, "semantic", true)
	g.AddEdge(1, 2, "surface", true)

	assert.Equal(t, []string{"semantic", "strip", "surface"}, g.EdgeSetNames())
}

func TestEdges(t *testing.T) {
	g := NewGraph()
	g.AddEdge(2, 1, EdgeSetStrip, false)
	g.AddEdge(1, 3, EdgeSetStrip, true)

	assert.Equal(t, [][2]int64{{1, 3}, {2, 1}, {3, 1}}, g.Edges(EdgeSetStrip))
	assert.Empty(t, g.Edges("missing"))
}

func TestNodesInRegion(t *testing.T) {
	g := NewGraph()
	for i, region := range []string{"ceiling", "wall-left", "ceiling", ""} {
		n := NewNode(int64(i+1), "c", i)
		n.Region = region
		g.AddNode(n)
	}

	var ids []int64
	for _, n := range g.NodesInRegion("ceiling") {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int64{1, 3}, ids)
	assert.Empty(t, g.NodesInRegion("floor"))
}

func TestNodesInChunkOrderedByIndex(t *testing.T) {
	g := NewGraph()
	g.AddNode(NewNode(10, "a", 2))
	g.AddNode(NewNode(11, "a", 0))
	g.AddNode(NewNode(12, "b", 0))
	g.AddNode(NewNode(13, "a", 1))

	var ids []int64
	for _, n := range g.NodesInChunk("a") {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int64{11, 13, 10}, ids)
}

func TestNodesAscending(t *testing.T) {
	g := NewGraph()
	for _, id := range []int64{30, 10, 20} {
		g.AddNode(NewNode(id, "c", 0))
	}

	var ids []int64
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int64{10, 20, 30}, ids)
}

func TestAppendObservation(t *testing.T) {
	g := NewGraph()
	g.AddNode(NewNode(1, "c", 0))

	obs := Observation{"x": 12.5, "y": 3}
	require.True(t, g.AppendObservation(1, obs))
	require.True(t, g.AppendObservation(1, Observation{"x": 13}))
	assert.False(t, g.AppendObservation(99, obs))

	obs["x"] = 0

	n, _ := g.Node(1)
	require.Len(t, n.CameraObservations, 2)
	assert.Equal(t, 12.5, n.CameraObservations[0]["x"])
	assert.Equal(t, 13.0, n.CameraObservations[1]["x"])
}
