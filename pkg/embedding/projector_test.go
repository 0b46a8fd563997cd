package embedding

import (
	"testing"

	"github.com/ritzau/lumen-atlas/pkg/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func uvGraph() *atlas.Graph {
	g := atlas.NewGraph()

	a := atlas.NewNode(1, "c", 0)
	a.AtlasUV = map[string]float64{"u": 0, "v": 0}
	g.AddNode(a)

	b := atlas.NewNode(2, "c", 1)
	b.AtlasUV = map[string]float64{"u": 2, "v": 2}
	g.AddNode(b)

	c := atlas.NewNode(3, "c", 2)
	c.AtlasUV = map[string]float64{"u": 0.75}
	g.AddNode(c)

	return g
}

func TestAtlasUVPositions(t *testing.T) {
	g := uvGraph()
	g.AddNode(atlas.NewNode(4, "c", 3))

	positions := AtlasUVPositions(g)
	require.Len(t, positions, g.Len())
	assert.Equal(t, r2.Vec{X: 2, Y: 2}, positions[2])
	assert.Equal(t, r2.Vec{X: 0.75, Y: 0}, positions[3])
	assert.Equal(t, r2.Vec{}, positions[4])
}

func TestAtlasUVPositionsEmpty(t *testing.T) {
	assert.Empty(t, AtlasUVPositions(atlas.NewGraph()))
}

func TestBarycenter(t *testing.T) {
	g := uvGraph()

	assert.Equal(t, r2.Vec{X: 1, Y: 1}, Barycenter(g, []int64{1, 2}))
	assert.Equal(t, r2.Vec{}, Barycenter(g, nil))
	assert.Equal(t, r2.Vec{X: 2, Y: 2}, Barycenter(g, []int64{2}))
}

func TestBarycenterMissingPolicy(t *testing.T) {
	g := uvGraph()
	ids := []int64{2, 999}

	assert.Equal(t, r2.Vec{X: 1, Y: 1}, NewProjector(g).Barycenter(ids))
	assert.Equal(t, r2.Vec{X: 2, Y: 2}, NewProjector(g, WithMissingPolicy(MissingExcluded)).Barycenter(ids))
	assert.Equal(t, r2.Vec{}, NewProjector(g, WithMissingPolicy(MissingExcluded)).Barycenter([]int64{998, 999}))
}

func TestPathToPolyline(t *testing.T) {
	g := uvGraph()

	line := PathToPolyline(g, []int64{1, 9999, 2})
	assert.Equal(t, []r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 2}}, line)

	assert.Empty(t, PathToPolyline(g, []int64{404}))
	assert.Equal(t, []r2.Vec{{X: 2, Y: 2}, {X: 0, Y: 0}, {X: 2, Y: 2}}, PathToPolyline(g, []int64{2, 1, 2}))
}

func TestParseMissingPolicy(t *testing.T) {
	for in, want := range map[string]MissingPolicy{"": MissingAsOrigin, "origin": MissingAsOrigin, "Exclude": MissingExcluded} {
		got, err := ParseMissingPolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, got.String())
	}

	_, err := ParseMissingPolicy("skip")
	assert.Error(t, err)
}
