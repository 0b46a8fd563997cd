package web

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/lumen-atlas/pkg/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureGraph is a four-LED strip split over two regions:
//
//	1 - 2 | 3 - 4   (surface, bidirectional)
func fixtureGraph() *atlas.Graph {
	g := atlas.NewGraph()
	uv := [][2]float64{{0, 0}, {2, 2}, {4, 0}, {6, 2}}
	for i, region := range []string{"A", "A", "B", "B"} {
		n := atlas.NewNode(int64(i+1), "c0", i)
		n.AtlasUV["u"] = uv[i][0]
		n.AtlasUV["v"] = uv[i][1]
		n.Region = region
		if i == 0 {
			n.Tags = []string{"corner"}
		}
		g.AddNode(n)
	}
	g.AddEdgeSetFromPairs([][2]int64{{1, 2}, {2, 3}, {3, 4}}, atlas.EdgeSetSurface, true)
	return g
}

func newTestServer() *Server {
	return NewServer(atlas.NewGuarded(fixtureGraph()))
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNodeEndpoint(t *testing.T) {
	s := newTestServer()

	rec := get(t, s, "/api/nodes/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	node := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), node["id"])
	assert.Equal(t, "A", node["region"])
	assert.Equal(t, "c0", node["chunk_id"])

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/nodes/99").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/nodes/abc").Code)
}

func TestNeighborsEndpoint(t *testing.T) {
	s := newTestServer()

	assert.Equal(t, []int64{1, 3}, decode[[]int64](t, get(t, s, "/api/nodes/2/neighbors")))
	assert.Equal(t, []int64{}, decode[[]int64](t, get(t, s, "/api/nodes/2/neighbors?edgeSet=strip")))
	assert.Equal(t, []int64{}, decode[[]int64](t, get(t, s, "/api/nodes/99/neighbors")))
}

func TestListingEndpoints(t *testing.T) {
	s := newTestServer()

	assert.Equal(t, []string{"surface"}, decode[[]string](t, get(t, s, "/api/edge-sets")))
	assert.Len(t, decode[[]map[string]any](t, get(t, s, "/api/regions/A/nodes")), 2)
	assert.Len(t, decode[[]map[string]any](t, get(t, s, "/api/regions/Z/nodes")), 0)
	assert.Len(t, decode[[]map[string]any](t, get(t, s, "/api/tags/corner/nodes")), 1)
	assert.Len(t, decode[[]map[string]any](t, get(t, s, "/api/chunks/c0/nodes")), 4)

	snapshot := decode[map[string]any](t, get(t, s, "/api/atlas"))
	assert.Len(t, snapshot["nodes"], 4)
}

func TestQueryEndpoints(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name   string
		target string
		want   []int64
	}{
		{"traverse", "/api/traverse?start=1", []int64{1, 2, 3, 4}},
		{"traverse depth", "/api/traverse?start=1&maxDepth=1", []int64{1, 2}},
		{"traverse unknown start", "/api/traverse?start=99", []int64{99}},
		{"path", "/api/path?from=1&to=4", []int64{1, 2, 3, 4}},
		{"path to self", "/api/path?from=3&to=3", []int64{3}},
		{"path unreachable", "/api/path?from=1&to=99", []int64{}},
		{"boundary", "/api/boundary?region=A&region=B", []int64{2, 3}},
		{"boundary one region", "/api/boundary?region=A", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decode[[]int64](t, rec))
		})
	}
}

func TestMalformedParameters(t *testing.T) {
	s := newTestServer()

	for _, target := range []string{
		"/api/traverse",
		"/api/traverse?start=x",
		"/api/traverse?start=1&maxDepth=deep",
		"/api/path?from=1",
		"/api/path?from=1&to=2.5",
		"/api/distances?seed=one",
		"/api/barycenter?id=1&id=nope",
		"/api/polyline?id=",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, s, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[map[string]string](t, rec)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestDistancesAndIslands(t *testing.T) {
	s := newTestServer()

	distances := decode[map[string]int](t, get(t, s, "/api/distances?seed=1"))
	assert.Equal(t, map[string]int{"1": 0, "2": 1, "3": 2, "4": 3}, distances)

	islands := decode[[]map[string]any](t, get(t, s, "/api/islands"))
	require.Len(t, islands, 1)
	assert.Len(t, islands[0]["nodes"], 4)
}

func TestEmbeddingEndpoints(t *testing.T) {
	s := newTestServer()

	center := decode[Point](t, get(t, s, "/api/barycenter?id=1&id=2"))
	assert.Equal(t, Point{U: 1, V: 1}, center)

	line := decode[[]Point](t, get(t, s, "/api/polyline?id=1&id=99&id=2"))
	assert.Equal(t, []Point{{0, 0}, {2, 2}}, line)

	uv := decode[map[string]Point](t, get(t, s, "/api/uv"))
	assert.Len(t, uv, 4)
	assert.Equal(t, Point{U: 6, V: 2}, uv["4"])
}

func TestGraphEndpoint(t *testing.T) {
	s := newTestServer()

	data := decode[GraphData](t, get(t, s, "/api/graph"))
	assert.Equal(t, "surface", data.EdgeSet)
	assert.Len(t, data.Nodes, 4)
	assert.Len(t, data.Edges, 6)
	assert.Equal(t, "c0#0", data.Nodes[0].Label)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()
	get(t, s, "/api/nodes/1")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lumen_atlas_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/nodes/{id}"`)
}

func TestSetGraphPublishesStatus(t *testing.T) {
	s := NewServer(atlas.NewGuarded(nil))
	s.SetGraph(fixtureGraph(), "reloaded", "atlas.json")

	assert.Equal(t, http.StatusOK, get(t, s, "/api/nodes/4").Code)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/subscribe/atlas_status", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for event == "" || data == "" {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}

	assert.Equal(t, "reloaded", event)
	assert.Contains(t, data, `"nodes":4`)
	assert.Contains(t, data, `"path":"atlas.json"`)
	assert.Contains(t, data, `"addedNodes":4`)
}
