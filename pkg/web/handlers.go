package web

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/ritzau/lumen-atlas/pkg/analysis"
	"github.com/ritzau/lumen-atlas/pkg/atlas"
	"github.com/ritzau/lumen-atlas/pkg/embedding"
	"github.com/ritzau/lumen-atlas/pkg/query"
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is an atlas-space position.
type Point struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

func toPoint(v r2.Vec) Point { return Point{U: v.X, V: v.Y} }

// GraphNode represents a node in the visualizer payload
type GraphNode struct {
	ID     int64    `json:"id"`
	Label  string   `json:"label"`
	Region string   `json:"region,omitempty"`
	Chunk  string   `json:"chunk"`
	Tags   []string `json:"tags"`
	U      float64  `json:"u"`
	V      float64  `json:"v"`
}

// GraphEdge represents a directed adjacency entry in the visualizer payload
type GraphEdge struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// GraphData holds one edge set of the atlas for visualization
type GraphData struct {
	EdgeSet string      `json:"edgeSet"`
	Nodes   []GraphNode `json:"nodes"`
	Edges   []GraphEdge `json:"edges"`
}

func (s *Server) handleAtlas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.atlas.Export(s.export))
}

func (s *Server) handleEdgeSets(w http.ResponseWriter, r *http.Request) {
	var names []string
	s.atlas.Read(func(v atlas.View) { names = v.EdgeSetNames() })
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, err := parseID("id", mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		rec   map[string]any
		found bool
	)
	s.atlas.Read(func(v atlas.View) { rec, found = v.Record(id, s.export) })
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("node not found: %d", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	id, err := parseID("id", mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var neighbors []int64
	s.atlas.Read(func(v atlas.View) { neighbors = v.Neighbors(id, edgeSetParam(r)) })
	writeJSON(w, http.StatusOK, neighbors)
}

// records serializes nodes under the read lock already held by the caller.
func (s *Server) records(v atlas.View, nodes []*atlas.Node) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		if rec, ok := v.Record(n.ID, s.export); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Server) handleRegionNodes(w http.ResponseWriter, r *http.Request) {
	region := mux.Vars(r)["region"]
	var out []map[string]any
	s.atlas.Read(func(v atlas.View) { out = s.records(v, v.NodesInRegion(region)) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTagNodes(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]
	var out []map[string]any
	s.atlas.Read(func(v atlas.View) { out = s.records(v, query.NodesWithTag(v, tag)) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChunkNodes(w http.ResponseWriter, r *http.Request) {
	chunk := mux.Vars(r)["chunk"]
	var out []map[string]any
	s.atlas.Read(func(v atlas.View) { out = s.records(v, v.NodesInChunk(chunk)) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTraverse(w http.ResponseWriter, r *http.Request) {
	start, err := requiredID(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxDepth, err := optionalInt(r, "maxDepth", -1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var order []int64
	s.atlas.Read(func(v atlas.View) {
		order = slices.Collect(query.BreadthFirst(v, start, edgeSetParam(r), query.WithMaxDepth(maxDepth)))
	})
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from, err := requiredID(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := requiredID(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var path []int64
	s.atlas.Read(func(v atlas.View) { path = query.ShortestHopPath(v, from, to, edgeSetParam(r)) })
	writeJSON(w, http.StatusOK, path)
}

func (s *Server) handleBoundary(w http.ResponseWriter, r *http.Request) {
	regions := r.URL.Query()["region"]
	var boundary []int64
	s.atlas.Read(func(v atlas.View) { boundary = query.WalkRegionBoundary(v, regions) })
	writeJSON(w, http.StatusOK, boundary)
}

func (s *Server) handleDistances(w http.ResponseWriter, r *http.Request) {
	seeds, err := idList(r, "seed")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var distances map[int64]int
	s.atlas.Read(func(v atlas.View) { distances = query.HopDistances(v, edgeSetParam(r), seeds) })

	// JSON object keys are strings
	out := make(map[string]int, len(distances))
	for id, d := range distances {
		out[strconv.FormatInt(id, 10)] = d
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIslands(w http.ResponseWriter, r *http.Request) {
	var islands []analysis.Island
	s.atlas.Read(func(v atlas.View) { islands = analysis.Islands(v, edgeSetParam(r)) })
	writeJSON(w, http.StatusOK, islands)
}

func (s *Server) handleUV(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]Point)
	s.atlas.Read(func(v atlas.View) {
		for id, pos := range embedding.AtlasUVPositions(v) {
			out[strconv.FormatInt(id, 10)] = toPoint(pos)
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBarycenter(w http.ResponseWriter, r *http.Request) {
	ids, err := idList(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var center r2.Vec
	s.atlas.Read(func(v atlas.View) {
		center = embedding.NewProjector(v, embedding.WithMissingPolicy(s.missing)).Barycenter(ids)
	})
	writeJSON(w, http.StatusOK, toPoint(center))
}

func (s *Server) handlePolyline(w http.ResponseWriter, r *http.Request) {
	ids, err := idList(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := make([]Point, 0, len(ids))
	s.atlas.Read(func(v atlas.View) {
		for _, pos := range embedding.PathToPolyline(v, ids) {
			out = append(out, toPoint(pos))
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var data *GraphData
	s.atlas.Read(func(v atlas.View) { data = buildGraphData(v, edgeSetParam(r)) })
	writeJSON(w, http.StatusOK, data)
}

func buildGraphData(v atlas.View, edgeSet string) *GraphData {
	data := &GraphData{
		EdgeSet: edgeSet,
		Nodes:   make([]GraphNode, 0, v.Len()),
		Edges:   make([]GraphEdge, 0),
	}

	for _, n := range v.Nodes() {
		tags := n.Tags
		if tags == nil {
			tags = []string{}
		}
		data.Nodes = append(data.Nodes, GraphNode{
			ID:     n.ID,
			Label:  fmt.Sprintf("%s#%d", n.ChunkID, n.IndexInChunk),
			Region: n.Region,
			Chunk:  n.ChunkID,
			Tags:   tags,
			U:      n.U(),
			V:      n.V(),
		})
	}
	for _, e := range v.Edges(edgeSet) {
		data.Edges = append(data.Edges, GraphEdge{Source: e[0], Target: e[1]})
	}
	return data
}
