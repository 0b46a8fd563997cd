package atlas

import "slices"

// Observation is one camera measurement attached to a node, keyed by metric
// name (e.g. "x", "y", "area"). Records are produced by the detection tooling
// and only ever appended.
type Observation map[string]float64

// Node represents a single physical LED.
//
// ID is the only identity the graph uses. ChunkID and IndexInChunk address
// the LED on its wiring segment and are opaque to the graph. Neighbors is the
// node's authored adjacency, indexed by edge-set name; the graph's own
// adjacency is what queries read.
type Node struct {
	ID           int64
	ChunkID      string
	IndexInChunk int

	AtlasUV   map[string]float64
	Region    string // empty means no region
	Neighbors map[string][]int64
	Tags      []string

	Description        string   // empty means none
	Confidence         *float64 // nil means unknown
	CameraObservations []Observation
}

// NewNode creates a node with its own empty containers.
func NewNode(id int64, chunkID string, indexInChunk int) *Node {
	n := &Node{
		ID:           id,
		ChunkID:      chunkID,
		IndexInChunk: indexInChunk,
	}
	n.ensureContainers()
	return n
}

// U returns the atlas u coordinate, 0 when unset.
func (n *Node) U() float64 { return n.AtlasUV["u"] }

// V returns the atlas v coordinate, 0 when unset.
func (n *Node) V() float64 { return n.AtlasUV["v"] }

// HasTag reports whether tag is among the node's tags.
func (n *Node) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// AddNeighbor attaches neighborID to the node's authored adjacency for
// edgeSet. Ids already listed are not added twice. The graph adjacency is not
// touched; use Graph.AddEdge for that.
func (n *Node) AddNeighbor(edgeSet string, neighborID int64) {
	n.ensureContainers()
	ids := n.Neighbors[edgeSet]
	if slices.Contains(ids, neighborID) {
		return
	}
	n.Neighbors[edgeSet] = append(ids, neighborID)
}

func (n *Node) ensureContainers() {
	if n.AtlasUV == nil {
		n.AtlasUV = make(map[string]float64)
	}
	if n.Neighbors == nil {
		n.Neighbors = make(map[string][]int64)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.CameraObservations == nil {
		n.CameraObservations = []Observation{}
	}
}
