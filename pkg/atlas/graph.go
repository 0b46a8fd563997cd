package atlas

import (
	"maps"
	"slices"

	"github.com/ritzau/lumen-atlas/pkg/logging"
	"github.com/tidwall/btree"
)

// Conventional edge-set names. Producers may use any non-empty name.
const (
	EdgeSetSurface = "surface"
	EdgeSetStrip   = "strip"
)

// View is the read-only surface of a Graph. Nodes handed out by a View must
// not be modified by the caller.
type View interface {
	Node(id int64) (*Node, bool)
	Nodes() []*Node
	Len() int
	Neighbors(id int64, edgeSet string) []int64
	EdgeSetNames() []string
	Edges(edgeSet string) [][2]int64
	NodesInRegion(region string) []*Node
	NodesInChunk(chunkID string) []*Node
	Record(id int64, opts ExportOptions) (map[string]any, bool)
}

// Graph holds LED nodes and one adjacency map per named edge set.
//
// Graph is not safe for concurrent use; wrap it in a Guarded when it is
// shared between goroutines.
type Graph struct {
	nodes    btree.Map[int64, *Node]
	edgeSets map[string]map[int64]*btree.Set[int64]
}

var _ View = (*Graph)(nil)

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		edgeSets: make(map[string]map[int64]*btree.Set[int64]),
	}
}

// AddNode registers node, replacing any node with the same id. Every entry of
// the node's authored neighbors is mirrored into the graph adjacency as a
// bidirectional edge. Adjacency mirrored from a replaced node is kept.
func (g *Graph) AddNode(node *Node) {
	node.ensureContainers()
	if _, replaced := g.nodes.Set(node.ID, node); replaced {
		logging.Debug("replaced atlas node", "nodeID", node.ID)
	}

	for edgeSet, ids := range node.Neighbors {
		for _, id := range ids {
			g.AddEdge(node.ID, id, edgeSet, true)
		}
	}
}

// AddEdge inserts b into a's adjacency for edgeSet, creating the edge set on
// first use. With bidirectional set, a is also inserted into b's adjacency.
// Self-edges are stored as given. Node authored neighbors are not updated, so
// an edge added only here is not part of an authored export.
func (g *Graph) AddEdge(a, b int64, edgeSet string, bidirectional bool) {
	if edgeSet == "" {
		logging.Debug("ignoring edge with empty edge set name", "from", a, "to", b)
		return
	}

	if g.edgeSets == nil {
		g.edgeSets = make(map[string]map[int64]*btree.Set[int64])
	}
	adjacency, ok := g.edgeSets[edgeSet]
	if !ok {
		adjacency = make(map[int64]*btree.Set[int64])
		g.edgeSets[edgeSet] = adjacency
	}

	link(adjacency, a, b)
	if bidirectional {
		link(adjacency, b, a)
	}
}

func link(adjacency map[int64]*btree.Set[int64], from, to int64) {
	set, ok := adjacency[from]
	if !ok {
		set = &btree.Set[int64]{}
		adjacency[from] = set
	}
	set.Insert(to)
}

// AddEdgeSetFromPairs adds every pair as an edge of edgeSet, in input order.
func (g *Graph) AddEdgeSetFromPairs(pairs [][2]int64, edgeSet string, bidirectional bool) {
	for _, pair := range pairs {
		g.AddEdge(pair[0], pair[1], edgeSet, bidirectional)
	}
}

// Neighbors returns the neighbors of id in edgeSet in ascending order. An
// unknown node or edge set yields an empty slice.
func (g *Graph) Neighbors(id int64, edgeSet string) []int64 {
	set, ok := g.edgeSets[edgeSet][id]
	if !ok {
		return []int64{}
	}

	neighbors := make([]int64, 0, set.Len())
	set.Scan(func(n int64) bool {
		neighbors = append(neighbors, n)
		return true
	})
	return neighbors
}

// EdgeSetNames returns the names of all known edge sets, sorted.
func (g *Graph) EdgeSetNames() []string {
	return slices.Sorted(maps.Keys(g.edgeSets))
}

// Edges returns the directed adjacency of edgeSet as sorted [from, to] pairs.
// A bidirectional edge shows up once per direction.
func (g *Graph) Edges(edgeSet string) [][2]int64 {
	adjacency := g.edgeSets[edgeSet]
	var edges [][2]int64
	for _, from := range slices.Sorted(maps.Keys(adjacency)) {
		adjacency[from].Scan(func(to int64) bool {
			edges = append(edges, [2]int64{from, to})
			return true
		})
	}
	return edges
}

// Node returns the node with the given id.
func (g *Graph) Node(id int64) (*Node, bool) {
	return g.nodes.Get(id)
}

// Nodes returns all nodes in ascending id order.
func (g *Graph) Nodes() []*Node {
	return g.filter(func(*Node) bool { return true })
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return g.nodes.Len()
}

// NodesInRegion returns the nodes whose region equals region, in storage order.
func (g *Graph) NodesInRegion(region string) []*Node {
	return g.filter(func(n *Node) bool { return n.Region == region })
}

// NodesInChunk returns the nodes wired on chunkID ordered by their index in
// the chunk, which is the order the LED controller addresses them in.
func (g *Graph) NodesInChunk(chunkID string) []*Node {
	nodes := g.filter(func(n *Node) bool { return n.ChunkID == chunkID })
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return a.IndexInChunk - b.IndexInChunk
	})
	return nodes
}

// AppendObservation appends obs to the observation history of node id.
// It returns false when the node does not exist.
func (g *Graph) AppendObservation(id int64, obs Observation) bool {
	node, ok := g.nodes.Get(id)
	if !ok {
		return false
	}
	node.CameraObservations = append(node.CameraObservations, maps.Clone(obs))
	return true
}

func (g *Graph) filter(keep func(*Node) bool) []*Node {
	matched := make([]*Node, 0)
	g.nodes.Scan(func(_ int64, n *Node) bool {
		if keep(n) {
			matched = append(matched, n)
		}
		return true
	})
	return matched
}
