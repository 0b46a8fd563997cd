// Package embedding projects an atlas graph into atlas UV space for
// visualization and effect prototyping. Coordinates are a debugging aid;
// topology always comes from the graph's edge sets.
package embedding

import (
	"fmt"
	"strings"

	"github.com/ritzau/lumen-atlas/pkg/atlas"
	"gonum.org/v1/gonum/spatial/r2"
)

// Graph is the read access the projector needs.
type Graph interface {
	Node(id int64) (*atlas.Node, bool)
	Nodes() []*atlas.Node
}

// MissingPolicy decides how Barycenter treats ids that are not in the graph.
type MissingPolicy int

const (
	// MissingAsOrigin counts a missing id as (0, 0). The mean is skewed
	// toward the origin.
	MissingAsOrigin MissingPolicy = iota
	// MissingExcluded leaves missing ids out of the mean.
	MissingExcluded
)

func (p MissingPolicy) String() string {
	switch p {
	case MissingAsOrigin:
		return "origin"
	case MissingExcluded:
		return "exclude"
	}
	return fmt.Sprintf("MissingPolicy(%d)", int(p))
}

// ParseMissingPolicy maps "origin" (or "") and "exclude" to a policy.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "origin":
		return MissingAsOrigin, nil
	case "exclude":
		return MissingExcluded, nil
	}
	return 0, fmt.Errorf("unknown missing-node policy %q (want origin or exclude)", s)
}

// Projector derives UV coordinates from a graph.
type Projector struct {
	graph   Graph
	missing MissingPolicy
}

// Option configures a Projector.
type Option func(*Projector)

// WithMissingPolicy overrides the default MissingAsOrigin policy.
func WithMissingPolicy(p MissingPolicy) Option {
	return func(pr *Projector) { pr.missing = p }
}

// NewProjector creates a projector over g.
func NewProjector(g Graph, opts ...Option) *Projector {
	p := &Projector{graph: g, missing: MissingAsOrigin}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Position returns the UV position of id. Missing "u" or "v" entries read
// as 0.
func (p *Projector) Position(id int64) (r2.Vec, bool) {
	n, ok := p.graph.Node(id)
	if !ok {
		return r2.Vec{}, false
	}
	return uv(n), true
}

// Positions maps every node id to its UV position.
func (p *Projector) Positions() map[int64]r2.Vec {
	nodes := p.graph.Nodes()
	positions := make(map[int64]r2.Vec, len(nodes))
	for _, n := range nodes {
		positions[n.ID] = uv(n)
	}
	return positions
}

// Barycenter returns the mean UV position of ids. An empty input, or one
// where the policy leaves nothing to average, gives the origin.
func (p *Projector) Barycenter(ids []int64) r2.Vec {
	var sum r2.Vec
	count := 0
	for _, id := range ids {
		pos, ok := p.Position(id)
		if !ok && p.missing == MissingExcluded {
			continue
		}
		sum = r2.Add(sum, pos)
		count++
	}
	if count == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/float64(count), sum)
}

// Polyline maps a path of node ids to UV positions. Ids not in the graph are
// dropped, so the result may be shorter than path.
func (p *Projector) Polyline(path []int64) []r2.Vec {
	line := make([]r2.Vec, 0, len(path))
	for _, id := range path {
		if pos, ok := p.Position(id); ok {
			line = append(line, pos)
		}
	}
	return line
}

func uv(n *atlas.Node) r2.Vec {
	return r2.Vec{X: n.U(), Y: n.V()}
}

// AtlasUVPositions maps every node of g to its UV position.
func AtlasUVPositions(g Graph) map[int64]r2.Vec {
	return NewProjector(g).Positions()
}

// Barycenter is the mean UV position of ids in g, counting missing ids as
// the origin.
func Barycenter(g Graph, ids []int64) r2.Vec {
	return NewProjector(g).Barycenter(ids)
}

// PathToPolyline maps path to UV positions in g, dropping missing ids.
func PathToPolyline(g Graph, path []int64) []r2.Vec {
	return NewProjector(g).Polyline(path)
}
