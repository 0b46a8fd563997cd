package atlas

import "sync"

// Guarded shares a Graph between goroutines under a single-writer,
// multi-reader discipline. Readers get a View; only Write and Swap may mutate.
type Guarded struct {
	mu    sync.RWMutex
	graph *Graph
}

// NewGuarded wraps g. A nil g starts from an empty graph.
func NewGuarded(g *Graph) *Guarded {
	if g == nil {
		g = NewGraph()
	}
	return &Guarded{graph: g}
}

// Read runs fn with the read lock held. Several Read calls may run at once.
func (s *Guarded) Read(fn func(View)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.graph)
}

// Write runs fn with exclusive access to the graph.
func (s *Guarded) Write(fn func(*Graph)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.graph)
}

// Swap replaces the guarded graph, e.g. after a snapshot reload, and returns
// the previous one.
func (s *Guarded) Swap(g *Graph) *Graph {
	if g == nil {
		g = NewGraph()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.graph
	s.graph = g
	return prev
}

// Export serializes the current graph under the read lock.
func (s *Guarded) Export(opts ExportOptions) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.ToSerializableWith(opts)
}
