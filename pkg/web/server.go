package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ritzau/lumen-atlas/pkg/analysis"
	"github.com/ritzau/lumen-atlas/pkg/atlas"
	"github.com/ritzau/lumen-atlas/pkg/embedding"
	"github.com/ritzau/lumen-atlas/pkg/logging"
	"github.com/ritzau/lumen-atlas/pkg/metrics"
	"github.com/ritzau/lumen-atlas/pkg/pubsub"
)

// Server represents the web server
type Server struct {
	router    *mux.Router
	atlas     *atlas.Guarded
	publisher *pubsub.SSEPublisher
	export    atlas.ExportOptions
	missing   embedding.MissingPolicy
}

// Option configures a Server.
type Option func(*Server)

// WithExportOptions sets how /api/atlas and node records are serialized.
func WithExportOptions(opts atlas.ExportOptions) Option {
	return func(s *Server) { s.export = opts }
}

// WithMissingPolicy sets how /api/barycenter treats unknown ids.
func WithMissingPolicy(p embedding.MissingPolicy) Option {
	return func(s *Server) { s.missing = p }
}

// NewServer creates a web server answering queries against g.
func NewServer(g *atlas.Guarded, opts ...Option) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// atlas_status: new subscribers only need the current state
	ssePublisher.ConfigureTopic(pubsub.TopicAtlasStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	if g == nil {
		g = atlas.NewGuarded(nil)
	}

	s := &Server{
		router:    mux.NewRouter(),
		atlas:     g,
		publisher: ssePublisher,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetGraph swaps in a freshly loaded graph and announces it, with the
// changes against the previous graph, on atlas_status.
func (s *Server) SetGraph(g *atlas.Graph, state, path string) {
	prev := s.atlas.Swap(g)

	var status pubsub.AtlasStatus
	s.atlas.Read(func(v atlas.View) {
		metrics.ObserveGraph(v)
		diff := analysis.Diff(prev, v)
		status = pubsub.AtlasStatus{
			State:    state,
			Path:     path,
			Nodes:    v.Len(),
			EdgeSets: v.EdgeSetNames(),
			Changes: &pubsub.AtlasChanges{
				AddedNodes:    len(diff.AddedNodes),
				RemovedNodes:  len(diff.RemovedNodes),
				ModifiedNodes: len(diff.ModifiedNodes),
				AddedEdges:    len(diff.AddedEdges),
				RemovedEdges:  len(diff.RemovedEdges),
			},
		}
	})
	logging.Debug("swapped atlas", "state", state, "changes", *status.Changes)

	if err := s.PublishStatus(status); err != nil {
		logging.Warn("failed to publish atlas status", "error", err)
	}
}

// PublishStatus publishes an atlas_status event typed by its state.
func (s *Server) PublishStatus(status pubsub.AtlasStatus) error {
	return s.publisher.Publish(pubsub.TopicAtlasStatus, status.State, status)
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware, metricsMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/atlas_status", s.handleSubscribeAtlasStatus).Methods("GET")

	s.router.HandleFunc("/api/atlas", s.handleAtlas).Methods("GET")
	s.router.HandleFunc("/api/edge-sets", s.handleEdgeSets).Methods("GET")
	s.router.HandleFunc("/api/nodes/{id}", s.handleNode).Methods("GET")
	s.router.HandleFunc("/api/nodes/{id}/neighbors", s.handleNeighbors).Methods("GET")
	s.router.HandleFunc("/api/regions/{region}/nodes", s.handleRegionNodes).Methods("GET")
	s.router.HandleFunc("/api/tags/{tag}/nodes", s.handleTagNodes).Methods("GET")
	s.router.HandleFunc("/api/chunks/{chunk}/nodes", s.handleChunkNodes).Methods("GET")

	s.router.HandleFunc("/api/traverse", s.handleTraverse).Methods("GET")
	s.router.HandleFunc("/api/path", s.handlePath).Methods("GET")
	s.router.HandleFunc("/api/boundary", s.handleBoundary).Methods("GET")
	s.router.HandleFunc("/api/distances", s.handleDistances).Methods("GET")
	s.router.HandleFunc("/api/islands", s.handleIslands).Methods("GET")

	s.router.HandleFunc("/api/uv", s.handleUV).Methods("GET")
	s.router.HandleFunc("/api/barycenter", s.handleBarycenter).Methods("GET")
	s.router.HandleFunc("/api/polyline", s.handlePolyline).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func (s *Server) handleSubscribeAtlasStatus(w http.ResponseWriter, r *http.Request) {
	sub, err := s.publisher.Subscribe(r.Context(), pubsub.TopicAtlasStatus)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the stream before the first event
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.DebugContext(r.Context(), "SSE client went away", "error", err)
			return
		}
		flush(w)
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start serves on port until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.publisher.Close()
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	// Closing the publisher ends open SSE streams so Shutdown can finish.
	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	logging.Info("web server stopped")
	return nil
}
