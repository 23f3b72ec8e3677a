// Package server exposes the FlowScope HTTP API: container discovery,
// flowchart construction, layout computation, diagram export, and a
// websocket feed that pushes the live topology to dashboards.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/valhq/flowscope/pkg/cache"
	"github.com/valhq/flowscope/pkg/config"
	"github.com/valhq/flowscope/pkg/discovery"
	"github.com/valhq/flowscope/pkg/observability"
	"github.com/valhq/flowscope/pkg/store"
	"github.com/valhq/flowscope/pkg/topology"
)

// Source is the discovery surface the server consumes. *discovery.Client
// satisfies it; tests substitute a fixture-backed fake.
type Source interface {
	ListContainers(ctx context.Context) ([]topology.Container, error)
	ListContainersWithStats(ctx context.Context) ([]topology.Container, error)
	GetContainer(ctx context.Context, idOrName string) (topology.Container, error)
	ContainerDetail(ctx context.Context, idOrName string) (topology.ContainerDetail, error)
	ContainerLogs(ctx context.Context, idOrName string, tail int) (topology.Logs, error)
	ContainerStats(ctx context.Context, idOrName string) (*topology.Stats, error)
	StartContainer(ctx context.Context, idOrName string) (topology.ActionResult, error)
	StopContainer(ctx context.Context, idOrName string) (topology.ActionResult, error)
	RestartContainer(ctx context.Context, idOrName string) (topology.ActionResult, error)
	ListNetworks(ctx context.Context) ([]topology.Network, error)
	ImageSizes(ctx context.Context) ([]topology.ImageSize, error)
}

// Server wires the discovery source, cache, layout store and websocket hub
// behind one router.
type Server struct {
	cfg     config.Config
	source  Source
	cache   cache.Cache
	keys    cache.Keyer
	layouts store.Store
	metrics *observability.Registry
	logger  *log.Logger
	hub     *Hub
}

// New assembles a Server. Pass cache.NewNullCache() to disable caching and
// store.NewMemoryStore() for ephemeral layout persistence.
func New(cfg config.Config, source Source, c cache.Cache, layouts store.Store, metrics *observability.Registry, logger *log.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		source:  source,
		cache:   c,
		keys:    cache.DefaultKeyer{},
		layouts: layouts,
		metrics: metrics,
		logger:  logger,
	}
	s.hub = newHub(s)
	return s
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/topology", s.handleTopology)
		r.Get("/networks", s.handleNetworks)
		r.Get("/images/sizes", s.handleImageSizes)

		r.Get("/containers", s.handleContainers)
		r.Get("/containers/stats", s.handleAllStats)
		r.Route("/containers/{id}", func(r chi.Router) {
			r.Get("/", s.handleContainer)
			r.Get("/detail", s.handleContainerDetail)
			r.Get("/logs", s.handleContainerLogs)
			r.Get("/stats", s.handleContainerStats)
			r.Post("/start", s.handleAction(discovery.ActionStart))
			r.Post("/stop", s.handleAction(discovery.ActionStop))
			r.Post("/restart", s.handleAction(discovery.ActionRestart))
		})

		r.Get("/flowcharts", s.handleFlowcharts)
		r.Route("/flowcharts/{id}", func(r chi.Router) {
			r.Get("/", s.handleFlowchart)
			r.Get("/export", s.handleExport)
			r.Get("/positions", s.handleGetPositions)
			r.Put("/positions", s.handlePutPositions)
			r.Delete("/positions", s.handleDeletePositions)
		})

		r.Post("/layout", s.handleLayout)
	})

	r.Get("/ws", s.hub.handleWS)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// Run serves HTTP until ctx is cancelled, then drains connections within
// the configured shutdown timeout. The websocket poller runs for the same
// lifetime.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.cfg.Server.ShutdownTimeout.Duration())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
