// Package rest exposes the workspace over HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/mediator"
	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/interfaces/http/rest/handlers"
	"github.com/Apanazar/WGE/interfaces/http/rest/middleware"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
	"github.com/Apanazar/WGE/pkg/observability"
)

// Options tune the router
type Options struct {
	AllowedOrigins []string
	// LinkLimit caps the links returned by /api/parse
	LinkLimit int
	// Debug adds error causes to responses
	Debug bool
}

// Router creates and configures the HTTP router
type Router struct {
	mediator  mediator.IMediator
	fetcher   ports.ContentFetcher
	panel     handlers.PanelSource
	websocket http.HandlerFunc
	metrics   *observability.Collector
	opts      Options
	logger    *zap.Logger
}

// NewRouter creates a new router instance. A nil websocket handler leaves
// /ws unrouted; a nil collector disables /metrics.
func NewRouter(
	m mediator.IMediator,
	fetcher ports.ContentFetcher,
	panel handlers.PanelSource,
	websocket http.HandlerFunc,
	metrics *observability.Collector,
	opts Options,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		mediator:  m,
		fetcher:   fetcher,
		panel:     panel,
		websocket: websocket,
		metrics:   metrics,
		opts:      opts,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	rt.useCommon(router)

	router.Get("/health", healthCheck)
	router.Get("/ready", readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}
	if rt.websocket != nil {
		router.Get("/ws", rt.websocket)
	}

	content := handlers.NewContentHandler(rt.fetcher, rt.opts.LinkLimit, rt.logger)
	router.Get("/api/parse", content.Parse)
	router.Get("/api/random", content.Random)

	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)
	graphHandler := handlers.NewGraphHandler(rt.mediator, rt.panel, errorHandler, rt.logger)
	nodeHandler := handlers.NewNodeHandler(rt.mediator, errorHandler, rt.logger)

	router.Route("/api/v2", func(r chi.Router) {
		r.Route("/graph", func(r chi.Router) {
			r.Get("/", graphHandler.GetGraph)
			r.Post("/root", graphHandler.NewRoot)
			r.Post("/random", graphHandler.RandomRoot)
			r.Put("/locale", graphHandler.SetLocale)
		})

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/url", nodeHandler.AddURLNode)
			r.Post("/notice", nodeHandler.AddNotice)
			r.Post("/upload", nodeHandler.Upload)
			r.Get("/{nodeID}", nodeHandler.GetNode)
			r.Delete("/{nodeID}", nodeHandler.DeleteNode)
			r.Post("/{nodeID}/activate", nodeHandler.Activate)
			r.Post("/{nodeID}/detach", nodeHandler.Detach)
			r.Post("/{nodeID}/reattach", nodeHandler.Reattach)
			r.Put("/{nodeID}/title", nodeHandler.EditTitle)
			r.Put("/{nodeID}/position", nodeHandler.Move)
			r.Put("/{nodeID}/notice", nodeHandler.UpdateNotice)
			r.Post("/{nodeID}/select", nodeHandler.Select)
		})

		r.Get("/resolve", graphHandler.Resolve)
		r.Post("/edges", nodeHandler.Connect)
		r.Delete("/selection", graphHandler.ClearSelection)
		r.Get("/panel", graphHandler.GetPanel)
		r.Delete("/panel", graphHandler.ClosePanel)

		r.Get("/export", graphHandler.Export)
		r.Post("/import", graphHandler.Import)
		r.Post("/save", graphHandler.Save)

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", graphHandler.ListSnapshots)
			r.Put("/{name}", graphHandler.SaveSnapshot)
			r.Post("/{name}/load", graphHandler.LoadSnapshot)
		})
	})

	return router
}

// NewContentRouter serves only the stateless content endpoints. It backs
// the Lambda deployment, where no workspace lives between invocations.
func NewContentRouter(fetcher ports.ContentFetcher, opts Options, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	rt := &Router{fetcher: fetcher, opts: opts, logger: logger}
	router := chi.NewRouter()
	rt.useCommon(router)

	content := handlers.NewContentHandler(fetcher, opts.LinkLimit, logger)
	router.Get("/health", healthCheck)
	router.Get("/api/parse", content.Parse)
	router.Get("/api/random", content.Random)
	return router
}

func (rt *Router) useCommon(router chi.Router) {
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	origins := rt.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))
}

func healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
