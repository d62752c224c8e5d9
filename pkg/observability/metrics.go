package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Graph metrics
	NodesCreated    *prometheus.CounterVec
	NodesDeleted    prometheus.Counter
	EdgesCreated    prometheus.Counter
	GraphResets     prometheus.Counter
	Expansions      *prometheus.CounterVec
	StaleResults    prometheus.Counter
	RejectedUploads prometheus.Counter

	// Content fetch metrics
	FetchDuration *prometheus.HistogramVec

	// Snapshot metrics
	SnapshotOperations *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		NodesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Total number of nodes created",
		}, []string{"type"}),
		NodesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_deleted_total",
			Help:      "Total number of nodes deleted",
		}),
		EdgesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_created_total",
			Help:      "Total number of edges created",
		}),
		GraphResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_resets_total",
			Help:      "Total number of full graph resets",
		}),
		Expansions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansions_total",
			Help:      "Node activations by type and outcome",
		}, []string{"type", "outcome"}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_expansion_results_total",
			Help:      "Fetch results discarded because the graph or binding changed",
		}),
		RejectedUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_uploads_total",
			Help:      "Uploads refused by the extension denylist",
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "content_fetch_duration_seconds",
			Help:      "Content fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		SnapshotOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_operations_total",
			Help:      "Snapshot store operations",
		}, []string{"operation", "status"}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.NodesCreated,
		c.NodesDeleted,
		c.EdgesCreated,
		c.GraphResets,
		c.Expansions,
		c.StaleResults,
		c.RejectedUploads,
		c.FetchDuration,
		c.SnapshotOperations,
	)

	globalCollector = c
	return globalCollector
}

// ResetForTesting resets the global collector for testing purposes
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// Handler exposes the registry for scraping
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// NodeCreated counts a new node of the given type
func (c *Collector) NodeCreated(nodeType string) {
	if c == nil {
		return
	}
	c.NodesCreated.WithLabelValues(nodeType).Inc()
}

// NodeDeleted counts a deleted node
func (c *Collector) NodeDeleted() {
	if c == nil {
		return
	}
	c.NodesDeleted.Inc()
}

// EdgesAdded counts n new edges
func (c *Collector) EdgesAdded(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.EdgesCreated.Add(float64(n))
}

// GraphReset counts a full reset
func (c *Collector) GraphReset() {
	if c == nil {
		return
	}
	c.GraphResets.Inc()
}

// Expansion counts an activation outcome
func (c *Collector) Expansion(nodeType, outcome string) {
	if c == nil {
		return
	}
	c.Expansions.WithLabelValues(nodeType, outcome).Inc()
}

// StaleResult counts a discarded fetch result
func (c *Collector) StaleResult() {
	if c == nil {
		return
	}
	c.StaleResults.Inc()
}

// UploadRejected counts a denied upload
func (c *Collector) UploadRejected() {
	if c == nil {
		return
	}
	c.RejectedUploads.Inc()
}

// FetchCompleted records a content fetch
func (c *Collector) FetchCompleted(d time.Duration, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.FetchDuration.WithLabelValues(status).Observe(d.Seconds())
}

// SnapshotOperation records a snapshot store call
func (c *Collector) SnapshotOperation(operation string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.SnapshotOperations.WithLabelValues(operation, status).Inc()
}

// HTTPRequest records a served request
func (c *Collector) HTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
