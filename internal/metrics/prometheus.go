package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus holds the Prometheus collectors for ingestion and retrieval.
type Prometheus struct {
	DocumentsTotal        *prometheus.CounterVec
	ChunksTotal           *prometheus.CounterVec
	EmbeddingsTotal       *prometheus.CounterVec
	VectorsUpsertedTotal  prometheus.Counter
	RetrievalQueriesTotal *prometheus.CounterVec
	RetrievalLatency      prometheus.Histogram
	RetrievalResultsCount prometheus.Histogram
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg gets a fresh registry, so tests and multiple instances never collide.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	p := &Prometheus{
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragpipe_documents_total",
				Help: "Documents handled by the pipeline by source and outcome (processed, failed).",
			},
			[]string{"source", "outcome"},
		),
		ChunksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragpipe_chunks_total",
				Help: "Processed chunks by content type.",
			},
			[]string{"content_type"},
		),
		EmbeddingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragpipe_embeddings_total",
				Help: "Embedding attempts by outcome (ok, empty, transient, auth_fatal).",
			},
			[]string{"outcome"},
		),
		VectorsUpsertedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ragpipe_vectors_upserted_total",
				Help: "Vectors written to the vector store.",
			},
		),
		RetrievalQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragpipe_retrieval_queries_total",
				Help: "Retrieval queries by outcome (hit, zero_result, error).",
			},
			[]string{"outcome"},
		),
		RetrievalLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ragpipe_retrieval_latency_seconds",
				Help:    "Retrieval latency in seconds, embedding included.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		RetrievalResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ragpipe_retrieval_results_count",
				Help:    "Number of results returned per retrieval query.",
				Buckets: []float64{0, 1, 3, 5, 10, 25, 50},
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragpipe_http_requests_total",
				Help: "HTTP requests by method, path and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragpipe_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		p.DocumentsTotal,
		p.ChunksTotal,
		p.EmbeddingsTotal,
		p.VectorsUpsertedTotal,
		p.RetrievalQueriesTotal,
		p.RetrievalLatency,
		p.RetrievalResultsCount,
		p.HTTPRequestsTotal,
		p.HTTPRequestDuration,
	)
	return p
}

// Handler returns the scrape handler for the registry these collectors live in.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
