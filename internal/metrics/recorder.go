package metrics

import (
	"context"
	"time"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Recorder feeds both the in-memory collector and the Prometheus collectors.
// Either side may be nil, and a nil *Recorder records nothing.
type Recorder struct {
	Collector  *Collector
	Prometheus *Prometheus
}

// NewRecorder creates a recorder with a fresh collector and Prometheus registry.
func NewRecorder() *Recorder {
	return &Recorder{Collector: NewCollector(), Prometheus: NewPrometheus(nil)}
}

func (r *Recorder) timing(op string, d time.Duration, err error) {
	if r != nil && r.Collector != nil {
		r.Collector.Record(op, d, err)
	}
}

func (r *Recorder) prom() *Prometheus {
	if r == nil {
		return nil
	}
	return r.Prometheus
}

// ObserveEmbedding counts one embedding attempt by outcome.
func (r *Recorder) ObserveEmbedding(err error) {
	p := r.prom()
	if p == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = embedding.KindOf(err).String()
	}
	p.EmbeddingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDocument records one pipeline document.
func (r *Recorder) ObserveDocument(source string, d time.Duration, err error) {
	r.timing(OpDocument, d, err)
	if p := r.prom(); p != nil {
		outcome := "processed"
		if err != nil {
			outcome = "failed"
		}
		p.DocumentsTotal.WithLabelValues(source, outcome).Inc()
	}
}

// ObserveChunks counts processed chunks by content type.
func (r *Recorder) ObserveChunks(dist map[models.ContentType]int) {
	p := r.prom()
	if p == nil {
		return
	}
	for ct, n := range dist {
		p.ChunksTotal.WithLabelValues(string(ct)).Add(float64(n))
	}
}

// ObserveUpsert records one vector store write.
func (r *Recorder) ObserveUpsert(d time.Duration, stored int) {
	r.timing(OpVectorUpsert, d, nil)
	if p := r.prom(); p != nil {
		p.VectorsUpsertedTotal.Add(float64(stored))
	}
}

// ObserveSearch records one vector store search.
func (r *Recorder) ObserveSearch(d time.Duration) {
	r.timing(OpVectorSearch, d, nil)
}

// ObserveRetrieval records one end-to-end retrieval query.
func (r *Recorder) ObserveRetrieval(d time.Duration, results int, err error) {
	r.timing(OpRetrieval, d, err)
	p := r.prom()
	if p == nil {
		return
	}
	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
	case results == 0:
		outcome = "zero_result"
	}
	p.RetrievalQueriesTotal.WithLabelValues(outcome).Inc()
	p.RetrievalLatency.Observe(d.Seconds())
	if err == nil {
		p.RetrievalResultsCount.Observe(float64(results))
	}
}

// ObserveHTTP records one HTTP request.
func (r *Recorder) ObserveHTTP(method, path, status string, d time.Duration) {
	if p := r.prom(); p != nil {
		p.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		p.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	}
}

// RecordLLMUsage records timing and token usage of an LLM call.
func (r *Recorder) RecordLLMUsage(d time.Duration, inputTokens, outputTokens int64) {
	if r != nil && r.Collector != nil {
		r.Collector.RecordLLMUsage(OpLLMGenerate, d, inputTokens, outputTokens)
	}
}

// Snapshot returns the in-memory statistics.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil || r.Collector == nil {
		return Snapshot{}
	}
	return r.Collector.Snapshot()
}

// timedEmbedder records the latency of every Embed call.
type timedEmbedder struct {
	embedding.Embedder
	rec *Recorder
}

// InstrumentEmbedder wraps e so each call is timed under OpEmbedding.
func (r *Recorder) InstrumentEmbedder(e embedding.Embedder) embedding.Embedder {
	if r == nil || r.Collector == nil {
		return e
	}
	return &timedEmbedder{Embedder: e, rec: r}
}

func (t *timedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := t.Embedder.Embed(ctx, text)
	t.rec.timing(OpEmbedding, time.Since(start), err)
	return vec, err
}
