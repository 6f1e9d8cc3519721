// Package metrics provides in-memory runtime statistics and Prometheus collectors.
package metrics

import (
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpEmbedding    = "embedding"
	OpLLMGenerate  = "llm_generate"
	OpVectorSearch = "vector_search"
	OpVectorUpsert = "vector_upsert"
	OpDocument     = "document"
	OpRetrieval    = "retrieval"
)

// OperationSnapshot summarizes one operation's timings.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	Failed      int64   `json:"failed,omitempty"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	// Set for LLM generation only.
	InputTokens  *int64 `json:"input_tokens,omitempty"`
	OutputTokens *int64 `json:"output_tokens,omitempty"`
}

// Snapshot is the collector state at a point in time. Operations that never
// ran are nil.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	Document      *OperationSnapshot `json:"document,omitempty"`
	Embedding     *OperationSnapshot `json:"embedding,omitempty"`
	VectorUpsert  *OperationSnapshot `json:"vector_upsert,omitempty"`
	VectorSearch  *OperationSnapshot `json:"vector_search,omitempty"`
	Retrieval     *OperationSnapshot `json:"retrieval,omitempty"`
	LLMGenerate   *OperationSnapshot `json:"llm_generate,omitempty"`
}

type opStats struct {
	count, failed       int64
	total, min, max     time.Duration
	tokensIn, tokensOut int64
	usage               bool
}

func (s *opStats) add(d time.Duration, err error) {
	if s.count == 0 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
	s.count++
	s.total += d
	if err != nil {
		s.failed++
	}
}

func (s *opStats) snapshot() *OperationSnapshot {
	if s == nil || s.count == 0 {
		return nil
	}
	snap := &OperationSnapshot{
		Count:       s.count,
		Failed:      s.failed,
		TotalTimeMs: s.total.Milliseconds(),
		AvgTimeMs:   float64(s.total.Milliseconds()) / float64(s.count),
		MinTimeMs:   s.min.Milliseconds(),
		MaxTimeMs:   s.max.Milliseconds(),
	}
	if s.usage {
		in, out := s.tokensIn, s.tokensOut
		snap.InputTokens, snap.OutputTokens = &in, &out
	}
	return snap
}

// Collector aggregates operation timings in memory. Safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	started time.Time
	ops     map[string]*opStats
}

// NewCollector creates an empty collector; uptime counts from now.
func NewCollector() *Collector {
	return &Collector{started: time.Now(), ops: make(map[string]*opStats)}
}

func (c *Collector) stats(op string) *opStats {
	s, ok := c.ops[op]
	if !ok {
		s = &opStats{}
		c.ops[op] = s
	}
	return s
}

// Record adds one run of op. A non-nil err counts it as failed.
func (c *Collector) Record(op string, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats(op).add(d, err)
}

// RecordLLMUsage adds one LLM call with its token usage.
func (c *Collector) RecordLLMUsage(op string, d time.Duration, inputTokens, outputTokens int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats(op)
	s.add(d, nil)
	s.usage = true
	s.tokensIn += inputTokens
	s.tokensOut += outputTokens
}

// Snapshot returns the current statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		UptimeSeconds: time.Since(c.started).Seconds(),
		Document:      c.ops[OpDocument].snapshot(),
		Embedding:     c.ops[OpEmbedding].snapshot(),
		VectorUpsert:  c.ops[OpVectorUpsert].snapshot(),
		VectorSearch:  c.ops[OpVectorSearch].snapshot(),
		Retrieval:     c.ops[OpRetrieval].snapshot(),
		LLMGenerate:   c.ops[OpLLMGenerate].snapshot(),
	}
}
