package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ChunksIngested  metric.Int64Counter
	EmbeddingCalls  metric.Int64Counter
	QueryDuration   metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("customer-ai-agent")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIngested, err := meter.Int64Counter(
		"rag.chunks.ingested",
		metric.WithDescription("Total chunks written to the vector store"),
	)
	if err != nil {
		return nil, err
	}

	embeddingCalls, err := meter.Int64Counter(
		"rag.embedding.calls",
		metric.WithDescription("Total embedding batch calls"),
	)
	if err != nil {
		return nil, err
	}

	queryDuration, err := meter.Float64Histogram(
		"rag.query.duration",
		metric.WithDescription("Vector query duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		ChunksIngested:  chunksIngested,
		EmbeddingCalls:  embeddingCalls,
		QueryDuration:   queryDuration,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngest records chunks written for a single document ingest
func (m *Metrics) RecordIngest(chunks int64, provider string) {
	attrs := []attribute.KeyValue{
		attribute.String("embeddings.provider", provider),
	}

	m.ChunksIngested.Add(context.Background(), chunks, metric.WithAttributes(attrs...))
	m.EmbeddingCalls.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordQuery records a vector store query
func (m *Metrics) RecordQuery(duration float64, results int) {
	attrs := []attribute.KeyValue{
		attribute.Int("rag.results", results),
	}

	m.QueryDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}
