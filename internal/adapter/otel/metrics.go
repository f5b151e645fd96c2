// Package otel provides metric instruments and HTTP instrumentation.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pbb-api"

// Metrics holds all PBB API metric instruments.
type Metrics struct {
	IngestsStarted   metric.Int64Counter
	IngestsCompleted metric.Int64Counter
	IngestsFailed    metric.Int64Counter
	RowsIngested     metric.Int64Counter
	IngestDuration   metric.Float64Histogram
	CacheHits        metric.Int64Counter
	CacheMisses      metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.IngestsStarted, err = meter.Int64Counter("pbb.ingests.started",
		metric.WithDescription("Number of workbook ingestions started"))
	if err != nil {
		return nil, err
	}

	m.IngestsCompleted, err = meter.Int64Counter("pbb.ingests.completed",
		metric.WithDescription("Number of workbook ingestions completed"))
	if err != nil {
		return nil, err
	}

	m.IngestsFailed, err = meter.Int64Counter("pbb.ingests.failed",
		metric.WithDescription("Number of workbook ingestions failed"))
	if err != nil {
		return nil, err
	}

	m.RowsIngested, err = meter.Int64Counter("pbb.ingests.rows",
		metric.WithDescription("Number of rows written by ingestion"))
	if err != nil {
		return nil, err
	}

	m.IngestDuration, err = meter.Float64Histogram("pbb.ingest.duration_seconds",
		metric.WithDescription("Ingestion duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("pbb.cache.hits",
		metric.WithDescription("Analytics cache hits"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("pbb.cache.misses",
		metric.WithDescription("Analytics cache misses"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
