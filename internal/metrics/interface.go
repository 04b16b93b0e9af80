package metrics

import (
	"context"
	"time"
)

// MetricsCollector defines the core domain interface
type MetricsCollector interface {
	Record(ctx context.Context, snapshot *MetricsSnapshot) error
	Close() error
}

// MetricsRepository defines the interface for metrics data storage
type MetricsRepository interface {
	Record(snapshot *MetricsSnapshot) error
	Close() error
}

// MetricsSnapshot represents domain entities
type MetricsSnapshot struct {
	Timestamp   time.Time
	Temperature TempMetrics
	FanSpeed    FanMetrics
	SystemState StateMetrics
}

// Domain value objects
type TempMetrics struct {
	Current int
	Average int
}

type FanMetrics struct {
	Current int
	Target  int
}

type StateMetrics struct {
	ActiveProfile string
	Overridden    bool
	Suspended     bool
}
