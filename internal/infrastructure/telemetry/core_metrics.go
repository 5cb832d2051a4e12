package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/sultan/backend/internal/domain/shared/snowflake"
)

// MeterName is the instrumentation scope of the core metrics
const MeterName = "github.com/sultan/backend"

// CoreMetrics counts id allocation and authorization outcomes.
type CoreMetrics struct {
	idsGenerated    *Counter
	idErrors        *Counter
	idLatency       *Histogram
	accessDenied    *Counter
	permissionLoads *Counter
}

// NewCoreMetrics creates the instruments on meter
func NewCoreMetrics(meter metric.Meter) (*CoreMetrics, error) {
	var (
		m   CoreMetrics
		err error
	)
	if m.idsGenerated, err = NewCounter(meter, "snowflake_ids_generated_total", "Snowflake ids handed out", "{id}"); err != nil {
		return nil, err
	}
	if m.idErrors, err = NewCounter(meter, "snowflake_errors_total", "Failed id allocations", "{error}"); err != nil {
		return nil, err
	}
	if m.idLatency, err = NewHistogram(meter, "snowflake_generate_duration_seconds",
		"Time spent in Generate, including waits for the next millisecond", "s", SmallDurationBuckets...); err != nil {
		return nil, err
	}
	if m.accessDenied, err = NewCounter(meter, "access_denied_total", "Requests rejected for missing permissions", "{request}"); err != nil {
		return nil, err
	}
	if m.permissionLoads, err = NewCounter(meter, "permission_loads_total", "Permission map loads by cache outcome", "{load}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordAccessDenied counts one forbidden request
func (m *CoreMetrics) RecordAccessDenied(ctx context.Context, method, route string) {
	m.accessDenied.Inc(ctx, AttrHTTPMethod.String(method), AttrHTTPRoute.String(route))
}

// RecordPermissionLoad counts a load served by the cache ("hit"), the
// repository ("miss") or the repository without a cache ("none")
func (m *CoreMetrics) RecordPermissionLoad(ctx context.Context, outcome string) {
	m.permissionLoads.Inc(ctx, AttrCache.String(outcome))
}

// CountingIDGenerator decorates an IDGenerator with allocation metrics.
type CountingIDGenerator struct {
	next    snowflake.IDGenerator
	metrics *CoreMetrics
	now     func() time.Time
}

// NewCountingIDGenerator wraps next
func NewCountingIDGenerator(next snowflake.IDGenerator, metrics *CoreMetrics) *CountingIDGenerator {
	return &CountingIDGenerator{next: next, metrics: metrics, now: time.Now}
}

// Generate delegates and records the outcome
func (g *CountingIDGenerator) Generate() (int64, error) {
	ctx := context.Background()
	start := g.now()
	id, err := g.next.Generate()
	g.metrics.idLatency.RecordDuration(ctx, g.now().Sub(start))
	if err != nil {
		g.metrics.idErrors.Inc(ctx)
		return 0, err
	}
	g.metrics.idsGenerated.Inc(ctx)
	return id, nil
}

var _ snowflake.IDGenerator = (*CountingIDGenerator)(nil)

// RegisterPoolMetrics reports database/sql pool statistics on every collection
func RegisterPoolMetrics(meter metric.Meter, db *sql.DB) error {
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Number of connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return fmt.Errorf("failed to create pool wait counter: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, waits)
	return err
}
