package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"

	"github.com/sultan/backend/internal/infrastructure/telemetry"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	// Meter creates the request instruments; nil skips them.
	Meter metric.Meter
	// Core receives access denials; nil skips them.
	Core *telemetry.CoreMetrics
}

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"http_server_request_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	requestDuration, err := telemetry.NewHistogram(meter,
		"http_server_request_duration_seconds", "HTTP request latency distribution in seconds", "s",
		telemetry.HTTPDurationBuckets...)
	if err != nil {
		return nil, err
	}
	activeRequests, err := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics counts requests by route and status and reports every 403 as
// an access denial. Labels use the route pattern, never the raw path.
func HTTPMetrics(cfg HTTPMetricsConfig) (gin.HandlerFunc, error) {
	var m *httpMetrics
	if cfg.Meter != nil {
		var err error
		if m, err = newHTTPMetrics(cfg.Meter); err != nil {
			return nil, err
		}
	}
	if m == nil && cfg.Core == nil {
		return func(c *gin.Context) { c.Next() }, nil
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		if m != nil {
			m.activeRequests.Add(ctx, 1)
		}

		c.Next()

		method := c.Request.Method
		route := routePattern(c)
		status := c.Writer.Status()

		if m != nil {
			m.activeRequests.Add(ctx, -1)
			m.requestTotal.Inc(ctx,
				telemetry.AttrHTTPMethod.String(method),
				telemetry.AttrHTTPRoute.String(route),
				telemetry.AttrHTTPStatus.Int(status),
			)
			m.requestDuration.RecordDuration(ctx, time.Since(start),
				telemetry.AttrHTTPMethod.String(method),
				telemetry.AttrHTTPRoute.String(route),
			)
		}
		if cfg.Core != nil && status == http.StatusForbidden {
			cfg.Core.RecordAccessDenied(ctx, method, route)
		}
	}, nil
}

func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
