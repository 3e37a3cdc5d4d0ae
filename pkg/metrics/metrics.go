// Package metrics documents the Prometheus metrics exposed by the exporter.
// All metrics are defined in their respective packages (shipstation,
// delivery) to maintain modularity and avoid circular dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registerer used by the exporter.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/shipstation):
//   - shipstation_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - shipstation_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - shipstation_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - shipstation_rate_limit_waits_total (Counter): Rate-limit waits honoring a Retry-After hint
//
// Delivery Metrics (pkg/delivery):
//   - delivery_attempts_total (Counter): SFTP delivery attempts
//   - delivery_failures_total (Counter): Failed SFTP delivery attempts
//   - delivery_duration_seconds (Histogram): Duration of successful deliveries
//
// Example Prometheus Queries:
//
//   # Upstream error rate
//   rate(shipstation_errors_total[5m])
//
//   # Delivery failure ratio
//   rate(delivery_failures_total[15m]) / rate(delivery_attempts_total[15m])
//
//   # P95 upstream latency
//   histogram_quantile(0.95, rate(shipstation_request_duration_seconds_bucket[5m]))
