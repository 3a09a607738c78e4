// Package metrics registers the service's Prometheus collectors. Business
// metrics are exported for the relay and extract paths to update directly;
// scraping and dashboards live outside this service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by method, route, and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sg_http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// RelayBytesOut counts media bytes streamed to clients.
	RelayBytesOut = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sg_relay_bytes_out_total",
			Help: "Total media bytes relayed to clients",
		},
	)

	// RelayUpstreamFailures counts failed upstream fetches on the relay path.
	RelayUpstreamFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sg_relay_upstream_failures_total",
			Help: "Total relay requests that failed against upstream",
		},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sg_rate_limited_total",
			Help: "Total requests rejected by the rate limiter",
		},
	)

	// StoreRecords tracks the number of live URL store records.
	StoreRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sg_urlstore_records",
			Help: "Current number of URL store records",
		},
	)

	// ExtractionsTotal counts extraction attempts by platform and result.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sg_extractions_total",
			Help: "Total extraction attempts",
		},
		[]string{"platform", "result"},
	)
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
