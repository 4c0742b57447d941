// Package metrics exposes Prometheus metrics for the track-details pipeline.
// Labels are bounded enums; video IDs never appear in labels.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ytdetails"

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loads_total",
		Help:      "Track detail loads, by outcome (ok, not_found or the error code).",
	}, []string{"outcome"})

	loadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "load_duration_seconds",
		Help:      "Duration of track detail loads, by outcome.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"outcome"})

	playabilityTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "playability_total",
		Help:      "Classified playability states, by status reported by the platform.",
	}, []string{"status"})

	scriptCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "player_script_cache_total",
		Help:      "Player script cache lookups and writes, by result (hit, miss, shared_hit, refresh, embedded).",
	}, []string{"result"})

	verificationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_verification_total",
		Help:      "Content verification attempts, by result (redirected, no_redirect, repeated).",
	}, []string{"result"})

	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Requests sent to the platform, by endpoint and status class.",
	}, []string{"endpoint", "status"})

	cipherFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cipher_script_fetch_total",
		Help:      "Player script downloads made by the cipher resolver, by result.",
	}, []string{"result"})
)

// RecordLoad records a finished load.
func RecordLoad(outcome string, d time.Duration) {
	loadsTotal.WithLabelValues(outcome).Inc()
	loadDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordPlayability counts a classified playability status.
func RecordPlayability(status string) {
	if status == "" {
		status = "missing"
	}
	playabilityTotal.WithLabelValues(status).Inc()
}

// RecordScriptCache counts a player script cache event.
func RecordScriptCache(result string) {
	scriptCacheTotal.WithLabelValues(result).Inc()
}

// RecordVerification counts a content verification attempt.
func RecordVerification(result string) {
	verificationTotal.WithLabelValues(result).Inc()
}

// RecordUpstream counts a request to the platform. err != nil is reported as "error".
func RecordUpstream(endpoint string, statusCode int, err error) {
	upstreamRequests.WithLabelValues(endpoint, statusClass(statusCode, err)).Inc()
}

// RecordCipherFetch counts a player script download.
func RecordCipherFetch(result string) {
	cipherFetchTotal.WithLabelValues(result).Inc()
}

func statusClass(code int, err error) string {
	switch {
	case err != nil:
		return "error"
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}
