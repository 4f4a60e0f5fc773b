package metrics

import (
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the analysis service
var (
	// phishguard_requests_total{endpoint}
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishguard_requests_total",
		Help: "Total number of analysis requests received",
	}, []string{"endpoint"})

	// phishguard_analysis_total{type=url|email,level=low|medium|high}
	AnalysisTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishguard_analysis_total",
		Help: "Completed analyses by input type and risk level",
	}, []string{"type", "level"})

	// phishguard_indicator_detected{type,rule}
	IndicatorDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishguard_indicator_detected",
		Help: "Number of times a rule fired",
	}, []string{"type", "rule"})

	// phishguard_rejections_total{reason=missing_field|rate_limit_exceeded|...}
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishguard_rejections_total",
		Help: "Requests rejected before analysis",
	}, []string{"reason"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phishguard_cache_hits_total",
		Help: "Analyses served from the result cache",
	})

	// phishguard_latency_seconds (histogram): request duration
	LatencyHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phishguard_latency_seconds",
		Help:    "Request processing latency in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordRequest counts a request to an endpoint
func RecordRequest(endpoint string) {
	RequestsTotal.WithLabelValues(endpoint).Inc()
}

// RecordResult counts a completed analysis and every rule that fired
func RecordResult(res analyzer.Result) {
	AnalysisTotal.WithLabelValues(string(res.Type), string(res.RiskLevel)).Inc()
	for _, id := range res.RuleIDs() {
		IndicatorDetected.WithLabelValues(string(res.Type), id).Inc()
	}
}

// RecordRejection counts a request refused before analysis
func RecordRejection(reason string) {
	RejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordCacheHit counts a cached analysis
func RecordCacheHit() {
	CacheHits.Inc()
}

// ObserveLatency records the request duration
func ObserveLatency(d time.Duration) {
	LatencyHistogram.Observe(d.Seconds())
}
