// Package metrics provides the centralized Prometheus metrics registry
// for the bowl prediction pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bowl_mania",
		Name:      "cfbd_api_requests_total",
		Help:      "Total number of CFBD API requests by endpoint",
	}, []string{"endpoint"})
	APIErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bowl_mania",
		Name:      "cfbd_api_errors_total",
		Help:      "Total number of failed CFBD API requests by endpoint",
	}, []string{"endpoint"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bowl_mania",
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits by layer (memory, file)",
	}, []string{"layer"})
	ModelFitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bowl_mania",
		Name:      "model_fits_total",
		Help:      "Total number of model fits by kind",
	}, []string{"kind"})
)

// Gauge metrics
var (
	BacktestProfit = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bowl_mania",
		Name:      "backtest_profit",
		Help:      "Simulated profit from the most recent backtest",
	})
	BacktestROI = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bowl_mania",
		Name:      "backtest_roi_percent",
		Help:      "Return on investment percentage from the most recent backtest",
	})
	BacktestWinRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bowl_mania",
		Name:      "backtest_win_rate",
		Help:      "Win rate of qualifying bets from the most recent backtest",
	})
)

// Histogram metrics
var (
	ModelFitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bowl_mania",
		Name:      "model_fit_duration_seconds",
		Help:      "Duration of model fitting in seconds by kind",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
	}, []string{"kind"})
	FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bowl_mania",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of CFBD fetches in seconds by endpoint",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(APIErrorsTotal)
		registry.MustRegister(CacheHitsTotal)
		registry.MustRegister(ModelFitsTotal)

		// Register gauge metrics
		registry.MustRegister(BacktestProfit)
		registry.MustRegister(BacktestROI)
		registry.MustRegister(BacktestWinRate)

		// Register histogram metrics
		registry.MustRegister(ModelFitDuration)
		registry.MustRegister(FetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordAPIRequest records a CFBD API request.
func RecordAPIRequest(endpoint string) {
	APIRequestsTotal.WithLabelValues(endpoint).Inc()
}

// RecordAPIError records a failed CFBD API request.
func RecordAPIError(endpoint string) {
	APIErrorsTotal.WithLabelValues(endpoint).Inc()
}

// RecordCacheHit records a cache hit. layer is "memory" or "file".
func RecordCacheHit(layer string) {
	CacheHitsTotal.WithLabelValues(layer).Inc()
}

// RecordModelFit records a completed model fit.
func RecordModelFit(kind string, durationSeconds float64) {
	ModelFitsTotal.WithLabelValues(kind).Inc()
	ModelFitDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordFetchDuration records the duration of a CFBD fetch.
func RecordFetchDuration(endpoint string, durationSeconds float64) {
	FetchDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// UpdateBacktestResults updates the backtest result gauges.
func UpdateBacktestResults(profit, roi, winRate float64) {
	BacktestProfit.Set(profit)
	BacktestROI.Set(roi)
	BacktestWinRate.Set(winRate)
}
