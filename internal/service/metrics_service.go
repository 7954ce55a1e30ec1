package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the generation pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	generationRuns  *prometheus.CounterVec
	generationTime  prometheus.Observer
	bestFitness     prometheus.Gauge
	itemsPersisted  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_runs_total",
		Help: "Total timetable generation runs by outcome",
	}, []string{"outcome"})

	generationTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall-clock duration of timetable generation runs",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	bestFitness := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_generation_best_fitness",
		Help: "Fitness score of the most recently persisted timetable",
	})

	itemsPersisted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_items_persisted_total",
		Help: "Total schedule items written by generation runs",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationRuns, generationTime, bestFitness, itemsPersisted, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		generationRuns:  generationRuns,
		generationTime:  generationTime,
		bestFitness:     bestFitness,
		itemsPersisted:  itemsPersisted,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGenerationRun records the outcome of a generation run.
func (m *MetricsService) ObserveGenerationRun(success bool, elapsed time.Duration, fitness, items int) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
		m.generationTime.Observe(elapsed.Seconds())
		m.bestFitness.Set(float64(fitness))
		m.itemsPersisted.Add(float64(items))
	}
	m.generationRuns.WithLabelValues(outcome).Inc()
}
