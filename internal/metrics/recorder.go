package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookcatalog"

// Recorder owns every collector of the service, all registered on one injected registry.
type Recorder struct {
	registry *prometheus.Registry

	// HTTP request metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Book operation metrics
	bookOperationsTotal   *prometheus.CounterVec
	bookOperationDuration *prometheus.HistogramVec
	bookOperationsActive  prometheus.Gauge
	booksTotal            prometheus.Gauge
}

// NewRecorder registers the service collectors, plus Go runtime and process
// collectors, on reg.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		bookOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "book_operations_total",
				Help:      "Total number of successful book operations",
			},
			[]string{"operation"},
		),
		bookOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "book_operation_duration_seconds",
				Help:      "Duration of book operations in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		bookOperationsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "book_operations_active",
				Help:      "Book operations currently in flight",
			},
		),
		booksTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "books_total",
				Help:      "Number of books in the catalogue",
			},
		),
	}
}

// ObserveRequest records one finished HTTP request.
func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	r.httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	r.httpRequestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

func (r *Recorder) StartOperation(op string) func() {
	start := time.Now()
	r.bookOperationsActive.Inc()
	return func() {
		r.bookOperationsActive.Dec()
		r.bookOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (r *Recorder) Count(op string) {
	r.bookOperationsTotal.WithLabelValues(op).Inc()
}

func (r *Recorder) SetTotalBooks(n int64) {
	r.booksTotal.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
