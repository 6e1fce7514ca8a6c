// Package metrics exposes Prometheus metrics for HTTP traffic and scoring.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gridpredict"

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	reg prometheus.Gatherer

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	ScoresComputed   prometheus.Counter
	ScorePoints      prometheus.Histogram
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		RequestCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		}),
		ScoresComputed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_computed_total",
			Help:      "Prediction scores written",
		}),
		ScorePoints: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_total_points",
			Help:      "Distribution of prediction total scores",
			Buckets:   []float64{0, 5, 10, 20, 30, 40, 60, 80, 100},
		}),
	}
}

// Middleware records request count, duration and in-flight requests.
// Paths are route templates so ids do not explode label cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.RequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			m.RequestCounter.WithLabelValues(c.Request().Method, path, strconv.Itoa(statusOf(c, err))).Inc()
			return err
		}
	}
}

// statusOf returns the status echo will write for err.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}

// ScoreRecorded counts one written score.
func (m *Metrics) ScoreRecorded(total int) {
	if m == nil {
		return
	}
	m.ScoresComputed.Inc()
	m.ScorePoints.Observe(float64(total))
}
