// Package metrics exposes booking and HTTP collectors for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wildoasis"

var (
	bookingOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Booking mutations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	bookingNightsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_nights_total",
			Help:      "Nights reserved by successfully created bookings.",
		},
	)

	staleBookingsCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_bookings_cancelled_total",
			Help:      "Pending bookings cancelled because their check-in date passed.",
		},
	)

	cabinImageUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cabin_image_uploads_total",
			Help:      "Cabin image uploads by result.",
		},
		[]string{"result"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP request handling in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Registry holds the application collectors plus Go runtime and process metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	Registry.MustRegister(Collectors()...)
}

// Collectors returns the application-specific collectors.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		bookingOperationsTotal,
		bookingNightsTotal,
		staleBookingsCancelledTotal,
		cabinImageUploadsTotal,
		httpRequestsTotal,
		httpRequestDuration,
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBookingOperation counts a booking mutation such as "create" or "cancel".
func RecordBookingOperation(operation string, err error) {
	bookingOperationsTotal.WithLabelValues(operation, result(err)).Inc()
}

// RecordBookedNights adds the nights of a newly created booking.
func RecordBookedNights(nights int) {
	if nights > 0 {
		bookingNightsTotal.Add(float64(nights))
	}
}

// RecordStaleCancelled adds the number of bookings the maintenance job cancelled.
func RecordStaleCancelled(n int64) {
	if n > 0 {
		staleBookingsCancelledTotal.Add(float64(n))
	}
}

// RecordImageUpload counts a cabin image upload attempt.
func RecordImageUpload(err error) {
	cabinImageUploadsTotal.WithLabelValues(result(err)).Inc()
}

// Middleware records request counts and latency per matched route. Unmatched
// paths share a single label value to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
