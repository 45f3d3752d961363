package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/qs-lzh/movie-booking/internal/service"
)

var (
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	ReservationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_operations_total",
			Help: "Booking and cancellation attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)
	ReservationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reservation_transaction_duration_seconds",
			Help:    "Duration of booking and cancellation transactions, lock waits included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Outcome names the error kind of a reservation operation.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, service.ErrConflict):
		return "conflict"
	case errors.Is(err, service.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, service.ErrNotFound):
		return "not_found"
	case errors.Is(err, service.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, service.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func ObserveReservation(operation string, err error, started time.Time) {
	ReservationTotal.WithLabelValues(operation, Outcome(err)).Inc()
	ReservationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Middleware labels requests by their route template so ids do not blow up
// label cardinality.
func Middleware(c *gin.Context) {
	if c.Request.URL.Path == "/metrics" {
		c.Next()
		return
	}
	start := time.Now()
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())
	RequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
}
