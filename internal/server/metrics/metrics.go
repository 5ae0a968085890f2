// Package metrics exposes Prometheus collectors for the API server. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wordbook"

type Metrics struct {
	uploads      *prometheus.CounterVec
	uploadBytes  prometheus.Counter
	entryOps     *prometheus.CounterVec
	requests     *prometheus.CounterVec
	requestTimes *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_uploads_total",
			Help:      "Uploaded media files by result.",
		}, []string{"result"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_upload_bytes_total",
			Help:      "Bytes written to the object store.",
		}),
		entryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_operations_total",
			Help:      "Entry operations by kind and result.",
		}, []string{"op", "result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.uploads, m.uploadBytes, m.entryOps, m.requests, m.requestTimes)
	return m
}

// ObserveUpload counts one file upload attempt.
func (m *Metrics) ObserveUpload(err error, size int) {
	if m == nil {
		return
	}
	if err != nil {
		m.uploads.WithLabelValues("failed").Inc()
		return
	}
	m.uploads.WithLabelValues("ok").Inc()
	m.uploadBytes.Add(float64(size))
}

// ObserveEntryOp counts an entry operation.
func (m *Metrics) ObserveEntryOp(op string, err error) {
	if m == nil {
		return
	}
	m.entryOps.WithLabelValues(op, result(err)).Inc()
}

// ObserveRequest records a served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestTimes.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
