package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studenttrack", Name: "http_requests_total", Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studenttrack", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	ActivityRecordFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "studenttrack", Name: "activity_record_failures_total", Help: "Activity entries that could not be stored",
	})
	BlobOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studenttrack", Name: "blob_operations_total", Help: "Blob store operations by result",
	}, []string{"op", "result"})
	UploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "studenttrack", Name: "uploaded_bytes_total", Help: "Bytes written to the blob store",
	})
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studenttrack", Name: "login_attempts_total", Help: "Login attempts by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, ActivityRecordFailures, BlobOperations, UploadedBytes, LoginAttempts)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func ObserveBlob(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	BlobOperations.WithLabelValues(op, result).Inc()
}
