package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dumbserve"

// Recorder is implemented by the Prometheus-backed Metrics and by Noop.
type Recorder interface {
	HTTPStarted()
	HTTPFinished(method, route string, status int, d time.Duration)
	RecordAuthAttempt(success bool)
	RecordUpload(files int, bytes int64)
	RecordDirDeleted()

	// Handler serves the exposition format; Noop answers 404.
	Handler() http.Handler
}

// Init returns Prometheus metrics if enabled, otherwise a no-op recorder.
func Init(enabled bool) Recorder {
	if !enabled {
		return Noop{}
	}
	return New()
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds every collector on a private registry, so several servers
// can live in one process.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	AuthAttemptsTotal *prometheus.CounterVec

	UploadFilesTotal prometheus.Counter
	UploadBytesTotal prometheus.Counter
	DeletedDirsTotal prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		AuthAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Basic-auth checks that reached the credential store.",
		}, []string{"result"}),
		UploadFilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_files_total",
			Help:      "Files written by uploads.",
		}),
		UploadBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes written by uploads.",
		}),
		DeletedDirsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_dirs_total",
			Help:      "Directories removed through the delete endpoint.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.AuthAttemptsTotal,
		m.UploadFilesTotal,
		m.UploadBytesTotal,
		m.DeletedDirsTotal,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) HTTPStarted() {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) HTTPFinished(method, route string, status int, d time.Duration) {
	m.HTTPRequestsInFlight.Dec()
	if route == "" {
		route = "unknown"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.AuthAttemptsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordUpload(files int, bytes int64) {
	m.UploadFilesTotal.Add(float64(files))
	m.UploadBytesTotal.Add(float64(bytes))
}

func (m *Metrics) RecordDirDeleted() {
	m.DeletedDirsTotal.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Noop discards everything.
type Noop struct{}

func (Noop) HTTPStarted()                                    {}
func (Noop) HTTPFinished(string, string, int, time.Duration) {}
func (Noop) RecordAuthAttempt(bool)                          {}
func (Noop) RecordUpload(int, int64)                         {}
func (Noop) RecordDirDeleted()                               {}
func (Noop) Handler() http.Handler                           { return http.NotFoundHandler() }

// Authenticator matches auth.CredentialStore.
type Authenticator interface {
	Authenticate(username, password string) bool
}

type countingAuthenticator struct {
	next Authenticator
	rec  Recorder
}

// CountAuth wraps a credential store so every check is counted.
func CountAuth(next Authenticator, rec Recorder) Authenticator {
	if _, ok := rec.(Noop); ok {
		return next
	}
	return &countingAuthenticator{next: next, rec: rec}
}

func (c *countingAuthenticator) Authenticate(username, password string) bool {
	ok := c.next.Authenticate(username, password)
	c.rec.RecordAuthAttempt(ok)
	return ok
}
