// Package api provides Prometheus metrics and the HTTP status surface of the
// notifier daemon.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the publishers. It implements
// notify.MetricsSink.
type Metrics struct {
	// Message metrics
	MessagesSent   *prometheus.CounterVec
	MessagesFailed *prometheus.CounterVec
	BytesSent      *prometheus.CounterVec

	// Endpoint metrics
	SocketsOpen     prometheus.Gauge
	SocketsOpened   prometheus.Counter
	ActiveNotifiers prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with the given namespace and
// registers it on reg. A nil reg registers on the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of frames accepted by the transport, by topic",
		}, []string{"topic"}),
		MessagesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_failed_total",
			Help:      "Total number of frames the transport rejected, by topic",
		}, []string{"topic"}),
		BytesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total payload bytes of accepted frames, by topic",
		}, []string{"topic"}),

		SocketsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sockets_open",
			Help:      "Number of bound publish sockets",
		}),
		SocketsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sockets_opened_total",
			Help:      "Total number of publish sockets bound",
		}),
		ActiveNotifiers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_notifiers",
			Help:      "Number of initialized notifiers",
		}),
	}
}

// MessageSent records a frame of size bytes accepted on topic.
func (m *Metrics) MessageSent(topic string, size int) {
	m.MessagesSent.WithLabelValues(topic).Inc()
	m.BytesSent.WithLabelValues(topic).Add(float64(size))
}

// MessageFailed records a frame rejected on topic.
func (m *Metrics) MessageFailed(topic string) {
	m.MessagesFailed.WithLabelValues(topic).Inc()
}

// SocketOpened records a socket bound at address.
func (m *Metrics) SocketOpened(string) {
	m.SocketsOpen.Inc()
	m.SocketsOpened.Inc()
}

// SocketClosed records a socket released at address.
func (m *Metrics) SocketClosed(string) {
	m.SocketsOpen.Dec()
}

// UpdateActiveNotifiers updates the active notifier gauge.
func (m *Metrics) UpdateActiveNotifiers(n int) {
	m.ActiveNotifiers.Set(float64(n))
}

// StatusFunc reports a JSON-encodable snapshot for /notifiers.
type StatusFunc func() any

// MetricsServer runs an HTTP server exposing /metrics, /health and /notifiers.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer creates a new metrics server on the given address.
// gatherer defaults to the default gatherer; status may be nil.
func NewMetricsServer(addr string, gatherer prometheus.Gatherer, status StatusFunc) *MetricsServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/notifiers", func(w http.ResponseWriter, r *http.Request) {
		if status == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Handler returns the server's HTTP handler.
func (s *MetricsServer) Handler() http.Handler {
	return s.server.Handler
}

// StartAsync starts the metrics server in a goroutine.
func (s *MetricsServer) StartAsync() {
	go func() {
		_ = s.server.ListenAndServe()
	}()
}

// Stop gracefully stops the metrics server.
func (s *MetricsServer) Stop() error {
	return s.server.Close()
}
