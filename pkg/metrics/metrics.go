package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics (local UI server)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// Socket Metrics
	SocketConnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_socket_connects_total",
			Help: "Successful socket opens",
		},
	)

	SocketReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_socket_reconnect_attempts_total",
			Help: "Reconnect attempts scheduled after a closure",
		},
	)

	SocketExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_socket_exhausted_total",
			Help: "Times the reconnect budget ran out",
		},
	)

	FramesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_frames_sent_total",
			Help: "Outbound frames by result",
		},
		[]string{"result"},
	)

	FramesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_frames_received_total",
			Help: "Inbound text frames",
		},
	)

	FramesMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_frames_malformed_total",
			Help: "Inbound frames that failed to decode",
		},
	)

	// Router Metrics
	RouterOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_router_outcomes_total",
			Help: "Inbound events by action and outcome (rendered, dropped, ignored)",
		},
		[]string{"action", "outcome"},
	)

	// Backend REST Metrics
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_backend_request_duration_seconds",
			Help:    "Latency of history/contact/profile requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)

	// Client Metrics
	ClientsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_clients_active",
			Help: "Signed-in users with a live client",
		},
	)

	ViewSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_view_subscribers",
			Help: "Browser sockets receiving live fragments",
		},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type", "code"},
	)
)

func IncrementSocketConnects() {
	SocketConnects.Inc()
}

func IncrementReconnectAttempts() {
	SocketReconnectAttempts.Inc()
}

func IncrementSocketExhausted() {
	SocketExhausted.Inc()
}

// RecordFrameSent counts an outbound frame; ok=false means the socket was not open or the write failed
func RecordFrameSent(ok bool) {
	result := "sent"
	if !ok {
		result = "rejected"
	}
	FramesSent.WithLabelValues(result).Inc()
}

func IncrementFramesReceived() {
	FramesReceived.Inc()
}

func IncrementFramesMalformed() {
	FramesMalformed.Inc()
}

func RecordRouterOutcome(action, outcome string) {
	RouterOutcomes.WithLabelValues(action, outcome).Inc()
}

func RecordBackendRequest(endpoint string, seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	BackendRequestDuration.WithLabelValues(endpoint, status).Observe(seconds)
}

func SetClientsActive(n int) {
	ClientsActive.Set(float64(n))
}

func IncrementViewSubscribers() {
	ViewSubscribers.Inc()
}

func DecrementViewSubscribers() {
	ViewSubscribers.Dec()
}

func RecordError(errorType, errorCode string) {
	ErrorsTotal.WithLabelValues(errorType, errorCode).Inc()
}
