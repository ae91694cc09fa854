package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus collectors for the streaming client.
type Metrics struct {
	registry *prometheus.Registry

	PacketsSent    prometheus.Counter
	BytesSent      prometheus.Counter
	PacketsGated   prometheus.Counter
	PacketsDropped prometheus.Counter

	SessionState      prometheus.Gauge
	SessionsStarted   prometheus.Counter
	TransportFailures prometheus.Counter

	InboundMessages *prometheus.CounterVec
	ProtocolErrors  prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		PacketsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "koetsuki_packets_sent_total",
			Help: "Total number of PCM packets handed to the transport",
		}),
		BytesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "koetsuki_bytes_sent_total",
			Help: "Total number of PCM bytes handed to the transport",
		}),
		PacketsGated: f.NewCounter(prometheus.CounterOpts{
			Name: "koetsuki_packets_gated_total",
			Help: "Total number of packets discarded because capture was not active",
		}),
		PacketsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "koetsuki_packets_dropped_total",
			Help: "Total number of packets dropped because the audio hand-off queue was full",
		}),
		SessionState: f.NewGauge(prometheus.GaugeOpts{
			Name: "koetsuki_session_state",
			Help: "Current session state (0 idle, 1 connected, 2 capturing)",
		}),
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "koetsuki_sessions_started_total",
			Help: "Total number of transport sessions opened",
		}),
		TransportFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "koetsuki_transport_failures_total",
			Help: "Total number of connect failures and unexpected closes",
		}),
		InboundMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "koetsuki_inbound_messages_total",
			Help: "Total number of inbound control messages by type",
		}, []string{"type"}),
		ProtocolErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "koetsuki_protocol_errors_total",
			Help: "Total number of inbound messages dropped as malformed",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
