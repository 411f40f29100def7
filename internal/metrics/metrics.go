// Package metrics instruments the relay with Prometheus counters and
// gauges. A Noop implementation keeps the core testable without a registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is what the router, registries and transport report into.
type Collector interface {
	SessionOpened()
	SessionClosed()

	RoomCreated()
	RoomDeleted()

	MessageReceived(messageType string, sizeBytes int)
	MessageSent(messageType string, sizeBytes int)
	MessageDropped(messageType, reason string)
	MessageError(messageType, errorType string)

	Handler() http.Handler
}

// PrometheusCollector implements Collector on promauto metrics.
type PrometheusCollector struct {
	activeSessions prometheus.Gauge
	connections    prometheus.Counter
	disconnects    prometheus.Counter

	activeRooms  prometheus.Gauge
	roomsCreated prometheus.Counter
	roomsDeleted prometheus.Counter

	messagesReceived *prometheus.CounterVec
	messagesSent     *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec
	messageErrors    *prometheus.CounterVec
	messageSize      *prometheus.HistogramVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		activeSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "signaling_active_sessions",
			Help: "Number of live signaling sessions",
		}),
		connections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signaling_connections_total",
			Help: "Total number of accepted WebSocket connections",
		}),
		disconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signaling_disconnects_total",
			Help: "Total number of closed WebSocket connections",
		}),
		activeRooms: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "signaling_active_rooms",
			Help: "Number of rooms currently registered",
		}),
		roomsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signaling_rooms_created_total",
			Help: "Total number of rooms created",
		}),
		roomsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signaling_rooms_deleted_total",
			Help: "Total number of rooms deleted",
		}),
		messagesReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaling_messages_received_total",
				Help: "Total number of signaling messages received",
			},
			[]string{"message_type"},
		),
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaling_messages_sent_total",
				Help: "Total number of signaling messages delivered",
			},
			[]string{"message_type"},
		),
		messagesDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaling_messages_dropped_total",
				Help: "Total number of deliveries dropped",
			},
			[]string{"message_type", "reason"},
		),
		messageErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaling_message_errors_total",
				Help: "Total number of signaling message errors",
			},
			[]string{"message_type", "error_type"},
		),
		messageSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaling_message_size_bytes",
				Help:    "Size of signaling messages in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 2, 10),
			},
			[]string{"message_type", "direction"},
		),
	}
}

func (c *PrometheusCollector) SessionOpened() {
	c.connections.Inc()
	c.activeSessions.Inc()
}

func (c *PrometheusCollector) SessionClosed() {
	c.disconnects.Inc()
	c.activeSessions.Dec()
}

func (c *PrometheusCollector) RoomCreated() {
	c.roomsCreated.Inc()
	c.activeRooms.Inc()
}

func (c *PrometheusCollector) RoomDeleted() {
	c.roomsDeleted.Inc()
	c.activeRooms.Dec()
}

func (c *PrometheusCollector) MessageReceived(messageType string, sizeBytes int) {
	c.messagesReceived.WithLabelValues(messageType).Inc()
	c.messageSize.WithLabelValues(messageType, "received").Observe(float64(sizeBytes))
}

func (c *PrometheusCollector) MessageSent(messageType string, sizeBytes int) {
	c.messagesSent.WithLabelValues(messageType).Inc()
	c.messageSize.WithLabelValues(messageType, "sent").Observe(float64(sizeBytes))
}

func (c *PrometheusCollector) MessageDropped(messageType, reason string) {
	c.messagesDropped.WithLabelValues(messageType, reason).Inc()
}

func (c *PrometheusCollector) MessageError(messageType, errorType string) {
	c.messageErrors.WithLabelValues(messageType, errorType).Inc()
}

func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// Noop discards all observations.
type Noop struct{}

func (Noop) SessionOpened() {}

func (Noop) SessionClosed() {}

func (Noop) RoomCreated() {}

func (Noop) RoomDeleted() {}

func (Noop) MessageReceived(string, int) {}

func (Noop) MessageSent(string, int) {}

func (Noop) MessageDropped(string, string) {}

func (Noop) MessageError(string, string) {}

func (Noop) Handler() http.Handler { return http.NotFoundHandler() }
