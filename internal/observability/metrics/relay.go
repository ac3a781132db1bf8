package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_websocket_connections_active",
			Help: "Number of currently open websocket connections",
		},
	)

	WebSocketConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_websocket_connections_total",
			Help: "Total number of websocket connections accepted",
		},
	)

	WebSocketDisconnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_websocket_disconnections_total",
			Help: "Total number of websocket disconnections by cause",
		},
		[]string{"cause"},
	)

	MessagesRelayedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_relayed_total",
			Help: "Total number of chat messages persisted and published",
		},
	)

	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_dropped_total",
			Help: "Total number of inbound frames dropped by reason",
		},
		[]string{"reason"},
	)

	BroadcastSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_broadcast_subscribers",
			Help: "Number of active fan-out subscriptions",
		},
	)

	BroadcastBacklogDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_broadcast_backlog_drops_total",
			Help: "Total number of payloads evicted from slow subscriber backlogs",
		},
	)
)
