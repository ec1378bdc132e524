package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections",
		Help: "Current number of live websocket sessions",
	})
	MessagesPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_persisted_total",
		Help: "Total number of messages written to the store",
	})
	MessagesDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_delivered_total",
		Help: "Total number of newMessage pushes written to live sessions",
	})
	PushesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_pushes_sent_total",
		Help: "Total number of APNs notifications sent for offline receivers",
	})
)

func init() {
	prometheus.MustRegister(WSConnections, MessagesPersisted, MessagesDelivered, PushesSent)
}
