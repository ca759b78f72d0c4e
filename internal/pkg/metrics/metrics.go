package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every teleop collector; it is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// MessagesDispatched counts inbound messages handed to the dispatch engine.
	MessagesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleop_messages_dispatched_total",
			Help: "Total number of inbound messages dispatched, by message type.",
		},
		[]string{"type"},
	)

	// MessagesDropped counts inbound messages discarded before dispatch.
	MessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleop_messages_dropped_total",
			Help: "Total number of inbound messages dropped, by reason.",
		},
		[]string{"reason"}, // reason: stopping/decode
	)

	// HandlerFailures counts handler invocations that returned an error or panicked.
	HandlerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleop_handler_failures_total",
			Help: "Total number of failed handler invocations, by message type.",
		},
		[]string{"type"},
	)

	// CommandSentTotal counts outbound commands by send outcome.
	CommandSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleop_command_sent_total",
			Help: "Total number of commands sent to vehicles.",
		},
		[]string{"status", "type"}, // status: success/failed, type: Abort/PlanControl/Heartbeat
	)

	// TaskFailures counts tasks that ended with an error or a panic.
	TaskFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teleop_task_failures_total",
			Help: "Total number of actor tasks that terminated with a failure.",
		},
		[]string{"task"},
	)

	// PeerAlive is 1 when the peer was heard from within the peer timeout, 0 otherwise.
	PeerAlive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "teleop_peer_alive",
			Help: "Liveness of tracked peers (1=Alive, 0=Silent).",
		},
		[]string{"peer"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MessagesDispatched,
		MessagesDropped,
		HandlerFailures,
		CommandSentTotal,
		TaskFailures,
		PeerAlive,
	)
}
