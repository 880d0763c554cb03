package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(updatesTotal, commandsTotal, sendsTotal)
}

var (
	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Inbound Telegram updates by kind (text, photo, other).",
		},
		[]string{"kind"},
	)

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Recognized bot commands.",
		},
		[]string{"command"},
	)

	sendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Outbound Telegram calls by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
)

// IncUpdate counts an inbound update.
func IncUpdate(kind string) {
	updatesTotal.WithLabelValues(norm(kind)).Inc()
}

// IncCommand counts a recognized command.
func IncCommand(command string) {
	commandsTotal.WithLabelValues(norm(command)).Inc()
}

// ObserveSend counts an outbound call once its retries are exhausted or it succeeded.
func ObserveSend(action string, err error) {
	sendsTotal.WithLabelValues(norm(action), outcome(err)).Inc()
}
