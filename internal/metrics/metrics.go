// Package metrics instruments the command executor with Prometheus
// counters and gauges, per DESIGN.md §G/Ambient stack: the teacher
// depends on prometheus/client_golang for its own instrumentation
// surface, so command counts, error counts and keyspace size are
// exported the same way rather than hand-rolled.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zoltraak",
		Name:      "commands_total",
		Help:      "Total commands processed, by command name and outcome.",
	}, []string{"command", "outcome"})

	aofErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zoltraak",
		Name:      "aof_append_errors_total",
		Help:      "Append-only log write failures (swallowed, per spec.md §7).",
	})

	KeyspaceSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "zoltraak",
		Name:      "keyspace_keys",
		Help:      "Current number of live keys.",
	})

	ReplicaLagSeconds = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "zoltraak",
		Name:      "replica_lag_seconds",
		Help:      "Primary offset minus last-acknowledged replica offset, in seconds-equivalent units.",
	}, []string{"replica_id"})

	ConnectedReplicas = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "zoltraak",
		Name:      "connected_replicas",
		Help:      "Number of replicas currently online.",
	})
)

func init() {
	prometheus.MustRegister(commandsTotal, aofErrorsTotal, KeyspaceSize, ReplicaLagSeconds, ConnectedReplicas)
}

// CountCommand records one dispatched command and whether it errored.
func CountCommand(name string, errored bool) {
	outcome := "ok"
	if errored {
		outcome = "error"
	}
	commandsTotal.WithLabelValues(name, outcome).Inc()
}

// CountAOFError records a swallowed append-only log write failure.
func CountAOFError() {
	aofErrorsTotal.Inc()
}
