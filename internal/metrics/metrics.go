package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatrelay_active_sessions",
			Help: "Number of active live sessions.",
		},
	)
	fanoutEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_fanout_events_total",
			Help: "Total number of events fanned out, by event name.",
		},
		[]string{"event"},
	)
	droppedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_dropped_events_total",
			Help: "Total number of events dropped, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		activeSessions,
		fanoutEventsTotal,
		droppedEventsTotal,
	)
}

func IncActiveSessions() {
	activeSessions.Inc()
}

func DecActiveSessions() {
	activeSessions.Dec()
}

func IncFanoutEvent(event string) {
	fanoutEventsTotal.WithLabelValues(event).Inc()
}

func IncDroppedEvent(reason string) {
	droppedEventsTotal.WithLabelValues(reason).Inc()
}
