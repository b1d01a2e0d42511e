package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the small counter/gauge surface a session's event subscriber
// reports to (the executor loop itself never calls it).
// It deliberately does not expose raw Prometheus types so a no-op
// implementation stays trivial.
type Metrics interface {
	TickProcessed()
	NodeStatus(status string)
	EventBusQueueDepth(subscriberCount int, depth int)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) TickProcessed()                         {}
func (NoopMetrics) NodeStatus(string)                       {}
func (NoopMetrics) EventBusQueueDepth(int, int)              {}

// Prometheus registers and reports the orchestrator's runtime counters and
// gauges: scheduler ticks processed, a per-status node counter, and the
// event bus's subscriber count / queue depth (mirrors the pack-wide
// convention of exposing a client_golang registry from the service binary).
type Prometheus struct {
	ticks       prometheus.Counter
	nodeStatus  *prometheus.CounterVec
	subscribers prometheus.Gauge
	queueDepth  prometheus.Gauge
}

// NewPrometheus registers its collectors against reg and returns a ready
// Metrics implementation.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webagent_scheduler_ticks_total",
			Help: "Total executor loop ticks processed across all sessions.",
		}),
		nodeStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webagent_node_status_total",
			Help: "Execution nodes reaching a terminal status, labeled by status.",
		}, []string{"status"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "webagent_event_bus_subscribers",
			Help: "Current event bus subscriber count.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "webagent_event_bus_queue_depth",
			Help: "Configured per-subscriber mailbox depth.",
		}),
	}
	reg.MustRegister(m.ticks, m.nodeStatus, m.subscribers, m.queueDepth)
	return m
}

func (m *Prometheus) TickProcessed() {
	m.ticks.Inc()
}

func (m *Prometheus) NodeStatus(status string) {
	m.nodeStatus.WithLabelValues(status).Inc()
}

func (m *Prometheus) EventBusQueueDepth(subscriberCount, depth int) {
	m.subscribers.Set(float64(subscriberCount))
	m.queueDepth.Set(float64(depth))
}
