package metric

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roxot_collector"

// Metrics holds all collector metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Ingest
	EventsTracked  *prometheus.CounterVec
	ActiveSessions prometheus.Gauge

	// Output queue
	RecordsQueued  prometheus.Counter
	RecordsSent    *prometheus.CounterVec
	RecordsSkipped *prometheus.CounterVec
	RecordsEvicted prometheus.Counter
	DeliveryErrors prometheus.Counter

	// Remote configuration
	ConfigLoads *prometheus.CounterVec
}

// NewMetrics creates the collector metrics and registers them on registry.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		EventsTracked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_tracked_total",
			Help:      "Auction lifecycle events received from hosts, by event type",
		}, []string{"event_type"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Adapter sessions currently enabled",
		}),
		RecordsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_queued_total",
			Help:      "Output records appended to a session queue",
		}),
		RecordsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_sent_total",
			Help:      "Output records handed to the delivery transport, by event code",
		}, []string{"event"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Output records dropped because the publisher config disables them, by event code",
		}, []string{"event"}),
		RecordsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_evicted_total",
			Help:      "Output records evicted because a session queue hit its cap",
		}),
		DeliveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_errors_total",
			Help:      "Output records the transport failed to deliver",
		}),
		ConfigLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_loads_total",
			Help:      "Publisher config fetches, by result (ok or fallback)",
		}, []string{"result"}),
	}

	collectors := []prometheus.Collector{
		m.EventsTracked,
		m.ActiveSessions,
		m.RecordsQueued,
		m.RecordsSent,
		m.RecordsSkipped,
		m.RecordsEvicted,
		m.DeliveryErrors,
		m.ConfigLoads,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// Gatherer returns the registry metrics are exported from.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
