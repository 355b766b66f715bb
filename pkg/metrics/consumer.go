package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConsumerMetrics records outcomes of encoder notification processing.
type ConsumerMetrics struct {
	applied        *prometheus.CounterVec
	stale          prometheus.Counter
	conflicts      prometheus.Counter
	stateConflicts prometheus.Counter
	duplicates     prometheus.Counter
	malformed      prometheus.Counter
}

// NewConsumerMetrics registers the consumer metrics on the provided registerer.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "encoder_notifications_applied_total",
		Help: "Encoder notifications applied to the aggregate.",
	}, []string{"status"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "encoder_notifications_stale_total",
		Help: "Encoder notifications dropped because the media was replaced.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "encoder_notifications_conflict_total",
		Help: "Encoder notifications redelivered after a version conflict.",
	})
	stateConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "encoder_notifications_state_conflict_total",
		Help: "Encoder notifications dropped because the slot already reached the opposite terminal state.",
	})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "encoder_notifications_duplicate_total",
		Help: "Encoder notifications skipped by the idempotency guard.",
	})
	malformed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "encoder_notifications_malformed_total",
		Help: "Encoder notifications dropped as undecodable.",
	})
	reg.MustRegister(applied, stale, conflicts, stateConflicts, duplicates, malformed)
	return &ConsumerMetrics{
		applied:        applied,
		stale:          stale,
		conflicts:      conflicts,
		stateConflicts: stateConflicts,
		duplicates:     duplicates,
		malformed:      malformed,
	}
}

func (m *ConsumerMetrics) IncApplied(status string) {
	if m == nil || m.applied == nil {
		return
	}
	m.applied.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *ConsumerMetrics) IncStale() {
	if m == nil || m.stale == nil {
		return
	}
	m.stale.Inc()
}

func (m *ConsumerMetrics) IncConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *ConsumerMetrics) IncStateConflict() {
	if m == nil || m.stateConflicts == nil {
		return
	}
	m.stateConflicts.Inc()
}

func (m *ConsumerMetrics) IncDuplicate() {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.Inc()
}

func (m *ConsumerMetrics) IncMalformed() {
	if m == nil || m.malformed == nil {
		return
	}
	m.malformed.Inc()
}
