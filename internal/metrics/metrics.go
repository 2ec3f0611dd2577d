package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "license"

// Metrics holds the key lifecycle counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	generated   *prometheus.CounterVec
	activations *prometheus.CounterVec
	revocations *prometheus.CounterVec
	collisions  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		generated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_generated_total",
			Help:      "License keys created, by key type.",
		}, []string{"type"}),
		activations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_activations_total",
			Help:      "Activation attempts, by result code.",
		}, []string{"result"}),
		revocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_revocations_total",
			Help:      "Revocation requests, by outcome.",
		}, []string{"outcome"}),
		collisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_generation_collisions_total",
			Help:      "Generated candidates discarded because the key already existed.",
		}),
	}
}

func (m *Metrics) KeysGenerated(keyType string, n int) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(keyType).Add(float64(n))
}

func (m *Metrics) Activation(result string) {
	if m == nil {
		return
	}
	m.activations.WithLabelValues(result).Inc()
}

func (m *Metrics) Revocation(outcome string) {
	if m == nil {
		return
	}
	m.revocations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GenerationCollision() {
	if m == nil {
		return
	}
	m.collisions.Inc()
}
