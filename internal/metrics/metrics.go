// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface consumed by the guard and verification
// services.
type Recorder interface {
	RecordGuardOutcome(outcome string)
	RecordVerifyAttempt(success bool)
	RecordChallengeSent()
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	guardOutcomes  *prometheus.CounterVec
	verifyAttempts *prometheus.CounterVec
	challengesSent prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		guardOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_role_guard_outcomes_total",
			Help: "Role transition guard decisions by outcome code.",
		}, []string{"outcome"}),
		verifyAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_role_verify_attempts_total",
			Help: "Email verification link attempts by result.",
		}, []string{"result"}),
		challengesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "support_role_challenges_sent_total",
			Help: "Verification challenge emails sent.",
		}),
	}

	reg.MustRegister(
		c.guardOutcomes,
		c.verifyAttempts,
		c.challengesSent,
	)

	return c
}

func (c *Collector) RecordGuardOutcome(outcome string) {
	c.guardOutcomes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordVerifyAttempt(success bool) {
	result := "rebuffed"
	if success {
		result = "success"
	}
	c.verifyAttempts.WithLabelValues(result).Inc()
}

func (c *Collector) RecordChallengeSent() {
	c.challengesSent.Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
