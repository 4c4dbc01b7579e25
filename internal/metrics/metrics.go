// Package metrics exposes resolution activity as Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

const namespace = "agrismart"

// Recorder implements farm.Recorder on Prometheus collectors.
type Recorder struct {
	cacheLookups *prometheus.CounterVec
	tierOutcomes *prometheus.CounterVec
	resolutions  *prometheus.HistogramVec
}

var _ farm.Recorder = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Store lookups before consulting providers, by fact and hit.",
		}, []string{"fact", "hit"}),
		tierOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_outcomes_total",
			Help:      "Provider tier results, by fact, tier and outcome.",
		}, []string{"fact", "tier", "outcome"}),
		resolutions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Time spent walking provider tiers, by fact and outcome.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"fact", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(r.cacheLookups, r.tierOutcomes, r.resolutions)
	}
	return r
}

func (r *Recorder) CacheLookup(fact string, hit bool) {
	r.cacheLookups.WithLabelValues(fact, strconv.FormatBool(hit)).Inc()
}

func (r *Recorder) TierOutcome(fact, tier, outcome string) {
	r.tierOutcomes.WithLabelValues(fact, tier, outcome).Inc()
}

func (r *Recorder) Resolution(fact, outcome string, elapsed time.Duration) {
	r.resolutions.WithLabelValues(fact, outcome).Observe(elapsed.Seconds())
}
