package metrics

import (
	"time"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector records roster generation metrics.
type Collector struct {
	rosters    *prometheus.CounterVec
	weeks      prometheus.Counter
	unfilled   *prometheus.CounterVec
	resets     *prometheus.CounterVec
	duration   prometheus.Histogram
	fairness   prometheus.Histogram
	configErrs prometheus.Counter
}

// New creates a collector and registers it with reg.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: metrics namespace (defaults to "roster" if empty)
func New(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "roster"
	}

	c := &Collector{
		rosters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_total",
			Help:      "Rosters generated by source (api, csv, cli).",
		}, []string{"source"}),
		weeks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weeks_generated_total",
			Help:      "Weeks generated across all rosters.",
		}),
		unfilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unfilled_roles_total",
			Help:      "Roles left unfilled for a week, by role.",
		}, []string{"role"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_resets_total",
			Help:      "Rotation cycle resets, by primary role.",
		}, []string{"role"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_seconds",
			Help:      "Time spent generating a roster.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		fairness: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fairness_score",
			Help:      "Fairness score (0-100) of generated rosters.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		configErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_errors_total",
			Help:      "Generation requests rejected because a primary role had nobody eligible.",
		}),
	}

	reg.MustRegister(c.rosters, c.weeks, c.unfilled, c.resets, c.duration, c.fairness, c.configErrs)
	return c
}

// ObserveRoster records a finished generation.
func (c *Collector) ObserveRoster(source string, roster *models.Roster, rotations map[string]scheduler.Rotation, fairness float64, took time.Duration) {
	if c == nil {
		return
	}
	c.rosters.WithLabelValues(source).Inc()
	c.weeks.Add(float64(len(roster.Weeks)))
	for _, gap := range roster.Gaps {
		c.unfilled.WithLabelValues(gap.Role).Inc()
	}
	for role, rot := range rotations {
		if rot.Resets > 0 {
			c.resets.WithLabelValues(role).Add(float64(rot.Resets))
		}
	}
	c.duration.Observe(took.Seconds())
	c.fairness.Observe(fairness)
}

// ObserveConfigError records a rejected generation.
func (c *Collector) ObserveConfigError() {
	if c == nil {
		return
	}
	c.configErrs.Inc()
}
