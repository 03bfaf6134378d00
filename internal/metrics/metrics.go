package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/jrsteele09/storefront-sessions/internal/errors"
)

const namespace = "sessions"

var (
	// ValidationsTotal counts credential validations by result: valid|invalid|unavailable.
	ValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validations_total",
		Help:      "Credential validations by result",
	}, []string{"result"})

	// LogoutsTotal counts logout attempts by scope (one|all) and outcome.
	LogoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Logout attempts by scope and outcome",
	}, []string{"scope", "outcome"})

	// LoginsTotal counts issued credentials and refused password logins.
	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts by result",
	}, []string{"result"})

	SweepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweeps_total",
		Help:      "Expired deny-list sweeps by result",
	}, []string{"result"})

	PurgedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purged_records_total",
		Help:      "Deny-list records removed by sweeps",
	})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Duration of expired deny-list sweeps",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ValidationsTotal,
		LogoutsTotal,
		LoginsTotal,
		SweepsTotal,
		PurgedRecordsTotal,
		SweepDuration,
	}
}

// Register adds the session collectors to reg (the default registerer when nil).
// Registering twice against the same registry is not an error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if apperrors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
