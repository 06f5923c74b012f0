package bulk

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomePartial = "partial"
	outcomeFailed  = "failed"
	outcomeInvalid = "invalid"

	// actionUnknown is the label of runs whose action is not one of Actions.
	actionUnknown = "unknown"
)

// Metrics counts bulk action runs and their per-user results.
type Metrics struct {
	Runs  *prometheus.CounterVec
	Users *prometheus.CounterVec
}

// NewMetrics registers the bulk counters with reg. Counters already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_actions_total",
		Help: "Bulk actions by action and outcome",
	}, []string{"action", "outcome"})

	users := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_action_users_total",
		Help: "Users processed by bulk actions by action and result",
	}, []string{"action", "result"})

	var err error

	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}

	if users, err = register(reg, users); err != nil {
		return nil, err
	}

	return &Metrics{Runs: runs, Users: users}, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}

		return nil, err
	}

	return c, nil
}
