package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/GoADConsole/GoADConsole/internal/notify"
	"github.com/GoADConsole/GoADConsole/internal/validation"
)

// Runner sends a bulk action to the backend.
type Runner interface {
	BulkAction(ctx context.Context, p Payload) (*Response, error)
}

// Executor validates a payload, sends it exactly once and reports the outcome.
type Executor struct {
	validate *validator.Validate
	metrics  *Metrics
}

// NewExecutor returns an executor recording to metrics. metrics may be nil.
func NewExecutor(metrics *Metrics) *Executor {
	return &Executor{validate: validation.New(), metrics: metrics}
}

// Execute runs p. An empty user list or an invalid payload is reported as a warning and
// never reaches the backend. There is no retry.
func (e *Executor) Execute(ctx context.Context, runner Runner, sink notify.Sink, p Payload) (*Response, error) {
	title := p.Action.Label()

	if err := p.Validate(e.validate); err != nil {
		e.countRun(p.Action, outcomeInvalid)

		if errors.Is(err, ErrNoUsers) {
			sink.Notify(notify.New(notify.LevelWarning, title, "Select at least one user first."))
		} else {
			sink.Notify(notify.New(notify.LevelWarning, title, err.Error()))
		}

		return nil, err
	}

	payload := p.normalize()

	resp, err := runner.BulkAction(ctx, payload)
	if err != nil {
		e.countRun(p.Action, outcomeFailed)
		log.Error().Err(err).Str("action", string(p.Action)).Int("users", len(p.Users)).Msg("bulk action failed")
		sink.Notify(notify.New(notify.LevelError, title, fmt.Sprintf("Request failed: %v", err)))

		return nil, err
	}

	total := resp.TotalCount
	if total == 0 {
		total = len(payload.Users)
	}

	sink.Notify(notify.New(notify.LevelSuccess, title,
		fmt.Sprintf("%d of %d users processed successfully.", resp.SuccessCount, total)))

	outcome := outcomeSuccess

	if resp.FailureCount > 0 {
		outcome = outcomePartial
		sink.Notify(notify.New(notify.LevelWarning, title,
			fmt.Sprintf("%d users failed.", resp.FailureCount)))
	}

	e.countRun(p.Action, outcome)
	e.countUsers(p.Action, resp)

	log.Info().
		Str("action", string(p.Action)).
		Int("total", total).
		Int("success", resp.SuccessCount).
		Int("failure", resp.FailureCount).
		Msg("bulk action completed")

	return resp, nil
}

func (e *Executor) countRun(a Action, outcome string) {
	if e.metrics == nil {
		return
	}

	e.metrics.Runs.WithLabelValues(actionLabel(a), outcome).Inc()
}

// actionLabel keeps client supplied action names out of the label values.
func actionLabel(a Action) string {
	if a.Known() {
		return string(a)
	}

	return actionUnknown
}

func (e *Executor) countUsers(a Action, resp *Response) {
	if e.metrics == nil {
		return
	}

	e.metrics.Users.WithLabelValues(string(a), outcomeSuccess).Add(float64(resp.SuccessCount))
	e.metrics.Users.WithLabelValues(string(a), outcomeFailed).Add(float64(resp.FailureCount))
}
