package somaguard

import (
	"context"

	"github.com/somasave/somaguard/internal/notify"
)

// DispatchBulk describes the dispatchbulk operation and its observable behavior.
//
// DispatchBulk may return an error when input validation, dependency calls, or security checks fail.
// DispatchBulk does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Recipients are delivered concurrently up to the configured limit. A
// failing recipient never blocks the rest; the report counts every
// attempted recipient exactly once.
func (e *Engine) DispatchBulk(ctx context.Context, recipients []Recipient, message Message) DispatchReport {
	if e == nil || e.notifier == nil || e.transport == nil {
		return DispatchReport{}
	}

	targets := make([]notify.Target, 0, len(recipients))
	for _, r := range recipients {
		targets = append(targets, notify.Target{
			UserID:   r.UserID,
			Endpoint: r.Endpoint,
		})
	}

	report := e.notifier.Dispatch(ctx, targets, func(ctx context.Context, target notify.Target) error {
		return e.transport.Deliver(ctx, target.Endpoint, message)
	})

	e.metrics.Add(MetricNotifySent, uint64(report.Sent))
	e.metrics.Add(MetricNotifyFailed, uint64(report.Failed))

	return DispatchReport{
		Total:  report.Total,
		Sent:   report.Sent,
		Failed: report.Failed,
	}
}
