// Package notify implements the bounded fan-out used for subscriber
// notifications. It is delivery-agnostic; the engine supplies the transport
// as a closure.
package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Target is one delivery destination within a fan-out.
type Target struct {
	UserID   string
	Endpoint string
}

// Report counts every attempted target exactly once. Total is always
// Sent + Failed.
type Report struct {
	Total  int
	Sent   int
	Failed int
}

// Dispatcher runs deliveries concurrently up to a fixed limit, with an
// optional per-delivery timeout. A failing or panicking delivery never
// prevents the remaining targets from being attempted.
type Dispatcher struct {
	maxConcurrency  int
	deliveryTimeout time.Duration
}

// NewDispatcher describes the newdispatcher operation and its observable behavior.
//
// NewDispatcher does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewDispatcher(maxConcurrency int, deliveryTimeout time.Duration) *Dispatcher {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Dispatcher{
		maxConcurrency:  maxConcurrency,
		deliveryTimeout: deliveryTimeout,
	}
}

// Dispatch fans deliver out over targets and blocks until every attempt has
// finished. Targets are processed in no particular order.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	targets []Target,
	deliver func(ctx context.Context, target Target) error,
) Report {
	if len(targets) == 0 {
		return Report{}
	}

	var (
		wg     sync.WaitGroup
		sent   atomic.Int64
		failed atomic.Int64
	)
	slots := make(chan struct{}, d.maxConcurrency)

	for _, target := range targets {
		wg.Add(1)
		slots <- struct{}{}

		go func(target Target) {
			defer wg.Done()
			defer func() { <-slots }()

			if err := d.attempt(ctx, target, deliver); err != nil {
				failed.Add(1)
				return
			}
			sent.Add(1)
		}(target)
	}
	wg.Wait()

	return Report{
		Total:  len(targets),
		Sent:   int(sent.Load()),
		Failed: int(failed.Load()),
	}
}

func (d *Dispatcher) attempt(
	ctx context.Context,
	target Target,
	deliver func(ctx context.Context, target Target) error,
) (err error) {
	// A panicking transport counts as one failed delivery.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delivery panic: %v", r)
		}
	}()

	if d.deliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.deliveryTimeout)
		defer cancel()
	}

	return deliver(ctx, target)
}
