// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package admin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sethvargo/go-retry"
)

// Notification is one message for the delivery collaborator.
type Notification struct {
	TargetID    ulid.ULID
	TemplateKey string
	Args        []string
	Timestamp   time.Time
	Actionable  bool
}

// Notifier delivers notifications to users. The engine never blocks on
// delivery confirmation.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher decorates a Notifier with a buffered queue and a worker that
// retries failed deliveries with exponential backoff. Enqueueing never
// blocks the engine's critical section; when the buffer is full the
// notification is dropped and logged.
type Dispatcher struct {
	sink    Notifier
	queue   chan Notification
	done    chan struct{}
	stopped sync.Once
}

// DispatcherBuffer is the queue capacity of a Dispatcher.
const DispatcherBuffer = 256

// NewDispatcher creates a dispatcher and starts its delivery worker.
func NewDispatcher(sink Notifier) *Dispatcher {
	d := &Dispatcher{
		sink:  sink,
		queue: make(chan Notification, DispatcherBuffer),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify implements Notifier by enqueueing for asynchronous delivery.
func (d *Dispatcher) Notify(_ context.Context, n Notification) error {
	select {
	case d.queue <- n:
	default:
		slog.Warn("notification dropped: dispatcher buffer full",
			"target_id", n.TargetID.String(),
			"template", n.TemplateKey,
		)
	}
	return nil
}

// Close stops the worker after draining already queued notifications.
func (d *Dispatcher) Close() {
	d.stopped.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		d.deliver(n)
	}
}

// deliver hands one notification to the sink, retrying transient failures.
// Exhausted retries are logged and dropped; delivery is fire-and-forget.
func (d *Dispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backoff := retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := d.sink.Notify(ctx, n); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.Warn("notification delivery failed",
			"target_id", n.TargetID.String(),
			"template", n.TemplateKey,
			"error", err,
		)
	}
}
