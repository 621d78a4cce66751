package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher runs best-effort background work such as notification emails.
// Each job gets its own deadline and outlives the request that started it.
// Failures are logged and never returned.
type Dispatcher struct {
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{timeout: timeout, logger: logger}
}

// Go runs job in a new goroutine. parent only contributes its values; its
// cancellation does not stop the job.
func (d *Dispatcher) Go(parent context.Context, name string, job func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				d.logger.ErrorContext(ctx, "background job panicked", "job", name, "panic", r)
			}
		}()
		if err := job(ctx); err != nil {
			d.logger.WarnContext(ctx, "background job failed", "job", name, "error", err)
		}
	}()
}

// Wait blocks until every started job has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
