package events

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/mattjoyce/xihi/internal/metrics"
)

// Dispatcher fans events out to the subscribers in a Registry.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders wg.Add in Dispatch before wg.Wait in Shutdown.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher over an already built registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Dispatch launches every subscriber registered for ev.Name and returns
// without waiting for them. It reports how many subscribers were launched;
// unregistered names launch none, and so does every event once Shutdown
// has been called.
func (d *Dispatcher) Dispatch(ev Event) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("dispatcher shut down, event dropped",
			"event", ev.Name,
			"delivery_id", ev.DeliveryID,
		)
		return 0
	}

	subs := d.registry.Lookup(ev.Name)
	metrics.EventsDispatched.WithLabelValues(ev.Name).Inc()

	for _, sub := range subs {
		d.wg.Add(1)
		go d.invoke(sub, ev)
	}
	return len(subs)
}

// invoke runs one subscriber. Errors and panics stay inside this goroutine.
func (d *Dispatcher) invoke(sub Subscription, ev Event) {
	defer d.wg.Done()

	logger := d.logger.With(
		"event", ev.Name,
		"delivery_id", ev.DeliveryID,
		"subscriber", sub.Name,
	)
	start := time.Now()
	result := metrics.ResultOK

	defer func() {
		if rec := recover(); rec != nil {
			result = metrics.ResultPanic
			logger.Error("subscriber panicked",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
		}
		metrics.SubscriberInvocations.WithLabelValues(ev.Name, result).Inc()
		metrics.SubscriberDuration.WithLabelValues(ev.Name).Observe(time.Since(start).Seconds())
	}()

	if err := sub.Subscriber.Handle(d.ctx, ev); err != nil {
		result = metrics.ResultError
		logger.Error("subscriber failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	logger.Debug("subscriber finished", "duration_ms", time.Since(start).Milliseconds())
}

// Shutdown stops accepting events, waits for in-flight subscribers until
// ctx is done, then cancels the context they run under.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	defer d.cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("subscribers still running: %w", ctx.Err())
	}
}
