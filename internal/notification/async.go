package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Async runs the wrapped dispatcher on its own goroutine with a context detached from the
// caller, so a finished webhook request never cancels delivery.
type Async struct {
	next    Dispatcher
	timeout time.Duration
	log     *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// ErrDispatcherClosed is returned for notifications offered after Close.
var ErrDispatcherClosed = errors.New("notification_dispatcher_closed")

func NewAsync(next Dispatcher, timeout time.Duration, log *zap.Logger) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{next: next, timeout: timeout, log: log}
}

// NotifyOrderPaid returns nil once the send is scheduled; delivery errors are logged.
func (a *Async) NotifyOrderPaid(ctx context.Context, contact Contact, order OrderSummary) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.log.Warn("notification dropped during shutdown", zap.String("external_id", order.ExternalID))
		return ErrDispatcherClosed
	}
	a.wg.Add(1)
	a.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("notification panicked", zap.String("external_id", order.ExternalID), zap.Any("panic", r))
			}
		}()

		sendCtx, cancel := context.WithTimeout(detached, a.timeout)
		defer cancel()

		if err := a.next.NotifyOrderPaid(sendCtx, contact, order); err != nil {
			a.log.Warn("order paid notification failed",
				zap.String("external_id", order.ExternalID),
				zap.Error(err),
			)
			return
		}
		a.log.Info("order paid notification sent", zap.String("external_id", order.ExternalID))
	}()
	return nil
}

// Close refuses further notifications and drains the in-flight ones until ctx ends.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.Wait(ctx)
}

// Wait blocks until in-flight notifications finish or ctx ends. It does not stop new
// sends; use Close on shutdown.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
