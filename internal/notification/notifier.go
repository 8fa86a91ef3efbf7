// Package notification delivers best-effort customer notifications after a payment settles.
package notification

import (
	"context"
	"errors"
	"time"
)

// Contact is where a customer can be reached.
type Contact struct {
	Email string
	Phone string
}

type LineItem struct {
	Name     string
	Quantity int
	Price    int64
}

type OrderSummary struct {
	ExternalID string
	Amount     int64
	Currency   string
	PaidAt     *time.Time
	Items      []LineItem
}

// Dispatcher sends an "order paid" message. Callers only log the returned error.
type Dispatcher interface {
	NotifyOrderPaid(ctx context.Context, contact Contact, order OrderSummary) error
}

// Channel is a single named delivery route.
type Channel interface {
	Dispatcher
	Name() string
}

var ErrNoRecipient = errors.New("notification_no_recipient")

type NoOp struct{}

func (NoOp) Name() string { return "noop" }

func (NoOp) NotifyOrderPaid(context.Context, Contact, OrderSummary) error { return nil }

// Multi fans out to every channel and joins their errors.
type Multi struct {
	channels []Channel
	observe  func(ctx context.Context, channel string, err error)
}

func NewMulti(observe func(ctx context.Context, channel string, err error), channels ...Channel) *Multi {
	return &Multi{channels: channels, observe: observe}
}

func (m *Multi) NotifyOrderPaid(ctx context.Context, contact Contact, order OrderSummary) error {
	var errs []error
	for _, ch := range m.channels {
		err := ch.NotifyOrderPaid(ctx, contact, order)
		if m.observe != nil {
			m.observe(ctx, ch.Name(), err)
		}
		if err != nil && !errors.Is(err, ErrNoRecipient) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
