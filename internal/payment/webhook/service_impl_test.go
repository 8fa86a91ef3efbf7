package webhook_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/notification"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	orderrepo "github.com/smallbiznis/storefront/internal/order/repository"
	"github.com/smallbiznis/storefront/internal/payment/adapters"
	"github.com/smallbiznis/storefront/internal/payment/adapters/xendit"
	"github.com/smallbiznis/storefront/internal/payment/domain"
	"github.com/smallbiznis/storefront/internal/payment/repository"
	"github.com/smallbiznis/storefront/internal/payment/webhook"
	"github.com/smallbiznis/storefront/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const callbackToken = "cb_token"

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []notification.OrderSummary
	to    []notification.Contact
}

func (d *recordingDispatcher) NotifyOrderPaid(_ context.Context, contact notification.Contact, order notification.OrderSummary) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, order)
	d.to = append(d.to, contact)
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	clock      *clock.FakeClock
	dispatcher *recordingDispatcher
	svc        domain.WebhookService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	node, err := snowflake.NewNode(12)
	require.NoError(t, err)
	f := &fixture{
		db:         dbtest.Open(t),
		node:       node,
		clock:      clock.NewFakeClock(time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)),
		dispatcher: &recordingDispatcher{},
	}
	f.svc = webhook.NewService(webhook.Params{
		DB:         f.db,
		Log:        zap.NewNop(),
		Cfg:        config.Config{Xendit: config.XenditConfig{CallbackToken: callbackToken}},
		Clock:      f.clock,
		Adapters:   adapters.NewRegistry(xendit.NewFactory()),
		Repo:       repository.Provide(),
		OrderRepo:  orderrepo.Provide(),
		Dispatcher: f.dispatcher,
	})
	return f
}

// placeOrder stores a PENDING order for one airForce1 with invoice inv_123 linked.
func (f *fixture) placeOrder(t *testing.T) *orderdomain.Order {
	t.Helper()
	ctx := context.Background()
	now := f.clock.Now()
	phone := "08123456789"
	order := &orderdomain.Order{
		ID:         f.node.Generate().Int64(),
		ExternalID: "order_1",
		Email:      "buyer@example.com",
		Phone:      &phone,
		Amount:     800000,
		Currency:   "IDR",
		Status:     orderdomain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	orders := orderrepo.Provide()
	require.NoError(t, orders.Insert(ctx, f.db, order))
	require.NoError(t, orders.InsertItems(ctx, f.db, []orderdomain.Item{{
		OrderID: order.ID, Position: 1, ProductID: 1, Slug: "airForce1", Name: "Air Force 1", Price: 800000, Quantity: 1,
	}}))
	require.NoError(t, repository.Provide().Insert(ctx, f.db, &domain.Payment{
		ID:         f.node.Generate().Int64(),
		OrderID:    order.ID,
		InvoiceID:  "inv_123",
		ExternalID: order.ExternalID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Status:     orderdomain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
	_, err := orders.LinkInvoice(ctx, f.db, order.ID, "inv_123", "https://checkout.xendit.co/web/inv_123", now)
	require.NoError(t, err)
	return order
}

func (f *fixture) deliver(t *testing.T, body string) (domain.Outcome, error) {
	t.Helper()
	headers := http.Header{}
	headers.Set("x-callback-token", callbackToken)
	return f.svc.Reconcile(context.Background(), "xendit", []byte(body), headers)
}

func (f *fixture) orderStatus(t *testing.T, id int64) orderdomain.Status {
	t.Helper()
	order, err := orderrepo.Provide().FindByID(context.Background(), f.db, id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order.Status
}

func (f *fixture) payment(t *testing.T) *domain.Payment {
	t.Helper()
	payment, err := repository.Provide().FindByInvoiceID(context.Background(), f.db, "inv_123")
	require.NoError(t, err)
	require.NotNil(t, payment)
	return payment
}

const paidCallback = `{"id":"inv_123","external_id":"order_1","status":"PAID","paid_at":"2024-01-01T00:00:00Z","amount":800000,"currency":"IDR"}`

func TestPaidCallbackSettlesOrderAndNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	outcome, err := f.deliver(t, paidCallback)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, outcome)
	assert.Equal(t, orderdomain.StatusPaid, f.orderStatus(t, order.ID))

	payment := f.payment(t)
	assert.Equal(t, orderdomain.StatusPaid, payment.Status)
	require.NotNil(t, payment.PaidAt)
	assert.True(t, payment.PaidAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.JSONEq(t, paidCallback, string(payment.RawPayload))

	require.Equal(t, 1, f.dispatcher.count())
	assert.Equal(t, "order_1", f.dispatcher.calls[0].ExternalID)
	assert.Equal(t, int64(800000), f.dispatcher.calls[0].Amount)
	require.Len(t, f.dispatcher.calls[0].Items, 1)
	assert.Equal(t, "08123456789", f.dispatcher.to[0].Phone)

	outcome, err = f.deliver(t, paidCallback)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeReplayed, outcome)
	assert.Equal(t, 1, f.dispatcher.count())
	assert.Equal(t, orderdomain.StatusPaid, f.orderStatus(t, order.ID))
}

func TestFailedThenPaidEndsPaid(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	outcome, err := f.deliver(t, `{"id":"inv_123","status":"FAILED","failure_code":"CARD_DECLINED"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, outcome)
	assert.Equal(t, orderdomain.StatusFailed, f.orderStatus(t, order.ID))
	assert.Zero(t, f.dispatcher.count())
	failed := f.payment(t)
	require.NotNil(t, failed.FailureCode)
	assert.Equal(t, "CARD_DECLINED", *failed.FailureCode)

	outcome, err = f.deliver(t, paidCallback)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, outcome)
	assert.Equal(t, orderdomain.StatusPaid, f.orderStatus(t, order.ID))

	payment := f.payment(t)
	assert.Nil(t, payment.FailureCode)
	assert.Equal(t, 1, f.dispatcher.count())
}

func TestLateFailureDoesNotDowngradePaid(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	_, err := f.deliver(t, paidCallback)
	require.NoError(t, err)

	late := `{"id":"inv_123","status":"FAILED"}`
	outcome, err := f.deliver(t, late)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, outcome)
	assert.Equal(t, orderdomain.StatusPaid, f.orderStatus(t, order.ID))

	payment := f.payment(t)
	assert.Equal(t, orderdomain.StatusPaid, payment.Status)
	assert.JSONEq(t, late, string(payment.RawPayload))

	outcome, err = f.deliver(t, `{"id":"inv_123","status":"EXPIRED"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, outcome)
	assert.Equal(t, orderdomain.StatusPaid, f.orderStatus(t, order.ID))
	assert.Equal(t, 1, f.dispatcher.count())
}

func TestReplayHealsOrderBehindPayment(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	// Payment settled but the order write never happened.
	won, err := repository.Provide().ApplyTransition(context.Background(), f.db, f.payment(t).ID, domain.Transition{
		Status: orderdomain.StatusPaid,
		At:     f.clock.Now(),
	})
	require.NoError(t, err)
	require.True(t, won)
	require.Equal(t, orderdomain.StatusPending, f.orderStatus(t, order.ID))

	outcome, err := f.deliver(t, paidCallback)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeReplayed, outcome)
	assert.Equal(t, orderdomain.StatusPaid, f.orderStatus(t, order.ID))
	assert.Zero(t, f.dispatcher.count())
}

func TestUnknownInvoiceIsIgnored(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	outcome, err := f.deliver(t, `{"id":"inv_other","external_id":"order_other","status":"PAID"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, outcome)
	assert.Equal(t, orderdomain.StatusPending, f.orderStatus(t, order.ID))
}

func TestCorrelatesByExternalIDWhenInvoiceUnknown(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	outcome, err := f.deliver(t, `{"external_id":"order_1","status":"EXPIRED"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, outcome)
	assert.Equal(t, orderdomain.StatusExpired, f.orderStatus(t, order.ID))
}

func TestInvalidTokenChangesNothing(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	headers := http.Header{}
	headers.Set("x-callback-token", "forged")
	_, err := f.svc.Reconcile(context.Background(), "xendit", []byte(paidCallback), headers)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Equal(t, orderdomain.StatusPending, f.orderStatus(t, order.ID))
	assert.Empty(t, f.payment(t).RawPayload)
	assert.Zero(t, f.dispatcher.count())
}

func TestAmountMismatchIsRejected(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	tampered := `{"id":"inv_123","status":"PAID","amount":800001}`
	outcome, err := f.deliver(t, tampered)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, outcome)

	assert.Equal(t, orderdomain.StatusPending, f.orderStatus(t, order.ID))
	payment := f.payment(t)
	assert.Equal(t, orderdomain.StatusPending, payment.Status)
	assert.JSONEq(t, tampered, string(payment.RawPayload))

	outcome, err = f.deliver(t, `{"id":"inv_123","status":"PAID","currency":"USD"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, outcome)
	assert.Equal(t, orderdomain.StatusPending, f.orderStatus(t, order.ID))
	assert.Zero(t, f.dispatcher.count())
}

func TestPaidWithoutPaidAtKeepsItNull(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	outcome, err := f.deliver(t, `{"id":"inv_123","status":"PAID"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, outcome)
	assert.Equal(t, orderdomain.StatusPaid, f.orderStatus(t, order.ID))

	payment := f.payment(t)
	assert.Equal(t, orderdomain.StatusPaid, payment.Status)
	assert.Nil(t, payment.PaidAt)
	require.Equal(t, 1, f.dispatcher.count())
	assert.Nil(t, f.dispatcher.calls[0].PaidAt)
}

func TestUnknownStatusRecordsPayloadOnly(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	body := `{"id":"inv_123","status":"VOIDED"}`
	outcome, err := f.deliver(t, body)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, outcome)
	assert.Equal(t, orderdomain.StatusPending, f.orderStatus(t, order.ID))
	assert.JSONEq(t, body, string(f.payment(t).RawPayload))
}

func TestMalformedCallbacks(t *testing.T) {
	f := newFixture(t)
	f.placeOrder(t)

	_, err := f.deliver(t, `{"status":"PAID"}`)
	assert.ErrorIs(t, err, domain.ErrMissingCorrelationKey)

	_, err = f.deliver(t, `{`)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = f.svc.Reconcile(context.Background(), "paypal", []byte(paidCallback), http.Header{})
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}

func TestConcurrentDuplicatesNotifyOnce(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	var wg sync.WaitGroup
	outcomes := make([]domain.Outcome, 5)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := f.deliver(t, paidCallback)
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, outcome := range outcomes {
		if outcome == domain.OutcomeApplied {
			applied++
		}
	}
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, f.dispatcher.count())
	assert.Equal(t, orderdomain.StatusPaid, f.orderStatus(t, order.ID))
}
