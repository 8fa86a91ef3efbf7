package webhook

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/notification"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/storefront/internal/payment/domain"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Cfg        config.Config
	Clock      clock.Clock
	Adapters   *adapters.Registry
	Repo       paymentdomain.Repository
	OrderRepo  orderdomain.Repository
	Dispatcher notification.Dispatcher
	Lock       *ratelimit.ReconcileLock `optional:"true"`
	Metrics    *metrics.Metrics         `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	xendit     config.XenditConfig
	clock      clock.Clock
	adapters   *adapters.Registry
	repo       paymentdomain.Repository
	orderRepo  orderdomain.Repository
	dispatcher notification.Dispatcher
	lock       *ratelimit.ReconcileLock
	metrics    *metrics.Metrics
}

func NewService(p Params) paymentdomain.WebhookService {
	dispatcher := p.Dispatcher
	if dispatcher == nil {
		dispatcher = notification.NoOp{}
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.webhook"),
		xendit:     p.Cfg.Xendit,
		clock:      p.Clock,
		adapters:   p.Adapters,
		repo:       p.Repo,
		orderRepo:  p.OrderRepo,
		dispatcher: dispatcher,
		lock:       p.Lock,
		metrics:    p.Metrics,
	}
}

// Reconcile applies a provider callback to the matching payment and order.
// Deliveries may repeat or arrive out of order; status only ever moves up in rank.
func (s *Service) Reconcile(ctx context.Context, provider string, payload []byte, headers http.Header) (paymentdomain.Outcome, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "", paymentdomain.ErrInvalidProvider
	}

	ctx, span := tracing.Start(ctx, "payment.reconcile", attribute.String("provider", provider))
	defer span.End()

	adapter, err := s.adapters.NewAdapter(provider, s.adapterConfig())
	if err != nil {
		return "", err
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		s.log.Warn("callback rejected", zap.String("provider", provider), zap.Error(err))
		s.metrics.RecordWebhook(ctx, provider, "unauthorized", "")
		return "", err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		s.metrics.RecordWebhook(ctx, provider, "invalid", "")
		return "", err
	}
	if len(event.RawPayload) == 0 {
		event.RawPayload = payload
	}
	span.SetAttributes(attribute.String("provider_status", event.Status.String()))

	release := s.lock.Lock(ctx, event.CorrelationKey())
	defer release()

	outcome, err := s.reconcile(ctx, provider, event)
	s.metrics.RecordWebhook(ctx, provider, string(outcome), event.Status.String())
	if err != nil {
		span.RecordError(tracing.SafeError(err))
	}
	return outcome, err
}

func (s *Service) reconcile(ctx context.Context, provider string, event *paymentdomain.CallbackEvent) (paymentdomain.Outcome, error) {
	log := s.log.With(
		zap.String("provider", provider),
		zap.String("invoice_id", event.InvoiceID),
		zap.String("external_id", event.ExternalID),
		zap.String("status", event.RawStatus),
	)

	payment, err := s.findPayment(ctx, event)
	if err != nil {
		return "", err
	}
	if payment == nil {
		log.Info("callback for unknown payment ignored")
		return paymentdomain.OutcomeIgnored, nil
	}

	now := s.clock.Now()
	if mismatch(payment, event) {
		if err := s.repo.RecordPayload(ctx, s.db, payment.ID, event.RawPayload, now); err != nil {
			return "", err
		}
		log.Error("callback amount does not match payment",
			zap.Int64("expected_amount", payment.Amount),
			zap.String("expected_currency", payment.Currency),
			zap.Int64p("amount", event.Amount),
			zap.String("currency", event.Currency),
		)
		// Acknowledged so the provider stops redelivering; the order stays put for an operator.
		return paymentdomain.OutcomeRejected, nil
	}

	next, ok := event.Status.Internal()
	if !ok {
		if err := s.repo.RecordPayload(ctx, s.db, payment.ID, event.RawPayload, now); err != nil {
			return "", err
		}
		log.Info("callback status carries no transition")
		return paymentdomain.OutcomeIgnored, nil
	}

	// paid_at falls back to the stored value; failure_code reflects this callback only.
	transition := paymentdomain.Transition{
		Status:     next,
		PaidAt:     payment.PaidAt,
		RawPayload: event.RawPayload,
		At:         now,
	}
	if event.PaidAt != nil {
		transition.PaidAt = event.PaidAt
	}
	if event.FailureCode != "" {
		code := event.FailureCode
		transition.FailureCode = &code
	}

	won, err := s.repo.ApplyTransition(ctx, s.db, payment.ID, transition)
	if err != nil {
		return "", err
	}
	if won {
		// Payment first; a crash before the order write is healed by the next delivery.
		if _, err := s.orderRepo.ApplyStatus(ctx, s.db, payment.OrderID, next, now); err != nil {
			return "", err
		}
		log.Info("payment transitioned",
			zap.String("from", string(payment.Status)),
			zap.String("to", string(next)),
		)
		if next == orderdomain.StatusPaid {
			s.notifyPaid(ctx, payment.OrderID, transition.PaidAt)
		}
		return paymentdomain.OutcomeApplied, nil
	}

	return s.replay(ctx, log, payment.ID, next, event.RawPayload, now)
}

// replay handles a delivery that lost the status race. The order is re-synced from
// the stored payment status so a crash between the two writes heals on redelivery.
func (s *Service) replay(ctx context.Context, log *zap.Logger, paymentID int64, next orderdomain.Status, payload []byte, now time.Time) (paymentdomain.Outcome, error) {
	if err := s.repo.RecordPayload(ctx, s.db, paymentID, payload, now); err != nil {
		return "", err
	}

	stored, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return paymentdomain.OutcomeIgnored, nil
	}

	healed, err := s.orderRepo.ApplyStatus(ctx, s.db, stored.OrderID, stored.Status, now)
	if err != nil {
		return "", err
	}
	if healed {
		log.Warn("order status re-synced from payment", zap.String("status", string(stored.Status)))
	}

	if stored.Status == next {
		log.Info("duplicate callback")
		return paymentdomain.OutcomeReplayed, nil
	}
	log.Warn("callback conflicts with settled payment",
		zap.String("stored_status", string(stored.Status)),
		zap.String("callback_status", string(next)),
	)
	return paymentdomain.OutcomeIgnored, nil
}

func (s *Service) findPayment(ctx context.Context, event *paymentdomain.CallbackEvent) (*paymentdomain.Payment, error) {
	if event.InvoiceID != "" {
		payment, err := s.repo.FindByInvoiceID(ctx, s.db, event.InvoiceID)
		if err != nil || payment != nil {
			return payment, err
		}
	}
	if event.ExternalID != "" {
		return s.repo.FindByExternalID(ctx, s.db, event.ExternalID)
	}
	return nil, nil
}

func (s *Service) notifyPaid(ctx context.Context, orderID int64, paidAt *time.Time) {
	order, err := s.orderRepo.FindByID(ctx, s.db, orderID)
	if err != nil || order == nil {
		s.log.Error("load order for notification", zap.Int64("order_id", orderID), zap.Error(err))
		return
	}
	items, err := s.orderRepo.ListItems(ctx, s.db, orderID)
	if err != nil {
		s.log.Error("load order items for notification", zap.String("external_id", order.ExternalID), zap.Error(err))
		return
	}

	contact := notification.Contact{Email: order.Email}
	if order.Phone != nil {
		contact.Phone = *order.Phone
	}
	summary := notification.OrderSummary{
		ExternalID: order.ExternalID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		PaidAt:     paidAt,
		Items:      make([]notification.LineItem, 0, len(items)),
	}
	for _, item := range items {
		summary.Items = append(summary.Items, notification.LineItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	if err := s.dispatcher.NotifyOrderPaid(ctx, contact, summary); err != nil {
		s.log.Warn("order paid notification failed", zap.String("external_id", order.ExternalID), zap.Error(err))
	}
}

func (s *Service) adapterConfig() paymentdomain.AdapterConfig {
	return paymentdomain.AdapterConfig{
		BaseURL:       s.xendit.BaseURL,
		SecretKey:     s.xendit.SecretKey,
		CallbackToken: s.xendit.CallbackToken,
		Timeout:       s.xendit.Timeout,
	}
}

func mismatch(payment *paymentdomain.Payment, event *paymentdomain.CallbackEvent) bool {
	if event.Amount != nil && *event.Amount != payment.Amount {
		return true
	}
	if event.Currency != "" && !strings.EqualFold(event.Currency, payment.Currency) {
		return true
	}
	return false
}
