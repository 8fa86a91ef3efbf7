package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/payment/adapters"
	"github.com/smallbiznis/storefront/internal/payment/adapters/xendit"
	"github.com/smallbiznis/storefront/internal/payment/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	GenID     *snowflake.Node
	Clock     clock.Clock
	Checkout  *config.CheckoutConfigHolder
	Adapters  *adapters.Registry
	Repo      domain.Repository
	OrderRepo orderdomain.Repository
	Provider  domain.InvoiceProvider `optional:"true"`
	Metrics   *metrics.Metrics        `optional:"true"`
}

type Issuer struct {
	db        *gorm.DB
	log       *zap.Logger
	xendit    config.XenditConfig
	genID     *snowflake.Node
	clock     clock.Clock
	checkout  *config.CheckoutConfigHolder
	adapters  *adapters.Registry
	repo      domain.Repository
	orderRepo orderdomain.Repository
	provider  domain.InvoiceProvider
	metrics   *metrics.Metrics
}

func NewIssuer(p Params) domain.Issuer {
	return &Issuer{
		db:        p.DB,
		log:       p.Log.Named("payment.issuer"),
		xendit:    p.Cfg.Xendit,
		genID:     p.GenID,
		clock:     p.Clock,
		checkout:  p.Checkout,
		adapters:  p.Adapters,
		repo:      p.Repo,
		orderRepo: p.OrderRepo,
		provider:  p.Provider,
		metrics:   p.Metrics,
	}
}

// IssueInvoice opens a hosted invoice for a PENDING order, or returns the one already linked.
func (s *Issuer) IssueInvoice(ctx context.Context, externalID string) (*domain.InvoiceResult, error) {
	ctx, span := tracing.Start(ctx, "payment.issue_invoice")
	defer span.End()

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, orderdomain.ErrInvalidID
	}

	order, err := s.orderRepo.FindByExternalID(ctx, s.db, externalID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}
	if order.Status != orderdomain.StatusPending {
		return nil, domain.ErrOrderNotPending
	}
	if order.HasInvoice() {
		span.SetAttributes(attribute.Bool("reused", true))
		s.metrics.RecordInvoiceRequest(ctx, xendit.ProviderName, "reused")
		return existingInvoice(order), nil
	}

	items, err := s.orderRepo.ListItems(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}

	provider, err := s.invoiceProvider()
	if err != nil {
		return nil, err
	}

	req := s.buildRequest(order, items)
	callCtx := ctx
	if s.xendit.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.xendit.Timeout)
		defer cancel()
	}

	invoice, err := provider.CreateInvoice(callCtx, req)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		s.metrics.RecordInvoiceRequest(ctx, xendit.ProviderName, "failed")
		fields := []zap.Field{zap.String("external_id", externalID), zap.Error(err)}
		var providerErr *domain.ProviderError
		if errors.As(err, &providerErr) {
			fields = append(fields, zap.Int("provider_status", providerErr.StatusCode), zap.String("provider_body", providerErr.Body))
		}
		s.log.Error("invoice issuance failed", fields...)
		return nil, fmt.Errorf("%w: %w", domain.ErrInvoiceIssuanceFailed, err)
	}

	now := s.clock.Now()
	payment := &domain.Payment{
		ID:         s.genID.Generate().Int64(),
		OrderID:    order.ID,
		InvoiceID:  invoice.ID,
		ExternalID: order.ExternalID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Status:     orderdomain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, payment); err != nil {
			return err
		}
		linked, err := s.orderRepo.LinkInvoice(ctx, tx, order.ID, invoice.ID, invoice.URL, now)
		if err != nil {
			return err
		}
		if !linked {
			return gorm.ErrDuplicatedKey
		}
		return nil
	})
	if err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		return s.resolveConcurrentIssue(ctx, externalID, invoice.ID)
	}

	s.metrics.RecordInvoiceRequest(ctx, xendit.ProviderName, "issued")
	s.log.Info("invoice issued",
		zap.String("external_id", order.ExternalID),
		zap.String("invoice_id", invoice.ID),
		zap.Int64("amount", order.Amount),
	)
	return &domain.InvoiceResult{
		ExternalID: order.ExternalID,
		InvoiceID:  invoice.ID,
		InvoiceURL: invoice.URL,
	}, nil
}

// resolveConcurrentIssue handles losing the race to link an invoice to the order.
func (s *Issuer) resolveConcurrentIssue(ctx context.Context, externalID, orphanInvoiceID string) (*domain.InvoiceResult, error) {
	s.log.Warn("concurrent invoice issuance; provider invoice left unlinked",
		zap.String("external_id", externalID),
		zap.String("invoice_id", orphanInvoiceID),
	)
	order, err := s.orderRepo.FindByExternalID(ctx, s.db, externalID)
	if err != nil {
		return nil, err
	}
	if order != nil && order.HasInvoice() {
		s.metrics.RecordInvoiceRequest(ctx, xendit.ProviderName, "reused")
		return existingInvoice(order), nil
	}
	return nil, domain.ErrInvoiceInProgress
}

func (s *Issuer) invoiceProvider() (domain.InvoiceProvider, error) {
	if s.provider != nil {
		return s.provider, nil
	}
	return s.adapters.NewAdapter(xendit.ProviderName, domain.AdapterConfig{
		BaseURL:       s.xendit.BaseURL,
		SecretKey:     s.xendit.SecretKey,
		CallbackToken: s.xendit.CallbackToken,
		Timeout:       s.xendit.Timeout,
	})
}

func (s *Issuer) buildRequest(order *orderdomain.Order, items []orderdomain.Item) domain.InvoiceRequest {
	checkout := s.checkout.Get()

	prefix := strings.TrimSpace(checkout.DescriptionPrefix)
	if prefix == "" {
		prefix = "Order"
	}

	lines := make([]domain.InvoiceLine, 0, len(items))
	for _, item := range items {
		line := domain.InvoiceLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Category: checkout.ItemCategory,
		}
		if checkout.ProductURLPattern != "" {
			line.URL = fmt.Sprintf(checkout.ProductURLPattern, item.Slug)
		}
		lines = append(lines, line)
	}

	return domain.InvoiceRequest{
		ExternalID:         order.ExternalID,
		Amount:             order.Amount,
		Currency:           order.Currency,
		PayerEmail:         order.Email,
		Description:        prefix + " #" + order.ExternalID,
		SuccessRedirectURL: checkout.SuccessRedirectURL,
		FailureRedirectURL: checkout.FailureRedirectURL,
		Duration:           checkout.InvoiceDuration,
		Items:              lines,
	}
}

func existingInvoice(order *orderdomain.Order) *domain.InvoiceResult {
	result := &domain.InvoiceResult{ExternalID: order.ExternalID, Reused: true}
	if order.InvoiceID != nil {
		result.InvoiceID = *order.InvoiceID
	}
	if order.InvoiceURL != nil {
		result.InvoiceURL = *order.InvoiceURL
	}
	return result
}
