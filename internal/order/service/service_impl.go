package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	customerdomain "github.com/smallbiznis/storefront/internal/customer/domain"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxReferenceAttempts = 3

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Cfg          config.Config
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Catalog      catalogdomain.Service
	CustomerRepo customerdomain.Repository
	Metrics      *metrics.Metrics          `optional:"true"`
	Reference    domain.ReferenceGenerator `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	currency     string
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	catalog      catalogdomain.Service
	customerRepo customerdomain.Repository
	metrics      *metrics.Metrics
	reference    domain.ReferenceGenerator
	validate     *validator.Validate
}

func New(p Params) domain.Service {
	reference := p.Reference
	if reference == nil {
		reference = domain.NewExternalReference
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Cfg.StoreCurrency))
	if currency == "" {
		currency = "IDR"
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("order.service"),
		currency:     currency,
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		catalog:      p.Catalog,
		customerRepo: p.CustomerRepo,
		metrics:      p.Metrics,
		reference:    reference,
		validate:     validator.New(),
	}
}

// Create prices the cart from the catalog and persists a PENDING order. Client prices are ignored.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Order, error) {
	ctx, span := tracing.Start(ctx, "order.create", attribute.Int("item_count", len(req.Items)))
	defer span.End()

	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	email := strings.TrimSpace(req.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, domain.ErrInvalidEmail
	}

	items, amount, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	order := &domain.Order{
		ID:        s.genID.Generate().Int64(),
		Email:     email,
		Phone:     optionalString(req.Phone),
		Amount:    amount,
		Currency:  s.currency,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if customerID := strings.TrimSpace(req.CustomerID); customerID != "" {
		order.CustomerID = &customerID
	}
	for i := range items {
		items[i].OrderID = order.ID
	}

	for attempt := 1; ; attempt++ {
		order.ExternalID = s.reference()
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.Insert(ctx, tx, order); err != nil {
				return err
			}
			if err := s.repo.InsertItems(ctx, tx, items); err != nil {
				return err
			}
			if order.CustomerID != nil {
				return s.customerRepo.AppendOrder(ctx, tx, customerdomain.OrderEntry{
					CustomerID: *order.CustomerID,
					OrderID:    order.ID,
					CreatedAt:  now,
				})
			}
			return nil
		})
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) {
			span.RecordError(tracing.SafeError(err))
			return nil, err
		}
		s.log.Warn("order reference collision",
			zap.String("external_id", order.ExternalID),
			zap.Int("attempt", attempt),
		)
		if attempt >= maxReferenceAttempts {
			return nil, fmt.Errorf("%w: %v", domain.ErrReference, err)
		}
	}

	order.Items = items
	s.metrics.RecordOrderCreated(ctx, order.Currency, order.Amount)
	s.log.Info("order created",
		zap.String("external_id", order.ExternalID),
		zap.Int64("amount", order.Amount),
		zap.String("currency", order.Currency),
		zap.Int("items", len(items)),
	)
	return order, nil
}

// priceItems resolves every line before anything is written so an unknown slug aborts the whole cart.
func (s *Service) priceItems(ctx context.Context, reqs []domain.ItemRequest) ([]domain.Item, int64, error) {
	items := make([]domain.Item, 0, len(reqs))
	var total int64
	for i, req := range reqs {
		if req.Quantity < 1 || req.Quantity > domain.MaxQuantity {
			return nil, 0, domain.ErrInvalidQuantity
		}

		slug := strings.TrimSpace(req.Slug)
		product, err := s.catalog.FindBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, catalogdomain.ErrProductNotFound) || errors.Is(err, catalogdomain.ErrInvalidSlug) {
				return nil, 0, &domain.ProductNotFoundError{Slug: slug}
			}
			return nil, 0, err
		}
		if product.Price < 0 {
			return nil, 0, domain.ErrInvalidAmount
		}

		item := domain.Item{
			Position:  i + 1,
			ProductID: product.ID,
			Slug:      product.Slug,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  req.Quantity,
			Image:     product.PrimaryImage(),
		}
		if product.Price > 0 && int64(req.Quantity) > math.MaxInt64/product.Price {
			return nil, 0, domain.ErrInvalidAmount
		}
		line := item.LineTotal()
		if total > math.MaxInt64-line {
			return nil, 0, domain.ErrInvalidAmount
		}
		total += line
		items = append(items, item)
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, externalID string) (*domain.Order, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, domain.ErrInvalidID
	}

	order, err := s.repo.FindByExternalID(ctx, s.db, externalID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	items, err := s.repo.ListItems(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{
		Status:      domain.Status(strings.ToUpper(strings.TrimSpace(req.Status))),
		Email:       strings.TrimSpace(req.Email),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidStatus
	}

	var after *pagination.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListResponse{}, err
		}
		after = cursor
	}

	limit := req.Limit()
	items, err := s.repo.List(ctx, s.db, filter, after, limit+1)
	if err != nil {
		return domain.ListResponse{}, err
	}

	page, info, err := pagination.Trim(items, limit, func(o domain.Order) (pagination.Cursor, error) {
		return pagination.Cursor{
			ID:        strconv.FormatInt(o.ID, 10),
			CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339Nano),
		}, nil
	})
	if err != nil {
		return domain.ListResponse{}, err
	}
	if page == nil {
		page = []domain.Order{}
	}
	return domain.ListResponse{PageInfo: *info, Orders: page}, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
