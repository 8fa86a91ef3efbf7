package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/storefront/internal/customer/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("customer.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListOrders(ctx context.Context, req domain.ListOrdersRequest) (domain.ListOrdersResponse, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return domain.ListOrdersResponse{}, domain.ErrInvalidCustomer
	}

	var after *pagination.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListOrdersResponse{}, err
		}
		after = cursor
	}

	limit := req.Limit()
	items, err := s.repo.ListOrders(ctx, s.db, customerID, after, limit+1)
	if err != nil {
		return domain.ListOrdersResponse{}, err
	}

	page, info, err := pagination.Trim(items, limit, func(o domain.OrderSummary) (pagination.Cursor, error) {
		return pagination.Cursor{
			ID:        strconv.FormatInt(o.OrderID, 10),
			CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339Nano),
		}, nil
	})
	if err != nil {
		return domain.ListOrdersResponse{}, err
	}
	if page == nil {
		page = []domain.OrderSummary{}
	}

	return domain.ListOrdersResponse{PageInfo: *info, Orders: page}, nil
}
