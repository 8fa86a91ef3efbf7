package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

type ListOrdersRequest struct {
	CustomerID string
	pagination.Pagination
}

type ListOrdersResponse struct {
	pagination.PageInfo
	Orders []OrderSummary `json:"orders"`
}

type Service interface {
	ListOrders(ctx context.Context, req ListOrdersRequest) (ListOrdersResponse, error)
}

var (
	ErrInvalidCustomer = errors.New("invalid_customer")
)
