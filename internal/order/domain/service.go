package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Order, error)
	Get(ctx context.Context, externalID string) (*Order, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

type CreateRequest struct {
	Email      string        `json:"email"`
	Phone      string        `json:"phone"`
	CustomerID string        `json:"-"`
	Items      []ItemRequest `json:"items"`
}

type ItemRequest struct {
	Slug     string `json:"slug"`
	Quantity int    `json:"quantity"`
	// Price is accepted from older clients in any JSON shape and never read.
	Price json.RawMessage `json:"price,omitempty"`
}

type ListRequest struct {
	Status      string     `form:"status"`
	Email       string     `form:"email"`
	CreatedFrom *time.Time `form:"created_from" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedTo   *time.Time `form:"created_to" time_format:"2006-01-02T15:04:05Z07:00"`
	pagination.Pagination
}

type ListFilter struct {
	Status      Status
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListResponse struct {
	pagination.PageInfo
	Orders []Order `json:"orders"`
}

const MaxQuantity = 1000

var (
	ErrEmptyCart       = errors.New("order_empty_cart")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("order_not_found")
	ErrReference       = errors.New("order_reference_exhausted")
)

// ProductNotFoundError names the cart slug that the catalog could not resolve.
type ProductNotFoundError struct {
	Slug string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", catalogdomain.ErrProductNotFound, e.Slug)
}

func (e *ProductNotFoundError) Unwrap() error {
	return catalogdomain.ErrProductNotFound
}
