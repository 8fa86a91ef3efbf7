package domain

import (
	"context"

	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	// AppendOrder is idempotent per (customer, order).
	AppendOrder(ctx context.Context, db *gorm.DB, entry OrderEntry) error
	ListOrders(ctx context.Context, db *gorm.DB, customerID string, after *pagination.Cursor, limit int) ([]OrderSummary, error)
}
