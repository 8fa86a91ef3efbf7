package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/smallbiznis/storefront/internal/customer/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) AppendOrder(ctx context.Context, db *gorm.DB, entry domain.OrderEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customer_orders (customer_id, order_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (customer_id, order_id) DO NOTHING`,
		entry.CustomerID,
		entry.OrderID,
		entry.CreatedAt,
	).Error
}

func (r *repo) ListOrders(ctx context.Context, db *gorm.DB, customerID string, after *pagination.Cursor, limit int) ([]domain.OrderSummary, error) {
	stmt := db.WithContext(ctx).
		Table("customer_orders AS co").
		Select(`o.id AS order_id, o.external_id, o.amount, o.currency, o.status, o.invoice_url, co.created_at`).
		Joins("JOIN orders AS o ON o.id = co.order_id").
		Where("co.customer_id = ?", customerID)

	if after != nil {
		createdAt, err := time.Parse(time.RFC3339Nano, after.CreatedAt)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		orderID, err := strconv.ParseInt(after.ID, 10, 64)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		stmt = stmt.Where("(co.created_at < ? OR (co.created_at = ? AND co.order_id < ?))", createdAt, createdAt, orderID)
	}

	var items []domain.OrderSummary
	err := stmt.
		Order("co.created_at DESC").
		Order("co.order_id DESC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
