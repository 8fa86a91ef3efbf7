package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

const orderColumns = `id, external_id, email, customer_id, phone, amount, currency, status,
	invoice_id, invoice_url, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, external_id, email, customer_id, phone, amount, currency, status,
			invoice_id, invoice_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.ExternalID,
		order.Email,
		order.CustomerID,
		order.Phone,
		order.Amount,
		order.Currency,
		order.Status,
		order.InvoiceID,
		order.InvoiceURL,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.Item) error {
	for _, item := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO order_items (order_id, position, product_id, slug, name, price, quantity, image)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.OrderID,
			item.Position,
			item.ProductID,
			item.Slug,
			item.Name,
			item.Price,
			item.Quantity,
			item.Image,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`,
		id,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE external_id = ?`,
		externalID,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderID int64) ([]domain.Item, error) {
	var items []domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT order_id, position, product_id, slug, name, price, quantity, image
		 FROM order_items WHERE order_id = ? ORDER BY position ASC`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, after *pagination.Cursor, limit int) ([]domain.Order, error) {
	stmt := db.WithContext(ctx).Model(&domain.Order{})

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at < ?", filter.CreatedTo.UTC())
	}
	if after != nil {
		createdAt, err := time.Parse(time.RFC3339Nano, after.CreatedAt)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(after.ID, 10, 64)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		stmt = stmt.Where("(created_at < ? OR (created_at = ? AND id < ?))", createdAt, createdAt, id)
	}

	var items []domain.Order
	if err := stmt.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) LinkInvoice(ctx context.Context, db *gorm.DB, id int64, invoiceID, invoiceURL string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET invoice_id = ?, invoice_url = ?, updated_at = ?
		 WHERE id = ? AND invoice_id IS NULL`,
		invoiceID,
		invoiceURL,
		at,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) ApplyStatus(ctx context.Context, db *gorm.DB, id int64, next domain.Status, at time.Time) (bool, error) {
	from := next.Predecessors()
	if len(from) == 0 {
		return false, nil
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN ?`,
		next,
		at,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
