package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []Item) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*Order, error)
	ListItems(ctx context.Context, db *gorm.DB, orderID int64) ([]Item, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, after *pagination.Cursor, limit int) ([]Order, error)

	// LinkInvoice sets the invoice handle once; it reports false when one was already linked.
	LinkInvoice(ctx context.Context, db *gorm.DB, id int64, invoiceID, invoiceURL string, at time.Time) (bool, error)
	// ApplyStatus moves the order to next only from a lower-ranked status.
	ApplyStatus(ctx context.Context, db *gorm.DB, id int64, next Status, at time.Time) (bool, error)
}
