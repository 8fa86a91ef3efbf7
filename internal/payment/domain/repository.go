package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Payment, error)
	FindByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID string) (*Payment, error)
	FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*Payment, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID int64) (*Payment, error)
	// ApplyTransition updates status only from a lower-ranked status and reports whether it won.
	ApplyTransition(ctx context.Context, db *gorm.DB, id int64, t Transition) (bool, error)
	// RecordPayload stores the last payload seen without touching status.
	RecordPayload(ctx context.Context, db *gorm.DB, id int64, payload []byte, at time.Time) error
}
