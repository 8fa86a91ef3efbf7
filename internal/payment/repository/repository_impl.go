package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/storefront/internal/payment/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const paymentColumns = `id, order_id, invoice_id, external_id, amount, currency, status, paid_at,
	failure_code, raw_payload, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, order_id, invoice_id, external_id, amount, currency, status,
			paid_at, failure_code, raw_payload, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.OrderID,
		payment.InvoiceID,
		payment.ExternalID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.PaidAt,
		payment.FailureCode,
		nullableJSON(payment.RawPayload),
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Payment, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID string) (*domain.Payment, error) {
	return r.findOne(ctx, db, "invoice_id = ?", invoiceID)
}

func (r *repo) FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.Payment, error) {
	return r.findOne(ctx, db, "external_id = ?", externalID)
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID int64) (*domain.Payment, error) {
	return r.findOne(ctx, db, "order_id = ?", orderID)
}

// paymentRow scans raw_payload as bytes so a NULL column stays empty.
type paymentRow struct {
	domain.Payment
	RawPayload []byte
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.Payment, error) {
	var row paymentRow
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE `+where,
		arg,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	p := row.Payment
	p.RawPayload = nil
	if len(row.RawPayload) > 0 {
		p.RawPayload = datatypes.JSON(row.RawPayload)
	}
	return &p, nil
}

func (r *repo) ApplyTransition(ctx context.Context, db *gorm.DB, id int64, t domain.Transition) (bool, error) {
	from := t.Status.Predecessors()
	if len(from) == 0 {
		return false, nil
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, paid_at = ?, failure_code = ?, raw_payload = ?, updated_at = ?
		 WHERE id = ? AND status IN ?`,
		t.Status,
		t.PaidAt,
		t.FailureCode,
		nullableJSON(t.RawPayload),
		t.At,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) RecordPayload(ctx context.Context, db *gorm.DB, id int64, payload []byte, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET raw_payload = ?, updated_at = ? WHERE id = ?`,
		nullableJSON(payload),
		at,
		id,
	).Error
}

func nullableJSON(payload []byte) any {
	if len(payload) == 0 {
		return nil
	}
	return datatypes.JSON(payload)
}

