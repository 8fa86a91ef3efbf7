package domain

import (
	"time"

	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"gorm.io/datatypes"
)

// Payment is the audit record for one hosted invoice.
type Payment struct {
	ID          int64              `json:"id,string" gorm:"primaryKey"`
	OrderID     int64              `json:"order_id,string" gorm:"not null;uniqueIndex:ux_payments_order_id"`
	InvoiceID   string             `json:"invoice_id" gorm:"type:text;not null;uniqueIndex:ux_payments_invoice_id"`
	ExternalID  string             `json:"external_id" gorm:"type:text;not null;uniqueIndex:ux_payments_external_id"`
	Amount      int64              `json:"amount" gorm:"not null"`
	Currency    string             `json:"currency" gorm:"type:text;not null"`
	Status      orderdomain.Status `json:"status" gorm:"type:text;not null"`
	PaidAt      *time.Time         `json:"paid_at,omitempty"`
	FailureCode *string            `json:"failure_code,omitempty" gorm:"type:text"`
	RawPayload  datatypes.JSON     `json:"raw_payload,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time          `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time          `json:"updated_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// Transition is the write applied to a payment when a callback moves it forward.
type Transition struct {
	Status      orderdomain.Status
	PaidAt      *time.Time
	FailureCode *string
	RawPayload  []byte
	At          time.Time
}

// Outcome describes what a callback did.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeReplayed Outcome = "replayed"
	OutcomeIgnored  Outcome = "ignored"
	OutcomeRejected Outcome = "rejected"
)
