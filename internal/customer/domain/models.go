package domain

import "time"

// OrderEntry links a storefront account to an order it placed.
type OrderEntry struct {
	CustomerID string    `json:"customer_id" gorm:"primaryKey"`
	OrderID    int64     `json:"order_id,string" gorm:"primaryKey"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OrderEntry) TableName() string { return "customer_orders" }

// OrderSummary is the account-facing view of a past order.
type OrderSummary struct {
	OrderID    int64     `json:"-"`
	ExternalID string    `json:"external_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	InvoiceURL *string   `json:"invoice_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
