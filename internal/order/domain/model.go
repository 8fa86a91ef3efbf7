package domain

import "time"

type Order struct {
	ID         int64     `json:"-" gorm:"primaryKey"`
	ExternalID string    `json:"external_id" gorm:"type:text;not null;uniqueIndex:ux_orders_external_id"`
	Email      string    `json:"email" gorm:"type:text;not null"`
	CustomerID *string   `json:"customer_id,omitempty" gorm:"type:text"`
	Phone      *string   `json:"phone,omitempty" gorm:"type:text"`
	Amount     int64     `json:"amount" gorm:"not null"`
	Currency   string    `json:"currency" gorm:"type:text;not null"`
	Status     Status    `json:"status" gorm:"type:text;not null"`
	InvoiceID  *string   `json:"invoice_id,omitempty" gorm:"type:text"`
	InvoiceURL *string   `json:"invoice_url,omitempty" gorm:"type:text"`
	Items      []Item    `json:"items,omitempty" gorm:"-"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// HasInvoice reports whether an invoice handle is already linked.
func (o *Order) HasInvoice() bool {
	return o.InvoiceID != nil && *o.InvoiceID != ""
}

// Item is the catalog snapshot taken when the order was placed.
type Item struct {
	OrderID   int64  `json:"-" gorm:"primaryKey"`
	Position  int    `json:"-" gorm:"primaryKey"`
	ProductID int64  `json:"product_id,string" gorm:"not null"`
	Slug      string `json:"slug" gorm:"type:text;not null"`
	Name      string `json:"name" gorm:"type:text;not null"`
	Price     int64  `json:"price" gorm:"not null"`
	Quantity  int    `json:"quantity" gorm:"not null"`
	Image     string `json:"image,omitempty" gorm:"type:text"`
}

func (Item) TableName() string { return "order_items" }

func (i Item) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}
