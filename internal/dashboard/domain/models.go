package domain

import (
	"context"
	"time"
)

// OrderStats counts orders per status.
type OrderStats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Paid    int64 `json:"paid"`
	Expired int64 `json:"expired"`
	Failed  int64 `json:"failed"`
}

// RevenueStats sums PAID payments in minor units.
type RevenueStats struct {
	Currency string `json:"currency"`
	Total    int64  `json:"total"`
	Today    int64  `json:"today"`
	Month    int64  `json:"month"`
}

type ProductStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// DailySales is one bucket of the sales chart, keyed by store-local date.
type DailySales struct {
	Date  string `json:"date"`
	Total int64  `json:"total"`
	Count int64  `json:"count"`
}

type RecentOrder struct {
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type Summary struct {
	Orders       OrderStats    `json:"orders"`
	Revenue      RevenueStats  `json:"revenue"`
	Products     ProductStats  `json:"products"`
	SalesChart   []DailySales  `json:"sales_chart"`
	RecentOrders []RecentOrder `json:"recent_orders"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}
