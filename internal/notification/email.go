package notification

import (
	"context"
	"strings"

	"github.com/smallbiznis/storefront/internal/providers/email"
)

const templateOrderPaid = "order_paid"

type Email struct {
	provider  email.Provider
	storeName string
}

func NewEmail(provider email.Provider, storeName string) *Email {
	return &Email{provider: provider, storeName: storeName}
}

func (e *Email) Name() string { return "email" }

type emailItem struct {
	Name     string
	Quantity int
	Price    string
}

func (e *Email) NotifyOrderPaid(ctx context.Context, contact Contact, order OrderSummary) error {
	to := strings.TrimSpace(contact.Email)
	if to == "" {
		return ErrNoRecipient
	}

	items := make([]emailItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, emailItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    FormatAmount(item.Price, order.Currency),
		})
	}

	return e.provider.SendTemplate(ctx, []string{to}, templateOrderPaid, map[string]interface{}{
		"subject":     "Payment received for " + order.ExternalID,
		"store_name":  e.storeName,
		"external_id": order.ExternalID,
		"total":       FormatAmount(order.Amount, order.Currency),
		"items":       items,
	})
}
