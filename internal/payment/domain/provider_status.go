package domain

import (
	"strings"

	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
)

// ProviderStatus is the closed set of invoice states a provider can report.
type ProviderStatus int

const (
	ProviderStatusUnknown ProviderStatus = iota
	ProviderStatusPending
	ProviderStatusPaid
	ProviderStatusSettled
	ProviderStatusExpired
	ProviderStatusFailed
)

func ParseProviderStatus(raw string) ProviderStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING":
		return ProviderStatusPending
	case "PAID":
		return ProviderStatusPaid
	case "SETTLED":
		return ProviderStatusSettled
	case "EXPIRED":
		return ProviderStatusExpired
	case "FAILED":
		return ProviderStatusFailed
	default:
		return ProviderStatusUnknown
	}
}

// Internal maps the provider status to an order status. ok is false when no transition applies.
func (s ProviderStatus) Internal() (orderdomain.Status, bool) {
	switch s {
	case ProviderStatusPaid, ProviderStatusSettled:
		return orderdomain.StatusPaid, true
	case ProviderStatusExpired:
		return orderdomain.StatusExpired, true
	case ProviderStatusFailed:
		return orderdomain.StatusFailed, true
	default:
		return orderdomain.StatusPending, false
	}
}

func (s ProviderStatus) String() string {
	switch s {
	case ProviderStatusPending:
		return "PENDING"
	case ProviderStatusPaid:
		return "PAID"
	case ProviderStatusSettled:
		return "SETTLED"
	case ProviderStatusExpired:
		return "EXPIRED"
	case ProviderStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
