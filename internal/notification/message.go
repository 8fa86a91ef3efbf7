package notification

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatAmount renders minor units the way Indonesian storefronts print prices, e.g. "Rp 800.000".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	prefix := strings.ToUpper(strings.TrimSpace(currency))
	if prefix == "" || prefix == "IDR" {
		prefix = "Rp"
	}
	return fmt.Sprintf("%s%s %s", sign, prefix, b.String())
}

// NormalizePhone strips non-digits and rewrites a local number to the international form
// without "+", e.g. 0812... becomes 62812... for country code 62.
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return ""
	}
	if countryCode == "" {
		countryCode = "62"
	}
	if strings.HasPrefix(cleaned, "0") {
		cleaned = countryCode + cleaned[1:]
	}
	if !strings.HasPrefix(cleaned, countryCode) {
		cleaned = countryCode + cleaned
	}
	return cleaned
}

// PaidMessage is the plain-text body shared by chat channels.
func PaidMessage(title, storeName string, order OrderSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s - %s*\n\n", title, storeName)
	fmt.Fprintf(&b, "Order ID: *%s*\n", order.ExternalID)
	fmt.Fprintf(&b, "Total: *%s*\n", FormatAmount(order.Amount, order.Currency))
	if order.PaidAt != nil {
		fmt.Fprintf(&b, "Paid at: %s\n", order.PaidAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	if len(order.Items) > 0 {
		b.WriteString("\n*Items:*\n")
		for _, item := range order.Items {
			fmt.Fprintf(&b, "- %s (%dx) - %s\n", item.Name, item.Quantity, FormatAmount(item.Price, order.Currency))
		}
	}
	b.WriteString("\nThank you! Your order is being processed.")
	return b.String()
}
