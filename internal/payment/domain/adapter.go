package domain

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

//go:generate mockgen -source=adapter.go -destination=../mocks/mock_adapter.go -package=mocks

// InvoiceProvider opens hosted invoices.
type InvoiceProvider interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
}

// PaymentAdapter is one provider integration: outbound invoices plus inbound callbacks.
type PaymentAdapter interface {
	InvoiceProvider
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*CallbackEvent, error)
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (PaymentAdapter, error)
}

type AdapterConfig struct {
	Provider      string
	BaseURL       string
	SecretKey     string
	CallbackToken string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

type InvoiceLine struct {
	Name     string
	Quantity int
	Price    int64
	Category string
	URL      string
}

type InvoiceRequest struct {
	ExternalID         string
	Amount             int64
	Currency           string
	PayerEmail         string
	Description        string
	SuccessRedirectURL string
	FailureRedirectURL string
	Duration           time.Duration
	Items              []InvoiceLine
}

type Invoice struct {
	ID  string
	URL string
}

// CallbackEvent is a provider callback normalised by an adapter.
type CallbackEvent struct {
	InvoiceID   string
	ExternalID  string
	Status      ProviderStatus
	RawStatus   string
	PaidAt      *time.Time
	FailureCode string
	Amount      *int64
	Currency    string
	RawPayload  []byte
}

// CorrelationKey prefers the invoice handle over the order reference.
func (e *CallbackEvent) CorrelationKey() string {
	if e.InvoiceID != "" {
		return e.InvoiceID
	}
	return e.ExternalID
}

// ProviderError carries the provider's diagnostic payload for operators.
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("provider request failed: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("provider returned %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Body)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }
