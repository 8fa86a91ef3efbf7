package domain

import (
	"context"
	"errors"
	"net/http"
)

// InvoiceResult is returned to checkout callers.
type InvoiceResult struct {
	ExternalID string `json:"external_id"`
	InvoiceID  string `json:"invoice_id"`
	InvoiceURL string `json:"invoice_url"`
	Reused     bool   `json:"reused"`
}

type Issuer interface {
	IssueInvoice(ctx context.Context, externalID string) (*InvoiceResult, error)
}

type WebhookService interface {
	Reconcile(ctx context.Context, provider string, payload []byte, headers http.Header) (Outcome, error)
}

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrMissingCorrelationKey = errors.New("missing_correlation_key")
	ErrInvoiceIssuanceFailed = errors.New("invoice_issuance_failed")
	ErrInvoiceInProgress     = errors.New("invoice_in_progress")
	ErrOrderNotPending       = errors.New("order_not_pending")
	ErrProviderNotFound      = errors.New("provider_not_found")
	ErrInvalidProvider       = errors.New("invalid_provider")
	ErrInvalidConfig         = errors.New("invalid_config")
)
