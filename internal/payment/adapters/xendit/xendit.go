package xendit

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	paymentdomain "github.com/smallbiznis/storefront/internal/payment/domain"
)

const (
	ProviderName   = "xendit"
	DefaultBaseURL = "https://api.xendit.co"

	headerCallbackToken = "X-Callback-Token"
	maxResponseBody     = 1 << 20
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return ProviderName
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.PaymentAdapter, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Adapter{
		baseURL:       baseURL,
		secretKey:     strings.TrimSpace(cfg.SecretKey),
		callbackToken: strings.TrimSpace(cfg.CallbackToken),
		client:        client,
	}, nil
}

type Adapter struct {
	baseURL       string
	secretKey     string
	callbackToken string
	client        *http.Client
}

type invoiceItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
	Category string `json:"category,omitempty"`
	URL      string `json:"url,omitempty"`
}

type createInvoiceRequest struct {
	ExternalID         string        `json:"external_id"`
	Amount             int64         `json:"amount"`
	PayerEmail         string        `json:"payer_email,omitempty"`
	Description        string        `json:"description,omitempty"`
	SuccessRedirectURL string        `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string        `json:"failure_redirect_url,omitempty"`
	Currency           string        `json:"currency,omitempty"`
	InvoiceDuration    int64         `json:"invoice_duration,omitempty"`
	Items              []invoiceItem `json:"items,omitempty"`
}

type createInvoiceResponse struct {
	ID         string `json:"id"`
	InvoiceURL string `json:"invoice_url"`
}

func (a *Adapter) CreateInvoice(ctx context.Context, req paymentdomain.InvoiceRequest) (*paymentdomain.Invoice, error) {
	if a.secretKey == "" {
		return nil, &paymentdomain.ProviderError{Err: paymentdomain.ErrInvalidConfig}
	}

	body := createInvoiceRequest{
		ExternalID:         req.ExternalID,
		Amount:             req.Amount,
		PayerEmail:         req.PayerEmail,
		Description:        req.Description,
		SuccessRedirectURL: req.SuccessRedirectURL,
		FailureRedirectURL: req.FailureRedirectURL,
		Currency:           req.Currency,
		InvoiceDuration:    int64(req.Duration / time.Second),
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, invoiceItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Category: item.Category,
			URL:      item.URL,
		})
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/invoices", bytes.NewReader(encoded))
	if err != nil {
		return nil, &paymentdomain.ProviderError{Err: err}
	}
	// Xendit authenticates with the secret key as the basic-auth username and an empty password.
	httpReq.SetBasicAuth(a.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &paymentdomain.ProviderError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &paymentdomain.ProviderError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &paymentdomain.ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var decoded createInvoiceResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &paymentdomain.ProviderError{StatusCode: resp.StatusCode, Body: string(raw), Err: err}
	}
	if strings.TrimSpace(decoded.ID) == "" || strings.TrimSpace(decoded.InvoiceURL) == "" {
		return nil, &paymentdomain.ProviderError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Err:        errors.New("response missing id or invoice_url"),
		}
	}

	return &paymentdomain.Invoice{ID: decoded.ID, URL: decoded.InvoiceURL}, nil
}

// Verify accepts every callback when no token is configured.
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	if a.callbackToken == "" {
		return nil
	}
	got := strings.TrimSpace(headers.Get(headerCallbackToken))
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.callbackToken)) != 1 {
		return paymentdomain.ErrUnauthorized
	}
	return nil
}

type callbackPayload struct {
	ID          string   `json:"id"`
	InvoiceID   string   `json:"invoice_id"`
	ExternalID  string   `json:"external_id"`
	Status      string   `json:"status"`
	PaidAt      string   `json:"paid_at"`
	FailureCode string   `json:"failure_code"`
	Amount      *float64 `json:"amount"`
	Currency    string   `json:"currency"`
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.CallbackEvent, error) {
	var body callbackPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	invoiceID := strings.TrimSpace(body.ID)
	if invoiceID == "" {
		invoiceID = strings.TrimSpace(body.InvoiceID)
	}
	externalID := strings.TrimSpace(body.ExternalID)
	if invoiceID == "" && externalID == "" {
		return nil, paymentdomain.ErrMissingCorrelationKey
	}

	event := &paymentdomain.CallbackEvent{
		InvoiceID:   invoiceID,
		ExternalID:  externalID,
		Status:      paymentdomain.ParseProviderStatus(body.Status),
		RawStatus:   body.Status,
		FailureCode: strings.TrimSpace(body.FailureCode),
		Currency:    strings.ToUpper(strings.TrimSpace(body.Currency)),
		RawPayload:  payload,
	}

	if paidAt := strings.TrimSpace(body.PaidAt); paidAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, paidAt); err == nil {
			utc := ts.UTC()
			event.PaidAt = &utc
		}
	}

	if body.Amount != nil {
		amount := *body.Amount
		if amount < 0 || amount != math.Trunc(amount) || amount > math.MaxInt64 {
			return nil, fmt.Errorf("%w: amount %v is not a whole minor-unit value", paymentdomain.ErrInvalidPayload, amount)
		}
		v := int64(amount)
		event.Amount = &v
	}

	return event, nil
}
