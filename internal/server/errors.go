package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/authorization"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/storefront/internal/customer/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	paymentdomain "github.com/smallbiznis/storefront/internal/payment/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrInternal            = errors.New("internal_error")
	ErrNotFound            = errors.New("not_found")
	ErrInvalidRequest      = errors.New("invalid_request")
	ErrServiceUnavailable  = errors.New("service_unavailable")
	ErrRateLimited         = errors.New("rate_limited")
	ErrReceiptNotAvailable = errors.New("receipt_not_available")
	ErrPayloadTooLarge     = errors.New("payload_too_large")
)

// maxDiagnosticLength bounds how much of a provider response is echoed to clients.
const maxDiagnosticLength = 512

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	// Provider failures may wrap adapter sentinels; they are never the caller's fault.
	if errors.Is(err, paymentdomain.ErrInvoiceIssuanceFailed) {
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_error",
			Code:    paymentdomain.ErrInvoiceIssuanceFailed.Error(),
			Message: providerDiagnostic(err),
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var productErr *orderdomain.ProductNotFoundError
	if errors.As(err, &productErr) {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    catalogdomain.ErrProductNotFound.Error(),
			Message: "product not found",
			Errors: []ValidationError{
				{Field: "slug", Code: catalogdomain.ErrProductNotFound.Error(), Message: productErr.Slug},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, paymentdomain.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, paymentdomain.ErrOrderNotPending),
		errors.Is(err, paymentdomain.ErrInvoiceInProgress),
		errors.Is(err, ErrReceiptNotAvailable),
		errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    conflictCode(err),
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    notFoundCode(err),
			Message: "not found",
		}
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "payload_too_large",
			Message: "payload too large",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the same type and code the client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if code == "" {
		code = payload.Type
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationSentinels = []error{
	ErrInvalidRequest,
	orderdomain.ErrEmptyCart,
	orderdomain.ErrInvalidEmail,
	orderdomain.ErrInvalidQuantity,
	orderdomain.ErrInvalidAmount,
	orderdomain.ErrInvalidStatus,
	orderdomain.ErrInvalidID,
	catalogdomain.ErrInvalidSlug,
	customerdomain.ErrInvalidCustomer,
	pagination.ErrInvalidPageToken,
	paymentdomain.ErrInvalidPayload,
	paymentdomain.ErrMissingCorrelationKey,
	paymentdomain.ErrInvalidProvider,
	authorization.ErrInvalidActor,
	authorization.ErrInvalidRole,
	authorization.ErrInvalidObject,
	authorization.ErrInvalidAction,
}

func isValidationError(err error) bool {
	return matchSentinel(err, validationSentinels) != nil
}

func matchSentinel(err error, sentinels []error) error {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, paymentdomain.ErrProviderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundCode(err error) string {
	if sentinel := matchSentinel(err, []error{
		orderdomain.ErrNotFound,
		catalogdomain.ErrProductNotFound,
		paymentdomain.ErrProviderNotFound,
	}); sentinel != nil {
		return sentinel.Error()
	}
	return "not_found"
}

func conflictCode(err error) string {
	if sentinel := matchSentinel(err, []error{
		paymentdomain.ErrOrderNotPending,
		paymentdomain.ErrInvoiceInProgress,
		ErrReceiptNotAvailable,
	}); sentinel != nil {
		return sentinel.Error()
	}
	return "conflict"
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, paymentdomain.ErrOrderNotPending):
		return "order is no longer awaiting payment"
	case errors.Is(err, paymentdomain.ErrInvoiceInProgress):
		return "invoice issuance already in progress, retry shortly"
	case errors.Is(err, ErrReceiptNotAvailable):
		return "receipt is only available for paid orders"
	default:
		return "conflict"
	}
}

func providerDiagnostic(err error) string {
	var providerErr *paymentdomain.ProviderError
	if !errors.As(err, &providerErr) {
		return "payment provider request failed"
	}
	msg := providerErr.Error()
	if len(msg) > maxDiagnosticLength {
		msg = msg[:maxDiagnosticLength]
	}
	return "payment provider request failed: " + msg
}

func validationErrorCode(err error) string {
	if sentinel := matchSentinel(err, validationSentinels); sentinel != nil {
		return sentinel.Error()
	}
	return err.Error()
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case orderdomain.ErrEmptyCart.Error():
		return "items"
	case pagination.ErrInvalidPageToken.Error():
		return "page_token"
	case paymentdomain.ErrMissingCorrelationKey.Error(), paymentdomain.ErrInvalidPayload.Error():
		return "payload"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case orderdomain.ErrEmptyCart.Error():
		return "cart is empty"
	case paymentdomain.ErrMissingCorrelationKey.Error():
		return "payload carries no invoice or order reference"
	default:
		return "invalid value"
	}
}
