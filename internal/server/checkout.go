package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	paymentdomain "github.com/smallbiznis/storefront/internal/payment/domain"
	"go.uber.org/zap"
)

type checkoutResponse struct {
	Order      *orderdomain.Order `json:"order"`
	InvoiceURL string             `json:"invoice_url"`
}

// Checkout prices the cart from the catalog, stores the order and opens the hosted invoice.
// Client-sent prices are ignored.
func (s *Server) Checkout(c *gin.Context) {
	var req orderdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.CustomerID = customerIDFromContext(c)

	ctx := c.Request.Context()
	order, err := s.orderSvc.Create(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("order_ref", order.ExternalID)

	invoice, err := s.issuer.IssueInvoice(ctx, order.ExternalID)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrInvoiceIssuanceFailed) {
			// The order stays PENDING; the client retries issuance with the reference.
			logger.FromContext(ctx).Warn("checkout invoice issuance failed",
				zap.String("external_id", order.ExternalID),
			)
			_ = c.Error(err)
			status, payload := mapError(err)
			c.JSON(status, gin.H{"error": payload, "order": order})
			return
		}
		AbortWithError(c, err)
		return
	}

	order.InvoiceID = &invoice.InvoiceID
	order.InvoiceURL = &invoice.InvoiceURL
	c.JSON(http.StatusCreated, checkoutResponse{
		Order:      order,
		InvoiceURL: invoice.InvoiceURL,
	})
}
