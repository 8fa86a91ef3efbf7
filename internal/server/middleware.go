package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
)

const (
	HeaderCustomerID     = "X-Customer-ID"
	contextCustomerIDKey = "customer_id"
	maxCustomerIDLength  = 128
	actorKindCustomer    = "customer"
	actorKindAdmin       = "admin"
	actorKindProvider    = "provider"
)

// CustomerContext attaches the storefront account forwarded by the frontend session, if any.
// Anonymous checkout stays allowed.
func (s *Server) CustomerContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := strings.TrimSpace(c.GetHeader(HeaderCustomerID))
		if customerID == "" {
			c.Next()
			return
		}
		if len(customerID) > maxCustomerIDLength {
			AbortWithError(c, newValidationError("customer_id", "invalid_customer", "invalid customer id"))
			return
		}

		c.Set(contextCustomerIDKey, customerID)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), actorKindCustomer, customerID))
		c.Next()
	}
}

func (s *Server) CustomerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if customerIDFromContext(c) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func customerIDFromContext(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(contextCustomerIDKey))
}
