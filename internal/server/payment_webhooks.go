package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"github.com/smallbiznis/storefront/internal/payment/adapters/xendit"
)

const maxWebhookBody = 1 << 20

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	s.reconcile(c, strings.TrimSpace(c.Param("provider")))
}

// HandleXenditWebhook serves the callback URL already registered in the Xendit dashboard.
func (s *Server) HandleXenditWebhook(c *gin.Context) {
	s.reconcile(c, xendit.ProviderName)
}

func (s *Server) reconcile(c *gin.Context, provider string) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			AbortWithError(c, ErrPayloadTooLarge)
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := obscontext.WithActor(c.Request.Context(), actorKindProvider, provider)
	outcome, err := s.webhookSvc.Reconcile(ctx, provider, payload, c.Request.Header)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "outcome": outcome})
}
