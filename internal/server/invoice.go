package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/notification"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
)

const receiptDateLayout = "02 Jan 2006 15:04 MST"

// IssueInvoice opens the hosted invoice for a pending order, or returns the one already linked.
func (s *Server) IssueInvoice(c *gin.Context) {
	externalID := strings.TrimSpace(c.Param("external_id"))
	c.Set("order_ref", externalID)

	resp, err := s.issuer.IssueInvoice(c.Request.Context(), externalID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.Reused {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": resp})
}

func (s *Server) DownloadReceipt(c *gin.Context) {
	externalID := strings.TrimSpace(c.Param("external_id"))
	c.Set("order_ref", externalID)
	ctx := c.Request.Context()

	order, err := s.orderSvc.Get(ctx, externalID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if order.Status != orderdomain.StatusPaid {
		AbortWithError(c, ErrReceiptNotAvailable)
		return
	}

	payment, err := s.paymentRepo.FindByOrderID(ctx, s.db, order.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := pdf.ReceiptData{
		StoreName:   s.cfg.StoreName,
		ExternalID:  order.ExternalID,
		BillToEmail: order.Email,
		Total:       notification.FormatAmount(order.Amount, order.Currency),
	}
	if order.Phone != nil {
		data.BillToPhone = *order.Phone
	}
	if order.InvoiceID != nil {
		data.InvoiceID = *order.InvoiceID
	}
	paidAt := order.UpdatedAt
	if payment != nil && payment.PaidAt != nil {
		paidAt = *payment.PaidAt
	}
	data.DatePaid = s.storeTime(paidAt).Format(receiptDateLayout)

	for _, item := range order.Items {
		data.Items = append(data.Items, pdf.ReceiptItem{
			Description: item.Name,
			Qty:         item.Quantity,
			UnitPrice:   notification.FormatAmount(item.Price, order.Currency),
			Amount:      notification.FormatAmount(item.LineTotal(), order.Currency),
		})
	}

	reader, err := s.pdf.GenerateReceipt(ctx, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, order.ExternalID),
	})
}

func (s *Server) storeTime(t time.Time) time.Time {
	loc, err := time.LoadLocation(strings.TrimSpace(s.cfg.StoreTimezone))
	if err != nil || s.cfg.StoreTimezone == "" {
		return t.UTC()
	}
	return t.In(loc)
}
