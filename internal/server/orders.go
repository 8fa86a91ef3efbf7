package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

func (s *Server) GetOrder(c *gin.Context) {
	externalID := strings.TrimSpace(c.Param("external_id"))
	c.Set("order_ref", externalID)

	resp, err := s.orderSvc.Get(c.Request.Context(), externalID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetAdminOrder adds the payment audit record, including the last raw callback payload.
func (s *Server) GetAdminOrder(c *gin.Context) {
	externalID := strings.TrimSpace(c.Param("external_id"))
	c.Set("order_ref", externalID)
	ctx := c.Request.Context()

	order, err := s.orderSvc.Get(ctx, externalID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payment, err := s.paymentRepo.FindByOrderID(ctx, s.db, order.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order, "payment": payment})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		Status      string `form:"status"`
		Email       string `form:"email"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
		PageToken   string `form:"page_token"`
		PageSize    int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListRequest{
		Status:      strings.TrimSpace(query.Status),
		Email:       strings.TrimSpace(query.Email),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
