package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicenumber "github.com/smallbiznis/gomart/internal/invoice/number"
	paymentdomain "github.com/smallbiznis/gomart/internal/payment/domain"
)

// ConfirmInvoicePayment records a payment and marks the invoice PAID.
func (s *Server) ConfirmInvoicePayment(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if !invoicenumber.Valid(number) {
		AbortWithError(c, newValidationError("number", "invalid_invoice_number", "invalid invoice number"))
		return
	}

	var req paymentdomain.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "invalid request body"))
		return
	}

	payment, err := s.paymentSvc.Confirm(c.Request.Context(), number, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": payment})
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if !invoicenumber.Valid(number) {
		AbortWithError(c, newValidationError("number", "invalid_invoice_number", "invalid invoice number"))
		return
	}

	payments, err := s.paymentSvc.ListByInvoice(c.Request.Context(), number)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}
