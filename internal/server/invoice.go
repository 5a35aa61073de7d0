package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/gomart/internal/invoice/domain"
	invoicenumber "github.com/smallbiznis/gomart/internal/invoice/number"
)

// GenerateInvoice converts a completed order into an invoice. Repeat calls
// for the same order return the existing invoice number.
func (s *Server) GenerateInvoice(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(orderID); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_order_id", "invalid order id"))
		return
	}

	number, err := s.invoiceSvc.GenerateForOrder(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"invoice_number": number}})
}

func (s *Server) ListInvoices(c *gin.Context) {
	req := invoicedomain.ListInvoiceRequest{}
	if err := c.ShouldBindQuery(&req.Pagination); err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid page size"))
		return
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := invoicedomain.InvoiceStatus(strings.ToUpper(raw))
		if status != invoicedomain.InvoiceStatusPaid && status != invoicedomain.InvoiceStatusUnpaid {
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
			return
		}
		req.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("customer_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer id"))
			return
		}
		customerID := int64(id)
		req.CustomerID = &customerID
	}
	if raw := strings.TrimSpace(c.Query("issued_from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("issued_from", "invalid_date", "expected RFC3339 timestamp"))
			return
		}
		req.IssuedFrom = &from
	}
	if raw := strings.TrimSpace(c.Query("issued_to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("issued_to", "invalid_date", "expected RFC3339 timestamp"))
			return
		}
		req.IssuedTo = &to
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "page_info": resp.PageInfo})
}

func (s *Server) GetInvoiceByNumber(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if !invoicenumber.Valid(number) {
		AbortWithError(c, newValidationError("number", "invalid_invoice_number", "invalid invoice number"))
		return
	}

	item, err := s.invoiceSvc.GetByNumber(c.Request.Context(), number)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

// GetInvoiceReceipt streams a rendered PDF receipt for the invoice.
func (s *Server) GetInvoiceReceipt(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if !invoicenumber.Valid(number) {
		AbortWithError(c, newValidationError("number", "invalid_invoice_number", "invalid invoice number"))
		return
	}

	item, err := s.invoiceSvc.GetByNumber(c.Request.Context(), number)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := s.receipts.GenerateReceipt(c.Request.Context(), item, s.storeProfile.Get())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+number+`.pdf"`)
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}
