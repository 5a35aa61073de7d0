package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	invoicenumber "github.com/smallbiznis/gomart/internal/invoice/number"
	promotiondomain "github.com/smallbiznis/gomart/internal/promotion/domain"
)

type savePromotionsRequest struct {
	OrderPromotions []promotiondomain.PromotionInput              `json:"order_promotions"`
	ItemPromotions  map[string]promotiondomain.ItemPromotionInput `json:"item_promotions"`
}

// SaveInvoicePromotions records which promotions were applied at checkout.
// Item promotions are keyed by the zero-based position of the invoice line.
func (s *Server) SaveInvoicePromotions(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if !invoicenumber.Valid(number) {
		AbortWithError(c, newValidationError("number", "invalid_invoice_number", "invalid invoice number"))
		return
	}

	var req savePromotionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "invalid request body"))
		return
	}

	// JSON object keys are strings; convert to line positions here so the
	// service keeps its integer-keyed contract.
	itemPromotions := make(map[int]promotiondomain.ItemPromotionInput, len(req.ItemPromotions))
	for key, input := range req.ItemPromotions {
		index, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			AbortWithError(c, newValidationError("item_promotions", "invalid_index", "item promotion keys must be integers"))
			return
		}
		itemPromotions[index] = input
	}

	if err := s.promotionSvc.SaveApplied(c.Request.Context(), number, req.OrderPromotions, itemPromotions); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"invoice_number": number}})
}

func (s *Server) ListInvoicePromotions(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if !invoicenumber.Valid(number) {
		AbortWithError(c, newValidationError("number", "invalid_invoice_number", "invalid invoice number"))
		return
	}

	applied, err := s.promotionSvc.ListByInvoice(c.Request.Context(), number)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": applied})
}
