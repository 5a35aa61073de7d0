package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetOnHand(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("productUnitID"))
	productUnitID, err := snowflake.ParseString(raw)
	if err != nil {
		AbortWithError(c, newValidationError("productUnitID", "invalid_product_unit_id", "invalid product unit id"))
		return
	}

	onHand, err := s.inventorySvc.OnHand(c.Request.Context(), productUnitID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"product_unit_id": productUnitID.String(),
		"on_hand":         onHand,
	}})
}
