package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// GetDailySalesReport returns the sales summary for one calendar day. The
// date query parameter defaults to today (UTC) when omitted.
func (s *Server) GetDailySalesReport(c *gin.Context) {
	day := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			AbortWithError(c, newValidationError("date", "invalid_date", "expected YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	summary, err := s.reportSvc.DailySales(c.Request.Context(), day)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
