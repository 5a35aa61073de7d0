// Package domain contains sales reporting types.
package domain

import (
	"context"
	"errors"
	"time"
)

// DailySales is the aggregated sales summary for one calendar day.
type DailySales struct {
	Date           string `json:"date"`
	InvoiceCount   int64  `json:"invoice_count"`
	GrossAmount    int64  `json:"gross_amount"`
	DiscountAmount int64  `json:"discount_amount"`
	NetAmount      int64  `json:"net_amount"`
	PaidAmount     int64  `json:"paid_amount"`
}

// Service computes sales summaries over issued invoices.
type Service interface {
	DailySales(ctx context.Context, day time.Time) (DailySales, error)
}

var ErrInvalidDate = errors.New("invalid_report_date")
