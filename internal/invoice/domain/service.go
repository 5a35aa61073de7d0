package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/gomart/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	Status     *InvoiceStatus
	CustomerID *int64
	IssuedFrom *time.Time
	IssuedTo   *time.Time

	pagination.Pagination
}

type ListInvoiceResponse struct {
	Invoices []Invoice            `json:"invoices"`
	PageInfo *pagination.PageInfo `json:"page_info,omitempty"`
}

// Service generates and reads invoices.
type Service interface {
	// GenerateForOrder converts a COMPLETED order into a persisted invoice
	// and returns the invoice number. Calling it again for the same order
	// returns the existing number without new writes.
	GenerateForOrder(ctx context.Context, orderID string) (string, error)
	GetByNumber(ctx context.Context, invoiceNumber string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
}

var (
	ErrInvalidOrderID    = errors.New("invalid_order_id")
	ErrOrderNotFound     = errors.New("order_not_found")
	ErrOrderNotCompleted = errors.New("order_not_completed")
	ErrOrderHasNoItems   = errors.New("order_has_no_items")
	ErrInvoiceNotFound   = errors.New("invoice_not_found")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrNumberExhausted   = errors.New("invoice_number_exhausted")
)
