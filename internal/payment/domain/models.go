// Package domain contains payment persistence models.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Payment is one recorded payment event against an invoice.
type Payment struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"id"`
	InvoiceID  snowflake.ID   `gorm:"not null;index" json:"invoice_id"`
	Method     string         `gorm:"type:text;not null" json:"method"`
	Amount     int64          `gorm:"not null" json:"amount"`
	Reference  string         `gorm:"type:text;not null;default:''" json:"reference"`
	Payload    datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	ReceivedAt time.Time      `gorm:"not null" json:"received_at"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// ConfirmRequest is the payload accepted when confirming an invoice payment.
type ConfirmRequest struct {
	Method    string         `json:"method" binding:"required"`
	Amount    int64          `json:"amount" binding:"required"`
	Reference string         `json:"reference"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
}

// Service confirms payments against unpaid invoices.
type Service interface {
	Confirm(ctx context.Context, invoiceNumber string, req ConfirmRequest) (Payment, error)
	ListByInvoice(ctx context.Context, invoiceNumber string) ([]Payment, error)
}

var (
	ErrAlreadyPaid    = errors.New("invoice_already_paid")
	ErrAmountMismatch = errors.New("payment_amount_mismatch")
	ErrInvalidAmount  = errors.New("invalid_payment_amount")
	ErrMissingMethod  = errors.New("missing_payment_method")
)
