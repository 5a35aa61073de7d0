// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus represents invoice payment states.
type InvoiceStatus string

const (
	InvoiceStatusPaid   InvoiceStatus = "PAID"
	InvoiceStatusUnpaid InvoiceStatus = "UNPAID"
)

// Invoice is the header generated exactly once per completed order.
type Invoice struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceNumber  string        `gorm:"type:text;not null;uniqueIndex:ux_invoices_number" json:"invoice_number"`
	OrderID        snowflake.ID  `gorm:"not null;uniqueIndex:ux_invoices_order" json:"order_id"`
	CustomerID     snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	EmployeeID     snowflake.ID  `gorm:"not null;index" json:"employee_id"`
	Status         InvoiceStatus `gorm:"type:text;not null;default:'UNPAID'" json:"status"`
	SubtotalAmount int64         `gorm:"not null;default:0" json:"subtotal_amount"`
	DiscountAmount int64         `gorm:"not null;default:0" json:"discount_amount"`
	TaxAmount      int64         `gorm:"not null;default:0" json:"tax_amount"`
	TotalAmount    int64         `gorm:"not null;default:0" json:"total_amount"`
	PaidAmount     int64         `gorm:"not null;default:0" json:"paid_amount"`
	IssuedAt       time.Time     `gorm:"not null" json:"issued_at"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Details []InvoiceDetail `gorm:"foreignKey:InvoiceID" json:"details,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceDetail is one invoice line. Rows are persisted in order-line order
// and Position records that ordering; promotion attachment depends on it.
type InvoiceDetail struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID        snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	LineID           string       `gorm:"type:text;not null" json:"line_id"`
	ProductUnitID    snowflake.ID `gorm:"not null" json:"product_unit_id"`
	Quantity         int64        `gorm:"not null" json:"quantity"`
	UnitPrice        int64        `gorm:"not null" json:"unit_price"`
	DiscountAmount   int64        `gorm:"not null;default:0" json:"discount_amount"`
	LineTotal        int64        `gorm:"not null" json:"line_total"`
	TaxAmount        int64        `gorm:"not null;default:0" json:"tax_amount"`
	LineTotalWithTax int64        `gorm:"not null" json:"line_total_with_tax"`
	Position         int          `gorm:"not null" json:"position"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceDetail) TableName() string { return "invoice_details" }
