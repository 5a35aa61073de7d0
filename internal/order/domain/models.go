// Package domain contains persistence models for checkout orders.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
)

// OrderStatus represents order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is a checkout order produced by the POS workflow. Once COMPLETED it
// is immutable as far as invoicing is concerned.
type Order struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID     snowflake.ID `gorm:"not null;index" json:"customer_id"`
	EmployeeID     snowflake.ID `gorm:"not null;index" json:"employee_id"`
	Status         OrderStatus  `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	SubtotalAmount int64        `gorm:"not null;default:0" json:"subtotal_amount"`
	TotalAmount    int64        `gorm:"not null;default:0" json:"total_amount"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// OrderItem is a single order line. LineID is a stable identifier assigned
// at line creation; downstream records reference it instead of relying on
// array position alone.
type OrderItem struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID        snowflake.ID `gorm:"not null;index" json:"order_id"`
	LineID         string       `gorm:"type:text;not null;uniqueIndex:ux_order_items_line" json:"line_id"`
	ProductUnitID  snowflake.ID `gorm:"not null" json:"product_unit_id"`
	Quantity       int64        `gorm:"not null" json:"quantity"`
	UnitPrice      int64        `gorm:"not null" json:"unit_price"`
	DiscountAmount int64        `gorm:"not null;default:0" json:"discount_amount"`
	Position       int          `gorm:"not null" json:"position"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }

// NewLineID mints a stable order line identifier.
func NewLineID() string {
	return ulid.Make().String()
}
