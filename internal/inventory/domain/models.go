// Package domain contains persistence models for on-hand stock.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// MovementType classifies stock movements.
type MovementType string

const (
	MovementStockIn  MovementType = "STOCK_IN"
	MovementStockOut MovementType = "STOCK_OUT"
)

// StockBalance tracks on-hand quantity per product unit.
type StockBalance struct {
	ProductUnitID snowflake.ID `gorm:"primaryKey" json:"product_unit_id"`
	OnHand        int64        `gorm:"not null;default:0" json:"on_hand"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (StockBalance) TableName() string { return "stock_balances" }

// StockMovement is the audit record for every stock change. ReferenceCode
// carries the document that caused the movement, such as an invoice number.
type StockMovement struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ProductUnitID snowflake.ID `gorm:"not null;index" json:"product_unit_id"`
	MovementType  MovementType `gorm:"type:text;not null" json:"movement_type"`
	Quantity      int64        `gorm:"not null" json:"quantity"`
	ReferenceCode string       `gorm:"type:text;not null;index" json:"reference_code"`
	Reason        string       `gorm:"type:text;not null;default:''" json:"reason"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (StockMovement) TableName() string { return "stock_movements" }

var (
	ErrUnknownProductUnit = errors.New("unknown_product_unit")
	ErrInsufficientStock  = errors.New("insufficient_stock")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
)

// Service mutates inventory. StockOut joins the caller's transaction so a
// failed invoice run rolls the deduction back together with everything else.
type Service interface {
	StockOut(ctx context.Context, tx *gorm.DB, productUnitID snowflake.ID, quantity int64, referenceCode, reason string) error
	StockIn(ctx context.Context, tx *gorm.DB, productUnitID snowflake.ID, quantity int64, referenceCode, reason string) error
	OnHand(ctx context.Context, productUnitID snowflake.ID) (int64, error)
}
