// Package domain contains persistence models for applied promotions.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrderPromotion records a promotion applied to a whole invoice.
type OrderPromotion struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID         snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	PromotionID       snowflake.ID `gorm:"not null" json:"promotion_id"`
	PromotionName     string       `gorm:"type:text;not null" json:"promotion_name"`
	PromotionDetailID snowflake.ID `gorm:"not null;default:0" json:"promotion_detail_id"`
	Summary           string       `gorm:"type:text;not null;default:''" json:"summary"`
	DiscountType      string       `gorm:"type:text;not null" json:"discount_type"`
	DiscountValue     int64        `gorm:"not null;default:0" json:"discount_value"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrderPromotion) TableName() string { return "invoice_order_promotions" }

// ItemPromotion records a promotion applied to a single invoice detail row.
// LineID carries the originating order line identifier so a misattributed
// positional match can be detected after the fact.
type ItemPromotion struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceDetailID   snowflake.ID `gorm:"not null;index" json:"invoice_detail_id"`
	LineID            string       `gorm:"type:text;not null;default:''" json:"line_id"`
	PromotionID       snowflake.ID `gorm:"not null" json:"promotion_id"`
	PromotionName     string       `gorm:"type:text;not null" json:"promotion_name"`
	PromotionDetailID snowflake.ID `gorm:"not null;default:0" json:"promotion_detail_id"`
	Summary           string       `gorm:"type:text;not null;default:''" json:"summary"`
	DiscountType      string       `gorm:"type:text;not null" json:"discount_type"`
	DiscountValue     int64        `gorm:"not null;default:0" json:"discount_value"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ItemPromotion) TableName() string { return "invoice_item_promotions" }

// PromotionInput carries the promotion metadata selected at checkout.
type PromotionInput struct {
	PromotionID       snowflake.ID `json:"promotion_id"`
	PromotionName     string       `json:"promotion_name"`
	PromotionDetailID snowflake.ID `json:"promotion_detail_id"`
	Summary           string       `json:"summary"`
	DiscountType      string       `json:"discount_type"`
	DiscountValue     int64        `json:"discount_value"`
}

// ItemPromotionInput is a promotion targeted at one order line. LineID is
// the stable line identifier; the map key used by SaveApplied remains the
// zero-based detail position for compatibility with existing callers.
type ItemPromotionInput struct {
	PromotionInput
	LineID string `json:"line_id"`
}

// Service persists which promotions were applied to an invoice. It never
// recomputes money; totals were settled upstream at checkout.
type Service interface {
	SaveApplied(ctx context.Context, invoiceNumber string, orderPromotions []PromotionInput, itemPromotions map[int]ItemPromotionInput) error
	ListByInvoice(ctx context.Context, invoiceNumber string) (AppliedPromotions, error)
}

// AppliedPromotions groups everything recorded for one invoice.
type AppliedPromotions struct {
	OrderPromotions []OrderPromotion `json:"order_promotions"`
	ItemPromotions  []ItemPromotion  `json:"item_promotions"`
}
