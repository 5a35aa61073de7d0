// Package seed loads demo data for local development.
package seed

import (
	"context"
	"errors"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	inventorydomain "github.com/smallbiznis/gomart/internal/inventory/domain"
	orderdomain "github.com/smallbiznis/gomart/internal/order/domain"
	"gorm.io/gorm"
)

// Enabled reports whether demo seeding was requested via SEED_DEMO_DATA.
func Enabled() bool {
	enabled, _ := strconv.ParseBool(os.Getenv("SEED_DEMO_DATA"))
	return enabled
}

type demoItem struct {
	quantity  int64
	unitPrice int64
	discount  int64
	onHand    int64
}

// EnsureDemoData seeds stock balances and one completed order so a fresh
// environment can exercise invoicing immediately. It is a no-op when orders
// already exist.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&orderdomain.Order{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		items := []demoItem{
			{quantity: 2, unitPrice: 10000, discount: 1000, onHand: 50},
			{quantity: 1, unitPrice: 5000, onHand: 20},
		}

		var subtotal, discount int64
		for _, item := range items {
			subtotal += item.unitPrice * item.quantity
			discount += item.discount
		}

		order := orderdomain.Order{
			ID:             node.Generate(),
			CustomerID:     node.Generate(),
			EmployeeID:     node.Generate(),
			Status:         orderdomain.OrderStatusCompleted,
			SubtotalAmount: subtotal,
			TotalAmount:    subtotal - discount,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for position, item := range items {
			productUnitID := node.Generate()
			if err := tx.Create(&inventorydomain.StockBalance{
				ProductUnitID: productUnitID,
				OnHand:        item.onHand,
			}).Error; err != nil {
				return err
			}
			if err := tx.Create(&orderdomain.OrderItem{
				ID:             node.Generate(),
				OrderID:        order.ID,
				LineID:         orderdomain.NewLineID(),
				ProductUnitID:  productUnitID,
				Quantity:       item.quantity,
				UnitPrice:      item.unitPrice,
				DiscountAmount: item.discount,
				Position:       position,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
