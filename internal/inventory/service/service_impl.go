package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	inventorydomain "github.com/smallbiznis/gomart/internal/inventory/domain"
	"github.com/smallbiznis/gomart/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	metrics *metrics.Metrics
}

func NewService(p ServiceParam) inventorydomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("inventory.service"),
		genID:   p.GenID,
		metrics: p.Metrics,
	}
}

// StockOut decrements on-hand quantity and records the movement. The guarded
// UPDATE only matches when enough stock remains, so concurrent deductions
// cannot drive the balance negative.
func (s *Service) StockOut(ctx context.Context, tx *gorm.DB, productUnitID snowflake.ID, quantity int64, referenceCode, reason string) error {
	if quantity <= 0 {
		return inventorydomain.ErrInvalidQuantity
	}
	if tx == nil {
		tx = s.db
	}

	result := tx.WithContext(ctx).Exec(
		`UPDATE stock_balances
		 SET on_hand = on_hand - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE product_unit_id = ? AND on_hand >= ?`,
		quantity,
		productUnitID,
		quantity,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		exists, err := s.balanceExists(ctx, tx, productUnitID)
		if err != nil {
			return err
		}
		if !exists {
			return inventorydomain.ErrUnknownProductUnit
		}
		return inventorydomain.ErrInsufficientStock
	}

	if err := s.recordMovement(ctx, tx, productUnitID, inventorydomain.MovementStockOut, quantity, referenceCode, reason); err != nil {
		return err
	}

	s.metrics.RecordStockMovement(ctx, string(inventorydomain.MovementStockOut))
	return nil
}

// StockIn increments on-hand quantity, creating the balance row on first use.
func (s *Service) StockIn(ctx context.Context, tx *gorm.DB, productUnitID snowflake.ID, quantity int64, referenceCode, reason string) error {
	if quantity <= 0 {
		return inventorydomain.ErrInvalidQuantity
	}
	if tx == nil {
		tx = s.db
	}

	result := tx.WithContext(ctx).Exec(
		`UPDATE stock_balances
		 SET on_hand = on_hand + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE product_unit_id = ?`,
		quantity,
		productUnitID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if err := tx.WithContext(ctx).Create(&inventorydomain.StockBalance{
			ProductUnitID: productUnitID,
			OnHand:        quantity,
		}).Error; err != nil {
			return err
		}
	}

	if err := s.recordMovement(ctx, tx, productUnitID, inventorydomain.MovementStockIn, quantity, referenceCode, reason); err != nil {
		return err
	}

	s.metrics.RecordStockMovement(ctx, string(inventorydomain.MovementStockIn))
	return nil
}

// OnHand returns the current balance for a product unit.
func (s *Service) OnHand(ctx context.Context, productUnitID snowflake.ID) (int64, error) {
	var balance inventorydomain.StockBalance
	err := s.db.WithContext(ctx).First(&balance, "product_unit_id = ?", productUnitID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, inventorydomain.ErrUnknownProductUnit
		}
		return 0, err
	}
	return balance.OnHand, nil
}

func (s *Service) balanceExists(ctx context.Context, tx *gorm.DB, productUnitID snowflake.ID) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&inventorydomain.StockBalance{}).
		Where("product_unit_id = ?", productUnitID).
		Count(&count).Error
	return count > 0, err
}

func (s *Service) recordMovement(ctx context.Context, tx *gorm.DB, productUnitID snowflake.ID, movementType inventorydomain.MovementType, quantity int64, referenceCode, reason string) error {
	return tx.WithContext(ctx).Create(&inventorydomain.StockMovement{
		ID:            s.genID.Generate(),
		ProductUnitID: productUnitID,
		MovementType:  movementType,
		Quantity:      quantity,
		ReferenceCode: referenceCode,
		Reason:        reason,
	}).Error
}
