package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	inventorydomain "github.com/smallbiznis/gomart/internal/inventory/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newInventoryService(t *testing.T) (inventorydomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&inventorydomain.StockBalance{},
		&inventorydomain.StockMovement{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
	return svc, db, node
}

func TestStockIn_CreatesBalanceOnFirstUse(t *testing.T) {
	svc, db, node := newInventoryService(t)
	unit := node.Generate()

	require.NoError(t, svc.StockIn(context.Background(), nil, unit, 7, "PO-1", "initial receipt"))

	onHand, err := svc.OnHand(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, int64(7), onHand)

	require.NoError(t, svc.StockIn(context.Background(), nil, unit, 3, "PO-2", "restock"))
	onHand, err = svc.OnHand(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, int64(10), onHand)

	var movements []inventorydomain.StockMovement
	require.NoError(t, db.Order("created_at ASC").Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, inventorydomain.MovementStockIn, movements[0].MovementType)
	assert.Equal(t, "PO-1", movements[0].ReferenceCode)
}

func TestStockOut_DecrementsAndRecordsMovement(t *testing.T) {
	svc, db, node := newInventoryService(t)
	unit := node.Generate()
	require.NoError(t, svc.StockIn(context.Background(), nil, unit, 10, "PO-1", "initial"))

	require.NoError(t, svc.StockOut(context.Background(), nil, unit, 4, "INV-1", "sale"))

	onHand, err := svc.OnHand(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, int64(6), onHand)

	var movement inventorydomain.StockMovement
	require.NoError(t, db.First(&movement, "movement_type = ?", inventorydomain.MovementStockOut).Error)
	assert.Equal(t, int64(4), movement.Quantity)
	assert.Equal(t, "INV-1", movement.ReferenceCode)
}

func TestStockOut_InsufficientStock(t *testing.T) {
	svc, db, node := newInventoryService(t)
	unit := node.Generate()
	require.NoError(t, svc.StockIn(context.Background(), nil, unit, 2, "PO-1", "initial"))

	err := svc.StockOut(context.Background(), nil, unit, 3, "INV-1", "sale")
	assert.ErrorIs(t, err, inventorydomain.ErrInsufficientStock)

	onHand, err := svc.OnHand(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, int64(2), onHand)

	var count int64
	require.NoError(t, db.Model(&inventorydomain.StockMovement{}).
		Where("movement_type = ?", inventorydomain.MovementStockOut).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestStockOut_UnknownProductUnit(t *testing.T) {
	svc, _, node := newInventoryService(t)

	err := svc.StockOut(context.Background(), nil, node.Generate(), 1, "INV-1", "sale")
	assert.ErrorIs(t, err, inventorydomain.ErrUnknownProductUnit)
}

func TestStockMutations_RejectNonPositiveQuantity(t *testing.T) {
	svc, _, node := newInventoryService(t)
	unit := node.Generate()

	assert.ErrorIs(t, svc.StockOut(context.Background(), nil, unit, 0, "INV-1", ""), inventorydomain.ErrInvalidQuantity)
	assert.ErrorIs(t, svc.StockIn(context.Background(), nil, unit, -1, "PO-1", ""), inventorydomain.ErrInvalidQuantity)
}

func TestOnHand_UnknownProductUnit(t *testing.T) {
	svc, _, node := newInventoryService(t)

	_, err := svc.OnHand(context.Background(), node.Generate())
	assert.ErrorIs(t, err, inventorydomain.ErrUnknownProductUnit)
}
