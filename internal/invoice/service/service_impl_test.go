package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/gomart/internal/clock"
	inventorydomain "github.com/smallbiznis/gomart/internal/inventory/domain"
	inventoryservice "github.com/smallbiznis/gomart/internal/inventory/service"
	invoicedomain "github.com/smallbiznis/gomart/internal/invoice/domain"
	"github.com/smallbiznis/gomart/internal/invoice/number"
	orderdomain "github.com/smallbiznis/gomart/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	numbers *number.Generator
	svc     invoicedomain.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&inventorydomain.StockBalance{},
		&inventorydomain.StockMovement{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceDetail{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	logger := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC))
	numbers := number.NewGeneratorWithSource(clk, rand.NewSource(42))

	inventorySvc := inventoryservice.NewService(inventoryservice.ServiceParam{
		DB:    db,
		Log:   logger,
		GenID: node,
	})

	svc := NewService(ServiceParam{
		DB:           db,
		Log:          logger,
		GenID:        node,
		Clock:        clk,
		Numbers:      numbers,
		InventorySvc: inventorySvc,
	})

	return &testEnv{
		db:      db,
		node:    node,
		clock:   clk,
		numbers: numbers,
		svc:     svc,
	}
}

func (e *testEnv) seedOrder(t *testing.T, status orderdomain.OrderStatus, items []orderdomain.OrderItem) orderdomain.Order {
	t.Helper()

	var subtotal, discount int64
	for i := range items {
		subtotal += items[i].UnitPrice * items[i].Quantity
		discount += items[i].DiscountAmount
	}

	order := orderdomain.Order{
		ID:             e.node.Generate(),
		CustomerID:     e.node.Generate(),
		EmployeeID:     e.node.Generate(),
		Status:         status,
		SubtotalAmount: subtotal,
		TotalAmount:    subtotal - discount,
	}
	require.NoError(t, e.db.Create(&order).Error)

	for i := range items {
		items[i].ID = e.node.Generate()
		items[i].OrderID = order.ID
		items[i].LineID = orderdomain.NewLineID()
		items[i].Position = i
		require.NoError(t, e.db.Create(&items[i]).Error)
	}
	return order
}

func (e *testEnv) seedStock(t *testing.T, productUnitID snowflake.ID, onHand int64) {
	t.Helper()
	require.NoError(t, e.db.Create(&inventorydomain.StockBalance{
		ProductUnitID: productUnitID,
		OnHand:        onHand,
	}).Error)
}

func (e *testEnv) onHand(t *testing.T, productUnitID snowflake.ID) int64 {
	t.Helper()
	var balance inventorydomain.StockBalance
	require.NoError(t, e.db.First(&balance, "product_unit_id = ?", productUnitID).Error)
	return balance.OnHand
}

func TestGenerateForOrder_CreatesInvoice(t *testing.T) {
	env := newTestEnv(t)
	unitA := env.node.Generate()
	unitB := env.node.Generate()
	env.seedStock(t, unitA, 10)
	env.seedStock(t, unitB, 10)

	order := env.seedOrder(t, orderdomain.OrderStatusCompleted, []orderdomain.OrderItem{
		{ProductUnitID: unitA, Quantity: 2, UnitPrice: 10000, DiscountAmount: 1000},
		{ProductUnitID: unitB, Quantity: 1, UnitPrice: 5000},
	})

	got, err := env.svc.GenerateForOrder(context.Background(), order.ID.String())
	require.NoError(t, err)
	assert.Len(t, got, 21)
	assert.True(t, number.Valid(got))

	invoice, err := env.svc.GetByNumber(context.Background(), got)
	require.NoError(t, err)
	assert.Equal(t, order.ID, invoice.OrderID)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, invoice.Status)
	assert.Equal(t, int64(25000), invoice.SubtotalAmount)
	assert.Equal(t, int64(1000), invoice.DiscountAmount)
	assert.Equal(t, int64(0), invoice.TaxAmount)
	assert.Equal(t, int64(24000), invoice.TotalAmount)
	assert.Equal(t, int64(24000), invoice.PaidAmount)
	assert.WithinDuration(t, env.clock.Now(), invoice.IssuedAt, time.Second)

	require.Len(t, invoice.Details, 2)
	assert.Equal(t, int64(19000), invoice.Details[0].LineTotal)
	assert.Equal(t, int64(19000), invoice.Details[0].LineTotalWithTax)
	assert.Equal(t, 0, invoice.Details[0].Position)
	assert.NotEmpty(t, invoice.Details[0].LineID)
	assert.Equal(t, int64(5000), invoice.Details[1].LineTotal)
	assert.Equal(t, 1, invoice.Details[1].Position)

	assert.Equal(t, int64(8), env.onHand(t, unitA))
	assert.Equal(t, int64(9), env.onHand(t, unitB))
}

func TestGenerateForOrder_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	unit := env.node.Generate()
	env.seedStock(t, unit, 5)

	order := env.seedOrder(t, orderdomain.OrderStatusCompleted, []orderdomain.OrderItem{
		{ProductUnitID: unit, Quantity: 2, UnitPrice: 3000},
	})

	first, err := env.svc.GenerateForOrder(context.Background(), order.ID.String())
	require.NoError(t, err)

	second, err := env.svc.GenerateForOrder(context.Background(), order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var invoiceCount int64
	require.NoError(t, env.db.Model(&invoicedomain.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(1), invoiceCount)

	// Stock must be deducted exactly once.
	assert.Equal(t, int64(3), env.onHand(t, unit))

	var movementCount int64
	require.NoError(t, env.db.Model(&inventorydomain.StockMovement{}).Count(&movementCount).Error)
	assert.Equal(t, int64(1), movementCount)
}

func TestGenerateForOrder_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GenerateForOrder(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidOrderID)
}

func TestGenerateForOrder_OrderNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GenerateForOrder(context.Background(), env.node.Generate().String())
	assert.ErrorIs(t, err, invoicedomain.ErrOrderNotFound)
}

func TestGenerateForOrder_RejectsNotCompleted(t *testing.T) {
	env := newTestEnv(t)
	unit := env.node.Generate()
	env.seedStock(t, unit, 5)

	for _, status := range []orderdomain.OrderStatus{orderdomain.OrderStatusPending, orderdomain.OrderStatusCancelled} {
		order := env.seedOrder(t, status, []orderdomain.OrderItem{
			{ProductUnitID: unit, Quantity: 1, UnitPrice: 1000},
		})

		_, err := env.svc.GenerateForOrder(context.Background(), order.ID.String())
		assert.ErrorIs(t, err, invoicedomain.ErrOrderNotCompleted, "status %s", status)
	}

	assert.Equal(t, int64(5), env.onHand(t, unit))
}

func TestGenerateForOrder_RejectsEmptyOrder(t *testing.T) {
	env := newTestEnv(t)

	order := env.seedOrder(t, orderdomain.OrderStatusCompleted, nil)

	_, err := env.svc.GenerateForOrder(context.Background(), order.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrOrderHasNoItems)
}

func TestGenerateForOrder_InsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t)
	unitA := env.node.Generate()
	unitB := env.node.Generate()
	env.seedStock(t, unitA, 10)
	env.seedStock(t, unitB, 1)

	order := env.seedOrder(t, orderdomain.OrderStatusCompleted, []orderdomain.OrderItem{
		{ProductUnitID: unitA, Quantity: 2, UnitPrice: 10000},
		{ProductUnitID: unitB, Quantity: 5, UnitPrice: 5000},
	})

	_, err := env.svc.GenerateForOrder(context.Background(), order.ID.String())
	assert.ErrorIs(t, err, inventorydomain.ErrInsufficientStock)

	// The first line's deduction must be rolled back with everything else.
	assert.Equal(t, int64(10), env.onHand(t, unitA))
	assert.Equal(t, int64(1), env.onHand(t, unitB))

	var invoiceCount, movementCount int64
	require.NoError(t, env.db.Model(&invoicedomain.Invoice{}).Count(&invoiceCount).Error)
	require.NoError(t, env.db.Model(&inventorydomain.StockMovement{}).Count(&movementCount).Error)
	assert.Zero(t, invoiceCount)
	assert.Zero(t, movementCount)
}

func TestGenerateForOrder_RetriesOnNumberCollision(t *testing.T) {
	env := newTestEnv(t)
	unit := env.node.Generate()
	env.seedStock(t, unit, 5)

	// Predict the generator's first candidate and occupy it.
	taken := number.NewGeneratorWithSource(env.clock, rand.NewSource(42)).Next()
	require.NoError(t, env.db.Create(&invoicedomain.Invoice{
		ID:            env.node.Generate(),
		InvoiceNumber: taken,
		OrderID:       env.node.Generate(),
		CustomerID:    env.node.Generate(),
		EmployeeID:    env.node.Generate(),
		Status:        invoicedomain.InvoiceStatusPaid,
		IssuedAt:      env.clock.Now(),
	}).Error)

	order := env.seedOrder(t, orderdomain.OrderStatusCompleted, []orderdomain.OrderItem{
		{ProductUnitID: unit, Quantity: 1, UnitPrice: 2000},
	})

	got, err := env.svc.GenerateForOrder(context.Background(), order.ID.String())
	require.NoError(t, err)
	assert.NotEqual(t, taken, got)
	assert.True(t, number.Valid(got))
}

func TestGetByNumber_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetByNumber(context.Background(), "INV202503141509260000")
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

func TestList_FiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	unit := env.node.Generate()
	env.seedStock(t, unit, 10)

	order := env.seedOrder(t, orderdomain.OrderStatusCompleted, []orderdomain.OrderItem{
		{ProductUnitID: unit, Quantity: 1, UnitPrice: 2000},
	})
	_, err := env.svc.GenerateForOrder(context.Background(), order.ID.String())
	require.NoError(t, err)

	paid := invoicedomain.InvoiceStatusPaid
	resp, err := env.svc.List(context.Background(), invoicedomain.ListInvoiceRequest{Status: &paid})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 1)

	unpaid := invoicedomain.InvoiceStatusUnpaid
	resp, err = env.svc.List(context.Background(), invoicedomain.ListInvoiceRequest{Status: &unpaid})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)
}

func TestList_PaginatesWithCursor(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, env.db.Create(&invoicedomain.Invoice{
			ID:            env.node.Generate(),
			InvoiceNumber: fmt.Sprintf("INV2025031415092600%02d", i),
			OrderID:       env.node.Generate(),
			CustomerID:    env.node.Generate(),
			EmployeeID:    env.node.Generate(),
			Status:        invoicedomain.InvoiceStatusPaid,
			IssuedAt:      env.clock.Now(),
		}).Error)
	}

	req := invoicedomain.ListInvoiceRequest{}
	req.PageSize = 2
	first, err := env.svc.List(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, first.Invoices, 2)
	require.NotNil(t, first.PageInfo)
	assert.True(t, first.PageInfo.HasMore)
	require.NotEmpty(t, first.PageInfo.NextPageToken)

	req.PageToken = first.PageInfo.NextPageToken
	second, err := env.svc.List(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, second.Invoices, 1)
	require.NotNil(t, second.PageInfo)
	assert.False(t, second.PageInfo.HasMore)

	// Pages must not overlap.
	assert.NotEqual(t, first.Invoices[0].ID, second.Invoices[0].ID)
	assert.NotEqual(t, first.Invoices[1].ID, second.Invoices[0].ID)

	req.PageToken = "not-base64!"
	_, err = env.svc.List(context.Background(), req)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPageToken)
}
