package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/gomart/internal/clock"
	invoicedomain "github.com/smallbiznis/gomart/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/gomart/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type paymentTestEnv struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   paymentdomain.Service
}

func newPaymentTestEnv(t *testing.T) *paymentTestEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC))

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
	})

	return &paymentTestEnv{db: db, node: node, clock: clk, svc: svc}
}

func (e *paymentTestEnv) seedInvoice(t *testing.T, status invoicedomain.InvoiceStatus, total int64) invoicedomain.Invoice {
	t.Helper()

	invoice := invoicedomain.Invoice{
		ID:            e.node.Generate(),
		InvoiceNumber: fmt.Sprintf("INV20250314150926%04d", e.node.Generate()%10000),
		OrderID:       e.node.Generate(),
		CustomerID:    e.node.Generate(),
		EmployeeID:    e.node.Generate(),
		Status:        status,
		TotalAmount:   total,
		IssuedAt:      e.clock.Now(),
	}
	require.NoError(t, e.db.Create(&invoice).Error)
	return invoice
}

func TestConfirm_TransitionsUnpaidToPaid(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t, invoicedomain.InvoiceStatusUnpaid, 24000)

	payment, err := env.svc.Confirm(context.Background(), invoice.InvoiceNumber, paymentdomain.ConfirmRequest{
		Method:    "CASH",
		Amount:    24000,
		Reference: "till-7",
	})
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, payment.InvoiceID)
	assert.Equal(t, int64(24000), payment.Amount)

	var updated invoicedomain.Invoice
	require.NoError(t, env.db.First(&updated, "id = ?", invoice.ID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, updated.Status)
	assert.Equal(t, int64(24000), updated.PaidAmount)
	require.NotNil(t, updated.PaidAt)
	assert.WithinDuration(t, env.clock.Now(), *updated.PaidAt, time.Second)
}

func TestConfirm_InvoiceNotFound(t *testing.T) {
	env := newPaymentTestEnv(t)

	_, err := env.svc.Confirm(context.Background(), "INV202503141509260000", paymentdomain.ConfirmRequest{
		Method: "CASH",
		Amount: 1000,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

func TestConfirm_RejectsAlreadyPaid(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t, invoicedomain.InvoiceStatusPaid, 5000)

	_, err := env.svc.Confirm(context.Background(), invoice.InvoiceNumber, paymentdomain.ConfirmRequest{
		Method: "CASH",
		Amount: 5000,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrAlreadyPaid)

	var count int64
	require.NoError(t, env.db.Model(&paymentdomain.Payment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConfirm_RejectsAmountMismatch(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t, invoicedomain.InvoiceStatusUnpaid, 5000)

	_, err := env.svc.Confirm(context.Background(), invoice.InvoiceNumber, paymentdomain.ConfirmRequest{
		Method: "CASH",
		Amount: 4000,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrAmountMismatch)

	var updated invoicedomain.Invoice
	require.NoError(t, env.db.First(&updated, "id = ?", invoice.ID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusUnpaid, updated.Status)
}

func TestConfirm_ValidatesRequest(t *testing.T) {
	env := newPaymentTestEnv(t)

	_, err := env.svc.Confirm(context.Background(), "INV202503141509260000", paymentdomain.ConfirmRequest{Amount: 100})
	assert.ErrorIs(t, err, paymentdomain.ErrMissingMethod)

	_, err = env.svc.Confirm(context.Background(), "INV202503141509260000", paymentdomain.ConfirmRequest{Method: "CASH"})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidAmount)
}

func TestListByInvoice_ReturnsPayments(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t, invoicedomain.InvoiceStatusUnpaid, 3000)

	_, err := env.svc.Confirm(context.Background(), invoice.InvoiceNumber, paymentdomain.ConfirmRequest{
		Method: "QR",
		Amount: 3000,
	})
	require.NoError(t, err)

	payments, err := env.svc.ListByInvoice(context.Background(), invoice.InvoiceNumber)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "QR", payments[0].Method)
}
