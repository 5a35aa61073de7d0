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
	reportdomain "github.com/smallbiznis/gomart/internal/report/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newReportService(t *testing.T) (reportdomain.Service, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&invoicedomain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC))

	// No Redis client: the service must compute straight from the database.
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clk,
	})
	return svc, db, node, clk
}

func seedInvoiceAt(t *testing.T, db *gorm.DB, node *snowflake.Node, issuedAt time.Time, subtotal, discount, total, paid int64) {
	t.Helper()
	require.NoError(t, db.Create(&invoicedomain.Invoice{
		ID:             node.Generate(),
		InvoiceNumber:  fmt.Sprintf("INV%s%04d", issuedAt.Format("20060102150405"), node.Generate()%10000),
		OrderID:        node.Generate(),
		CustomerID:     node.Generate(),
		EmployeeID:     node.Generate(),
		Status:         invoicedomain.InvoiceStatusPaid,
		SubtotalAmount: subtotal,
		DiscountAmount: discount,
		TotalAmount:    total,
		PaidAmount:     paid,
		IssuedAt:       issuedAt,
	}).Error)
}

func TestDailySales_AggregatesSingleDay(t *testing.T) {
	svc, db, node, _ := newReportService(t)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	seedInvoiceAt(t, db, node, day.Add(9*time.Hour), 25000, 1000, 24000, 24000)
	seedInvoiceAt(t, db, node, day.Add(18*time.Hour), 5000, 0, 5000, 5000)
	// Previous day must not leak into the summary.
	seedInvoiceAt(t, db, node, day.Add(-2*time.Hour), 9000, 0, 9000, 9000)

	summary, err := svc.DailySales(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", summary.Date)
	assert.Equal(t, int64(2), summary.InvoiceCount)
	assert.Equal(t, int64(30000), summary.GrossAmount)
	assert.Equal(t, int64(1000), summary.DiscountAmount)
	assert.Equal(t, int64(29000), summary.NetAmount)
	assert.Equal(t, int64(29000), summary.PaidAmount)
}

func TestDailySales_EmptyDay(t *testing.T) {
	svc, _, _, _ := newReportService(t)

	summary, err := svc.DailySales(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, summary.InvoiceCount)
	assert.Zero(t, summary.NetAmount)
}

func TestDailySales_RejectsZeroDate(t *testing.T) {
	svc, _, _, _ := newReportService(t)

	_, err := svc.DailySales(context.Background(), time.Time{})
	assert.ErrorIs(t, err, reportdomain.ErrInvalidDate)
}

func TestDailySales_TruncatesToDayBoundary(t *testing.T) {
	svc, db, node, _ := newReportService(t)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	seedInvoiceAt(t, db, node, day.Add(23*time.Hour+59*time.Minute), 1000, 0, 1000, 1000)

	summary, err := svc.DailySales(context.Background(), day.Add(13*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.InvoiceCount)
}
