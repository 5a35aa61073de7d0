package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gomart/internal/clock"
	inventorydomain "github.com/smallbiznis/gomart/internal/inventory/domain"
	invoicedomain "github.com/smallbiznis/gomart/internal/invoice/domain"
	"github.com/smallbiznis/gomart/internal/invoice/number"
	"github.com/smallbiznis/gomart/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/gomart/internal/order/domain"
	"github.com/smallbiznis/gomart/pkg/db"
	"github.com/smallbiznis/gomart/pkg/db/option"
	"github.com/smallbiznis/gomart/pkg/db/pagination"
	"github.com/smallbiznis/gomart/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds the uniqueness retry loop for candidate numbers.
const maxNumberAttempts = 5

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Numbers      *number.Generator
	InventorySvc inventorydomain.Service
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	numbers      *number.Generator
	inventorySvc inventorydomain.Service
	invoicerepo  repository.Repository[invoicedomain.Invoice]
	metrics      *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,

		numbers:      p.Numbers,
		inventorySvc: p.InventorySvc,
		invoicerepo:  repository.ProvideStore[invoicedomain.Invoice](p.DB),
		metrics:      p.Metrics,
	}
}

// GenerateForOrder converts a COMPLETED order into an invoice inside one
// transaction: stock is deducted per line, then the header and details are
// inserted. Any failure rolls everything back. The unique constraint on
// invoices.order_id backs the idempotency check against concurrent callers.
func (s *Service) GenerateForOrder(ctx context.Context, orderID string) (string, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(orderID))
	if err != nil {
		return "", invoicedomain.ErrInvalidOrderID
	}

	var invoiceNumber string
	var created bool
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.loadOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return invoicedomain.ErrOrderNotFound
		}

		existing, err := s.findNumberByOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing != "" {
			invoiceNumber = existing
			return nil
		}

		if order.Status != orderdomain.OrderStatusCompleted {
			return invoicedomain.ErrOrderNotCompleted
		}

		items, err := s.loadOrderItems(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return invoicedomain.ErrOrderHasNoItems
		}

		candidate, err := s.nextFreeNumber(ctx, tx)
		if err != nil {
			return err
		}

		for _, item := range items {
			reason := fmt.Sprintf("Sold %d x product unit %s on invoice %s", item.Quantity, item.ProductUnitID, candidate)
			if err := s.inventorySvc.StockOut(ctx, tx, item.ProductUnitID, item.Quantity, candidate, reason); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		invoiceID := s.genID.Generate()
		var totalDiscount int64
		for _, item := range items {
			totalDiscount += item.DiscountAmount
		}

		invoice := invoicedomain.Invoice{
			ID:             invoiceID,
			InvoiceNumber:  candidate,
			OrderID:        order.ID,
			CustomerID:     order.CustomerID,
			EmployeeID:     order.EmployeeID,
			Status:         invoicedomain.InvoiceStatusPaid,
			SubtotalAmount: order.SubtotalAmount,
			DiscountAmount: totalDiscount,
			TaxAmount:      0,
			TotalAmount:    order.TotalAmount,
			PaidAmount:     order.TotalAmount,
			IssuedAt:       now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
			return err
		}

		details := make([]invoicedomain.InvoiceDetail, 0, len(items))
		for position, item := range items {
			lineTotal := item.UnitPrice*item.Quantity - item.DiscountAmount
			details = append(details, invoicedomain.InvoiceDetail{
				ID:               s.genID.Generate(),
				InvoiceID:        invoiceID,
				LineID:           item.LineID,
				ProductUnitID:    item.ProductUnitID,
				Quantity:         item.Quantity,
				UnitPrice:        item.UnitPrice,
				DiscountAmount:   item.DiscountAmount,
				LineTotal:        lineTotal,
				TaxAmount:        0,
				LineTotalWithTax: lineTotal,
				Position:         position,
				CreatedAt:        now,
			})
		}
		if err := tx.WithContext(ctx).Create(&details).Error; err != nil {
			return err
		}

		invoiceNumber = candidate
		created = true
		return nil
	})
	if txErr != nil {
		if db.IsDuplicateKeyErr(txErr) {
			// Lost an invoicing race for the same order. The other writer's
			// invoice is the one that counts.
			if existing, err := s.findNumberByOrder(ctx, s.db, id); err == nil && existing != "" {
				s.log.Info("order already invoiced by concurrent request",
					zap.String("order_id", id.String()),
					zap.String("invoice_number", existing),
				)
				return existing, nil
			}
		}
		return "", txErr
	}

	if created {
		s.metrics.RecordInvoiceGenerated(ctx, string(invoicedomain.InvoiceStatusPaid))
		s.log.Info("invoice generated",
			zap.String("order_id", id.String()),
			zap.String("invoice_number", invoiceNumber),
		)
	}
	return invoiceNumber, nil
}

func (s *Service) GetByNumber(ctx context.Context, invoiceNumber string) (invoicedomain.Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	item, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{InvoiceNumber: invoiceNumber})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}

	details, err := s.loadDetails(ctx, s.db, item.ID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	item.Details = details
	return *item, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	filter := &invoicedomain.Invoice{}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.CustomerID != nil {
		filter.CustomerID = snowflake.ID(*req.CustomerID)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"id": true}, Default: "id", Desc: true}),
		// Fetch one extra row to decide whether a next page exists.
		option.WithLimit(pageSize + 1),
	}
	if req.IssuedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "issued_at",
			Operator: option.GTE,
			Value:    *req.IssuedFrom,
		}))
	}
	if req.IssuedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "issued_at",
			Operator: option.LTE,
			Value:    *req.IssuedTo,
		}))
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidPageToken
		}
		cursorID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidPageToken
		}
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "id",
			Operator: option.LT,
			Value:    cursorID,
		}))
	}

	items, err := s.invoicerepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: item.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	return invoicedomain.ListInvoiceResponse{Invoices: invoices, PageInfo: pageInfo}, nil
}

func (s *Service) loadOrder(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := tx.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (s *Service) loadOrderItems(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) ([]orderdomain.OrderItem, error) {
	var items []orderdomain.OrderItem
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("position ASC").
		Find(&items).Error
	return items, err
}

func (s *Service) loadDetails(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) ([]invoicedomain.InvoiceDetail, error) {
	var details []invoicedomain.InvoiceDetail
	err := tx.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position ASC").
		Find(&details).Error
	return details, err
}

func (s *Service) findNumberByOrder(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) (string, error) {
	var invoiceNumber string
	err := tx.WithContext(ctx).Raw(
		`SELECT invoice_number
		 FROM invoices
		 WHERE order_id = ?
		 LIMIT 1`,
		orderID,
	).Scan(&invoiceNumber).Error
	if err != nil {
		return "", err
	}
	return invoiceNumber, nil
}

// nextFreeNumber asks the generator for candidates until one is unused.
// The 4-digit random suffix can collide within one second; the unique
// constraint on invoice_number remains the backstop for the race window
// between this check and the insert.
func (s *Service) nextFreeNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		candidate := s.numbers.Next()

		var count int64
		err := tx.WithContext(ctx).Model(&invoicedomain.Invoice{}).
			Where("invoice_number = ?", candidate).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}

		s.log.Warn("invoice number collision, retrying",
			zap.String("candidate", candidate),
			zap.Int("attempt", attempt+1),
		)
	}
	return "", invoicedomain.ErrNumberExhausted
}
