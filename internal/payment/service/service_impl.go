package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gomart/internal/clock"
	invoicedomain "github.com/smallbiznis/gomart/internal/invoice/domain"
	"github.com/smallbiznis/gomart/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/gomart/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewService(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

// Confirm records a payment event and moves an UNPAID invoice to PAID. The
// paid amount must equal the invoice total; partial payments are rejected.
func (s *Service) Confirm(ctx context.Context, invoiceNumber string, req paymentdomain.ConfirmRequest) (paymentdomain.Payment, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if strings.TrimSpace(req.Method) == "" {
		return paymentdomain.Payment{}, paymentdomain.ErrMissingMethod
	}
	if req.Amount <= 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidAmount
	}

	var payment paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice invoicedomain.Invoice
		if err := tx.WithContext(ctx).First(&invoice, "invoice_number = ?", invoiceNumber).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return invoicedomain.ErrInvoiceNotFound
			}
			return err
		}

		if invoice.Status == invoicedomain.InvoiceStatusPaid {
			return paymentdomain.ErrAlreadyPaid
		}
		if req.Amount != invoice.TotalAmount {
			return paymentdomain.ErrAmountMismatch
		}

		now := s.clock.Now()
		payment = paymentdomain.Payment{
			ID:         s.genID.Generate(),
			InvoiceID:  invoice.ID,
			Method:     req.Method,
			Amount:     req.Amount,
			Reference:  req.Reference,
			Payload:    req.Payload,
			ReceivedAt: now,
			CreatedAt:  now,
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			return err
		}

		return tx.WithContext(ctx).
			Model(&invoicedomain.Invoice{}).
			Where("id = ? AND status = ?", invoice.ID, invoicedomain.InvoiceStatusUnpaid).
			Updates(map[string]any{
				"status":      invoicedomain.InvoiceStatusPaid,
				"paid_amount": req.Amount,
				"paid_at":     now,
				"updated_at":  now,
			}).Error
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	s.metrics.RecordPaymentConfirmed(ctx, req.Method)
	s.log.Info("payment confirmed",
		zap.String("invoice_number", invoiceNumber),
		zap.String("method", req.Method),
		zap.Int64("amount", req.Amount),
	)
	return payment, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceNumber string) ([]paymentdomain.Payment, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).First(&invoice, "invoice_number = ?", strings.TrimSpace(invoiceNumber)).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, invoicedomain.ErrInvoiceNotFound
		}
		return nil, err
	}

	var payments []paymentdomain.Payment
	err = s.db.WithContext(ctx).
		Where("invoice_id = ?", invoice.ID).
		Order("received_at ASC, id ASC").
		Find(&payments).Error
	return payments, err
}
