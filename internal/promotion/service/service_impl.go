package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gomart/internal/clock"
	invoicedomain "github.com/smallbiznis/gomart/internal/invoice/domain"
	"github.com/smallbiznis/gomart/internal/observability/metrics"
	promotiondomain "github.com/smallbiznis/gomart/internal/promotion/domain"
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

func NewService(p ServiceParam) promotiondomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("promotion.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

// SaveApplied attaches promotion records to an existing invoice. Item
// promotions are keyed by the zero-based position of the invoice detail
// rows in creation order; keys outside that range are skipped.
func (s *Service) SaveApplied(ctx context.Context, invoiceNumber string, orderPromotions []promotiondomain.PromotionInput, itemPromotions map[int]promotiondomain.ItemPromotionInput) error {
	invoiceNumber = strings.TrimSpace(invoiceNumber)

	var orderRows, itemRows int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoiceByNumber(ctx, tx, invoiceNumber)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		now := s.clock.Now()

		for _, input := range orderPromotions {
			row := promotiondomain.OrderPromotion{
				ID:                s.genID.Generate(),
				InvoiceID:         invoice.ID,
				PromotionID:       input.PromotionID,
				PromotionName:     input.PromotionName,
				PromotionDetailID: input.PromotionDetailID,
				Summary:           input.Summary,
				DiscountType:      input.DiscountType,
				DiscountValue:     input.DiscountValue,
				CreatedAt:         now,
			}
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return err
			}
			orderRows++
		}

		if len(itemPromotions) == 0 {
			return nil
		}

		details, err := s.loadDetails(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}

		indices := make([]int, 0, len(itemPromotions))
		for index := range itemPromotions {
			indices = append(indices, index)
		}
		sort.Ints(indices)

		for _, index := range indices {
			if index < 0 || index >= len(details) {
				s.log.Warn("item promotion index out of range, skipping",
					zap.String("invoice_number", invoiceNumber),
					zap.Int("index", index),
					zap.Int("detail_count", len(details)),
				)
				continue
			}

			input := itemPromotions[index]
			detail := details[index]
			if input.LineID != "" && input.LineID != detail.LineID {
				s.log.Warn("item promotion line id does not match detail at index",
					zap.String("invoice_number", invoiceNumber),
					zap.Int("index", index),
					zap.String("input_line_id", input.LineID),
					zap.String("detail_line_id", detail.LineID),
				)
			}

			row := promotiondomain.ItemPromotion{
				ID:                s.genID.Generate(),
				InvoiceDetailID:   detail.ID,
				LineID:            input.LineID,
				PromotionID:       input.PromotionID,
				PromotionName:     input.PromotionName,
				PromotionDetailID: input.PromotionDetailID,
				Summary:           input.Summary,
				DiscountType:      input.DiscountType,
				DiscountValue:     input.DiscountValue,
				CreatedAt:         now,
			}
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return err
			}
			itemRows++
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordPromotionApplied(ctx, "order", orderRows)
	s.metrics.RecordPromotionApplied(ctx, "item", itemRows)
	return nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceNumber string) (promotiondomain.AppliedPromotions, error) {
	invoice, err := s.loadInvoiceByNumber(ctx, s.db, strings.TrimSpace(invoiceNumber))
	if err != nil {
		return promotiondomain.AppliedPromotions{}, err
	}
	if invoice == nil {
		return promotiondomain.AppliedPromotions{}, invoicedomain.ErrInvoiceNotFound
	}

	var orderPromotions []promotiondomain.OrderPromotion
	if err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoice.ID).
		Order("created_at ASC, id ASC").
		Find(&orderPromotions).Error; err != nil {
		return promotiondomain.AppliedPromotions{}, err
	}

	var itemPromotions []promotiondomain.ItemPromotion
	if err := s.db.WithContext(ctx).
		Where("invoice_detail_id IN (?)",
			s.db.Model(&invoicedomain.InvoiceDetail{}).Select("id").Where("invoice_id = ?", invoice.ID),
		).
		Order("created_at ASC, id ASC").
		Find(&itemPromotions).Error; err != nil {
		return promotiondomain.AppliedPromotions{}, err
	}

	return promotiondomain.AppliedPromotions{
		OrderPromotions: orderPromotions,
		ItemPromotions:  itemPromotions,
	}, nil
}

func (s *Service) loadInvoiceByNumber(ctx context.Context, tx *gorm.DB, invoiceNumber string) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := tx.WithContext(ctx).First(&invoice, "invoice_number = ?", invoiceNumber).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (s *Service) loadDetails(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) ([]invoicedomain.InvoiceDetail, error) {
	var details []invoicedomain.InvoiceDetail
	err := tx.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position ASC").
		Find(&details).Error
	return details, err
}
