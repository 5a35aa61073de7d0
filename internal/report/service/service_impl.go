package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/gomart/internal/cache"
	"github.com/smallbiznis/gomart/internal/clock"
	reportdomain "github.com/smallbiznis/gomart/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	cacheTTL     = 5 * time.Minute
	lockTTL      = 10 * time.Second
	lockWaitStep = 50 * time.Millisecond
	lockWaitMax  = 2 * time.Second
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Redis  *redis.Client `optional:"true"`
	Locker *cache.Locker `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	redis  *redis.Client
	locker *cache.Locker
}

func NewService(p ServiceParam) reportdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("report.service"),
		clock:  p.Clock,
		redis:  p.Redis,
		locker: p.Locker,
	}
}

// DailySales aggregates invoices issued on the given day. Results for past
// days are cached in Redis; the current day is recomputed on every call
// because invoices are still being issued.
func (s *Service) DailySales(ctx context.Context, day time.Time) (reportdomain.DailySales, error) {
	if day.IsZero() {
		return reportdomain.DailySales{}, reportdomain.ErrInvalidDate
	}

	day = day.UTC().Truncate(24 * time.Hour)
	key := fmt.Sprintf("gomart:report:daily:%s", day.Format("2006-01-02"))
	cacheable := day.Before(s.clock.Now().UTC().Truncate(24 * time.Hour))

	if cacheable {
		if summary, ok := s.fromCache(ctx, key); ok {
			return summary, nil
		}
	}

	release := s.acquire(ctx, key)
	defer release()

	// A concurrent caller may have filled the cache while we waited.
	if cacheable {
		if summary, ok := s.fromCache(ctx, key); ok {
			return summary, nil
		}
	}

	summary, err := s.aggregate(ctx, day)
	if err != nil {
		return reportdomain.DailySales{}, err
	}

	if cacheable {
		s.toCache(ctx, key, summary)
	}
	return summary, nil
}

func (s *Service) aggregate(ctx context.Context, day time.Time) (reportdomain.DailySales, error) {
	from := day
	to := day.Add(24 * time.Hour)

	var row struct {
		InvoiceCount   int64
		GrossAmount    int64
		DiscountAmount int64
		NetAmount      int64
		PaidAmount     int64
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS invoice_count,
			COALESCE(SUM(subtotal_amount), 0) AS gross_amount,
			COALESCE(SUM(discount_amount), 0) AS discount_amount,
			COALESCE(SUM(total_amount), 0) AS net_amount,
			COALESCE(SUM(paid_amount), 0) AS paid_amount
		FROM invoices
		WHERE issued_at >= ? AND issued_at < ?
	`, from, to).Scan(&row).Error
	if err != nil {
		return reportdomain.DailySales{}, err
	}

	return reportdomain.DailySales{
		Date:           day.Format("2006-01-02"),
		InvoiceCount:   row.InvoiceCount,
		GrossAmount:    row.GrossAmount,
		DiscountAmount: row.DiscountAmount,
		NetAmount:      row.NetAmount,
		PaidAmount:     row.PaidAmount,
	}, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (reportdomain.DailySales, bool) {
	if s.redis == nil {
		return reportdomain.DailySales{}, false
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		return reportdomain.DailySales{}, false
	}
	var summary reportdomain.DailySales
	if err := json.Unmarshal(raw, &summary); err != nil {
		s.log.Warn("report cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		_ = s.redis.Del(ctx, key).Err()
		return reportdomain.DailySales{}, false
	}
	return summary, true
}

func (s *Service) toCache(ctx context.Context, key string, summary reportdomain.DailySales) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		s.log.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// acquire takes a short lock around recomputation so concurrent callers do
// not all hit the database at once. When Redis is absent or the lock cannot
// be acquired in time the computation proceeds anyway.
func (s *Service) acquire(ctx context.Context, key string) func() {
	if s.locker == nil {
		return func() {}
	}

	lockKey := key + ":lock"
	deadline := time.Now().Add(lockWaitMax)
	for {
		token, ok, err := s.locker.TryLock(ctx, lockKey, lockTTL)
		if err != nil {
			return func() {}
		}
		if ok {
			return func() { _ = s.locker.Release(ctx, lockKey, token) }
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return func() {}
		}
		time.Sleep(lockWaitStep)
	}
}
