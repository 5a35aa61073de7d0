package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/gomart/internal/cache"
	"github.com/smallbiznis/gomart/internal/clock"
	"github.com/smallbiznis/gomart/internal/config"
	"github.com/smallbiznis/gomart/internal/inventory"
	inventorydomain "github.com/smallbiznis/gomart/internal/inventory/domain"
	"github.com/smallbiznis/gomart/internal/invoice"
	invoicedomain "github.com/smallbiznis/gomart/internal/invoice/domain"
	"github.com/smallbiznis/gomart/internal/observability"
	obsmiddleware "github.com/smallbiznis/gomart/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/gomart/internal/observability/metrics"
	obstracing "github.com/smallbiznis/gomart/internal/observability/tracing"
	"github.com/smallbiznis/gomart/internal/payment"
	paymentdomain "github.com/smallbiznis/gomart/internal/payment/domain"
	"github.com/smallbiznis/gomart/internal/promotion"
	promotiondomain "github.com/smallbiznis/gomart/internal/promotion/domain"
	"github.com/smallbiznis/gomart/internal/providers/pdf"
	"github.com/smallbiznis/gomart/internal/report"
	reportdomain "github.com/smallbiznis/gomart/internal/report/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	cache.Module,
	clock.Module,
	inventory.Module,
	invoice.Module,
	promotion.Module,
	payment.Module,
	report.Module,
	pdf.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	genID        *snowflake.Node
	storeProfile *config.StoreProfileHolder
	invoiceSvc   invoicedomain.Service
	promotionSvc promotiondomain.Service
	paymentSvc   paymentdomain.Service
	inventorySvc inventorydomain.Service
	reportSvc    reportdomain.Service
	receipts     pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	StoreProfile *config.StoreProfileHolder
	InvoiceSvc   invoicedomain.Service
	PromotionSvc promotiondomain.Service
	PaymentSvc   paymentdomain.Service
	InventorySvc inventorydomain.Service
	ReportSvc    reportdomain.Service
	Receipts     pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		genID:        p.GenID,
		storeProfile: p.StoreProfile,
		invoiceSvc:   p.InvoiceSvc,
		promotionSvc: p.PromotionSvc,
		paymentSvc:   p.PaymentSvc,
		inventorySvc: p.InventorySvc,
		reportSvc:    p.ReportSvc,
		receipts:     p.Receipts,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/orders/:id/invoice", s.GenerateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:number", s.GetInvoiceByNumber)
	api.GET("/invoices/:number/receipt", s.GetInvoiceReceipt)
	api.POST("/invoices/:number/promotions", s.SaveInvoicePromotions)
	api.GET("/invoices/:number/promotions", s.ListInvoicePromotions)
	api.POST("/invoices/:number/payments", s.ConfirmInvoicePayment)
	api.GET("/invoices/:number/payments", s.ListInvoicePayments)
	api.GET("/inventory/:productUnitID/on-hand", s.GetOnHand)
	api.GET("/reports/sales/daily", s.GetDailySalesReport)
}
