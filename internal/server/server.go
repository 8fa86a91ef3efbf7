package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/storefront/internal/authorization"
	"github.com/smallbiznis/storefront/internal/catalog"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/customer"
	customerdomain "github.com/smallbiznis/storefront/internal/customer/domain"
	"github.com/smallbiznis/storefront/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/storefront/internal/dashboard/domain"
	"github.com/smallbiznis/storefront/internal/notification"
	"github.com/smallbiznis/storefront/internal/observability"
	obsmiddleware "github.com/smallbiznis/storefront/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	obstracing "github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/payment"
	paymentdomain "github.com/smallbiznis/storefront/internal/payment/domain"
	"github.com/smallbiznis/storefront/internal/providers"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	catalog.Module,
	customer.Module,
	dashboard.Module,
	notification.Module,
	order.Module,
	payment.Module,
	providers.Module,
	ratelimit.Module,
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

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log = log.Named("http.server")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	catalogSvc      catalogdomain.Service
	orderSvc        orderdomain.Service
	customerSvc     customerdomain.Service
	issuer          paymentdomain.Issuer
	webhookSvc      paymentdomain.WebhookService
	paymentRepo     paymentdomain.Repository
	dashboardSvc    dashboarddomain.Service
	authzSvc        authorization.Service
	pdf             pdf.Provider
	checkoutLimiter *ratelimit.CheckoutLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	CatalogSvc      catalogdomain.Service
	OrderSvc        orderdomain.Service
	CustomerSvc     customerdomain.Service
	Issuer          paymentdomain.Issuer
	WebhookSvc      paymentdomain.WebhookService
	PaymentRepo     paymentdomain.Repository
	DashboardSvc    dashboarddomain.Service
	AuthzSvc        authorization.Service
	PDF             pdf.Provider
	CheckoutLimiter *ratelimit.CheckoutLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		catalogSvc:      p.CatalogSvc,
		orderSvc:        p.OrderSvc,
		customerSvc:     p.CustomerSvc,
		issuer:          p.Issuer,
		webhookSvc:      p.WebhookSvc,
		paymentRepo:     p.PaymentRepo,
		dashboardSvc:    p.DashboardSvc,
		authzSvc:        p.AuthzSvc,
		pdf:             p.PDF,
		checkoutLimiter: p.CheckoutLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.CustomerContext())

	// -------- Catalog --------
	api.GET("/products", s.ListProducts)
	api.GET("/products/:slug", s.GetProductBySlug)

	// -------- Checkout --------
	api.POST("/checkout", s.CheckoutRateLimit(), s.Checkout)
	api.GET("/orders/:external_id", s.GetOrder)
	api.POST("/orders/:external_id/invoice", s.IssueInvoice)
	api.GET("/orders/:external_id/receipt", s.DownloadReceipt)

	// -------- Account --------
	api.GET("/account/orders", s.CustomerRequired(), s.ListAccountOrders)

	// -------- Payment Webhooks --------
	api.POST("/payments/webhooks/:provider", s.HandlePaymentWebhook)
	api.POST("/xendit/webhook", s.HandleXenditWebhook)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.Use(s.AdminKeyRequired())

	admin.GET("/dashboard", s.authorizeAdminAction(authorization.ObjectDashboard, authorization.ActionDashboardView), s.GetDashboard)

	// -------- Orders --------
	admin.GET("/orders", s.authorizeAdminAction(authorization.ObjectOrder, authorization.ActionOrderView), s.ListOrders)
	admin.GET("/orders/:external_id", s.authorizeAdminAction(authorization.ObjectOrder, authorization.ActionOrderView), s.GetAdminOrder)
	admin.POST("/orders/:external_id/invoice", s.authorizeAdminAction(authorization.ObjectOrder, authorization.ActionOrderInvoice), s.IssueInvoice)
}
