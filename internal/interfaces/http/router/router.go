package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/fieldops/backend/internal/infrastructure/auth"
	"github.com/fieldops/backend/internal/infrastructure/config"
	"github.com/fieldops/backend/internal/infrastructure/logger"
	"github.com/fieldops/backend/internal/interfaces/http/handler"
	"github.com/fieldops/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the API handlers the router wires up
type Handlers struct {
	Health        *handler.HealthHandler
	PurchaseOrder *handler.PurchaseOrderHandler
	Invoice       *handler.InvoiceHandler
	Currency      *handler.CurrencyHandler
	Project       *handler.ProjectHandler
	Activity      *handler.ActivityHandler
}

// Config holds router dependencies
type Config struct {
	Handlers   Handlers
	JWTService *auth.JWTService
	Logger     *zap.Logger
	HTTP       *config.HTTPConfig
}

// Setup builds the gin engine with middleware and all API routes
func Setup(cfg Config) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	if cfg.HTTP != nil && len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	if cfg.Logger != nil {
		engine.Use(logger.GinMiddleware(cfg.Logger))
		engine.Use(logger.Recovery(cfg.Logger))
	} else {
		engine.Use(gin.Recovery())
	}

	corsConfig := middleware.DefaultCORSConfig()
	if cfg.HTTP != nil {
		if len(cfg.HTTP.CORSAllowOrigins) > 0 {
			corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
		}
		if len(cfg.HTTP.CORSAllowMethods) > 0 {
			corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
		}
		if len(cfg.HTTP.CORSAllowHeaders) > 0 {
			corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
		}
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Liveness and readiness sit outside API versioning and auth
	if cfg.Handlers.Health != nil {
		engine.GET("/health", cfg.Handlers.Health.Health)
		engine.GET("/ready", cfg.Handlers.Health.Ready)
	}

	api := engine.Group("/api/v1")
	if cfg.JWTService != nil {
		jwtConfig := middleware.DefaultJWTConfig(cfg.JWTService)
		jwtConfig.Logger = cfg.Logger
		api.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	}

	registerProcurementRoutes(api, cfg.Handlers)
	registerBillingRoutes(api, cfg.Handlers)
	registerCurrencyRoutes(api, cfg.Handlers)
	registerProjectRoutes(api, cfg.Handlers)
	registerAuditRoutes(api, cfg.Handlers)

	return engine
}

func registerProcurementRoutes(api *gin.RouterGroup, h Handlers) {
	if h.PurchaseOrder == nil {
		return
	}
	g := api.Group("/procurement")

	g.POST("/purchase-orders", h.PurchaseOrder.Create)
	g.GET("/purchase-orders", h.PurchaseOrder.List)
	g.GET("/purchase-orders/active/:po_number_base", h.PurchaseOrder.GetActive)
	g.GET("/purchase-orders/history/:po_number_base", h.PurchaseOrder.GetHistory)
	g.GET("/purchase-orders/:id", h.PurchaseOrder.GetByID)
	g.PUT("/purchase-orders/:id", h.PurchaseOrder.Update)
	g.DELETE("/purchase-orders/:id", h.PurchaseOrder.Delete)
	g.POST("/purchase-orders/:id/revisions", h.PurchaseOrder.CreateRevision)
	g.POST("/purchase-orders/:id/status", h.PurchaseOrder.UpdateStatus)
	g.POST("/purchase-orders/:id/adjust",
		middleware.RequireCapability(shared.CapabilityFinanceOverride),
		h.PurchaseOrder.AdjustAmount)
	g.POST("/purchase-orders/:id/attachment/upload-url", h.PurchaseOrder.AttachmentUploadURL)
	g.GET("/purchase-orders/:id/attachment/download-url", h.PurchaseOrder.AttachmentDownloadURL)
	g.GET("/projects/:project_code/revenue", h.PurchaseOrder.ProjectRevenue)
}

func registerBillingRoutes(api *gin.RouterGroup, h Handlers) {
	if h.Invoice == nil {
		return
	}
	g := api.Group("/billing")

	g.POST("/invoices", h.Invoice.Create)
	g.GET("/invoices", h.Invoice.List)
	g.GET("/invoices/:id", h.Invoice.GetByID)
	g.PUT("/invoices/:id", h.Invoice.Update)
	g.DELETE("/invoices/:id", h.Invoice.Delete)
	g.POST("/invoices/:id/submit", h.Invoice.Submit)
	g.POST("/invoices/:id/approve",
		middleware.RequireCapability(shared.CapabilityApproveInvoice),
		h.Invoice.Approve)
	g.POST("/invoices/:id/withdraw", h.Invoice.Withdraw)
	g.POST("/invoices/:id/send", h.Invoice.MarkSent)
	g.POST("/invoices/:id/pay", h.Invoice.MarkPaid)
	g.POST("/invoices/check-overdue", h.Invoice.CheckOverdue)
}

func registerCurrencyRoutes(api *gin.RouterGroup, h Handlers) {
	if h.Currency == nil {
		return
	}
	g := api.Group("/currency")

	g.POST("/rates",
		middleware.RequireCapability(shared.CapabilityManageRates),
		h.Currency.SetRate)
	g.GET("/rates", h.Currency.List)
	g.GET("/convert", h.Currency.Convert)
}

func registerProjectRoutes(api *gin.RouterGroup, h Handlers) {
	if h.Project == nil {
		return
	}
	g := api.Group("/projects")

	g.POST("", h.Project.Create)
	g.GET("", h.Project.List)
	g.GET("/:project_code", h.Project.GetByCode)
}

func registerAuditRoutes(api *gin.RouterGroup, h Handlers) {
	if h.Activity == nil {
		return
	}
	g := api.Group("/audit")

	g.GET("/activities", h.Activity.List)
	g.GET("/activities/:entity_type/:entity_id", h.Activity.ListByEntity)
}
