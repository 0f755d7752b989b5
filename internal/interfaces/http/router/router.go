package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/infrastructure/config"
	"github.com/gescom/backend/internal/infrastructure/logger"
	"github.com/gescom/backend/internal/interfaces/http/handler"
	"github.com/gescom/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the HTTP handlers wired into the router
type Handlers struct {
	Quotation *handler.QuotationHandler
	Invoice   *handler.InvoiceHandler
	Product   *handler.ProductHandler
	Client    *handler.ClientHandler
	System    *handler.SystemHandler
}

// Config controls router construction
type Config struct {
	Env            string
	ServiceName    string
	TracingEnabled bool
	TrustedProxies []string
	CORS           middleware.CORSConfig
}

// ConfigFromHTTP builds router config from the application config
func ConfigFromHTTP(cfg *config.Config) Config {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	return Config{
		Env:            cfg.App.Env,
		ServiceName:    cfg.App.Name,
		TracingEnabled: cfg.Telemetry.Enabled,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           cors,
	}
}

// New builds the gin engine with middleware and all API routes
func New(cfg Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.TrustedProxies)
	}
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.BodyLimit(middleware.DefaultMaxBodyBytes))
	if cfg.TracingEnabled {
		engine.Use(otelgin.Middleware(cfg.ServiceName))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ping", h.System.Ping)

	api := engine.Group("/api/v1")

	billing := api.Group("/billing")
	{
		quotations := billing.Group("/quotations")
		quotations.POST("", h.Quotation.Create)
		quotations.GET("", h.Quotation.List)
		quotations.GET("/:id", h.Quotation.Get)
		quotations.PATCH("/:id", h.Quotation.Update)
		quotations.POST("/:id/convert", h.Quotation.Convert)
		quotations.DELETE("/:id", h.Quotation.Delete)

		invoices := billing.Group("/invoices")
		invoices.GET("", h.Invoice.List)
		invoices.GET("/:id", h.Invoice.Get)
		invoices.POST("/:id/status", h.Invoice.Transition)
	}

	catalog := api.Group("/catalog")
	{
		products := catalog.Group("/products")
		products.POST("", h.Product.Create)
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.Get)
		products.PATCH("/:id", h.Product.Update)
		products.DELETE("/:id", h.Product.Delete)
	}

	partner := api.Group("/partner")
	{
		clients := partner.Group("/clients")
		clients.POST("", h.Client.Create)
		clients.GET("", h.Client.List)
		clients.GET("/:id", h.Client.Get)
		clients.PATCH("/:id", h.Client.Update)
		clients.DELETE("/:id", h.Client.Delete)
	}

	return engine
}
