package handlers

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"issuereport/api"
	"issuereport/internal/config"
	"issuereport/internal/middleware"
	"issuereport/internal/observability"
	"issuereport/internal/services"
	contextutils "issuereport/internal/utils"
	"issuereport/internal/version"
)

// IMPORTANT: When adding new API endpoints, make sure to:
// 1. Add them to api/swagger.yaml with proper documentation
// 2. Update any relevant tests

// NewRouter creates the gin engine with all middleware and routes
func NewRouter(
	cfg *config.Config,
	issueService services.IssueServiceInterface,
	logger *observability.Logger,
) (*gin.Engine, error) {
	// Setup Gin mode
	if !cfg.IsTest {
		gin.SetMode(gin.ReleaseMode)
		if cfg.Server.Debug {
			gin.SetMode(gin.DebugMode)
		}
	}

	schemaLoader := middleware.NewSchemaLoader()
	if err := schemaLoader.LoadSchemasFromSwagger(api.Swagger); err != nil {
		return nil, contextutils.WrapError(err, "failed to load API schemas")
	}

	issueHandler := NewIssueHandler(issueService, cfg, logger)
	pagesHandler, err := NewPagesHandler(issueService, cfg, logger)
	if err != nil {
		return nil, err
	}

	assets, err := fs.Sub(AssetsFS, "templates/assets")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open embedded assets")
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ErrorRecoveryMiddleware(logger))
	router.Use(requestLoggingMiddleware(logger))

	// Health check endpoint (defined before tracing middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.OpenTelemetry.ServiceName})
	})

	// Request spans continue incoming traces and carry the outcome of the submission
	router.Use(observability.TracingMiddleware(cfg.OpenTelemetry.ServiceName)...)

	// Responses are checked against the API document while debugging
	if cfg.Server.Debug {
		router.Use(middleware.ResponseValidationMiddleware(logger, schemaLoader))
	}

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	// Setup CORS middleware
	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Requested-With", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Security middleware
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	router.GET("/swagger.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", api.Swagger)
	})
	router.StaticFS("/assets", http.FS(assets))

	// Server-rendered pages
	router.GET("/", pagesHandler.ShowForm)
	router.POST("/", pagesHandler.SubmitForm)
	router.GET("/success", pagesHandler.ShowSuccess)
	router.GET("/redirect", pagesHandler.ShowRedirect)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, version.Get(cfg.OpenTelemetry.ServiceName))
		})
	}

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/form-options", issueHandler.GetFormOptions)
		apiGroup.POST("/submit-issue",
			middleware.BodyLimitMiddleware(cfg.Form.MaxUploadBytes()),
			middleware.RequestValidationMiddleware(logger, schemaLoader, http.StatusInternalServerError),
			issueHandler.SubmitIssue,
		)
	}

	if cfg.Server.Debug {
		routeListing := NewRouteListingHandler(cfg.OpenTelemetry.ServiceName)
		router.GET("/debug/routes", routeListing.GetRouteListingJSON)
		routeListing.CollectRoutes(router)
	}

	return router, nil
}

// requestLoggingMiddleware logs every request through the observability logger:
// 5xx at error, 4xx at warn, everything else at info.
func requestLoggingMiddleware(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if requestID := contextutils.GetRequestIDFromContext(c.Request.Context()); requestID != "" {
			fields["request_id"] = requestID
		}

		// Add error message if present
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		if statusCode >= 400 {
			fields["http.response_size"] = c.Writer.Size()
			if statusCode >= 500 {
				fields["http.error_type"] = "server_error"
			} else {
				fields["http.error_type"] = "client_error"
			}
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}
