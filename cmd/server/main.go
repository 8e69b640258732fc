// Package main provides the entry point for the issue reporting server.
// It loads configuration, sets up observability and serves the form and API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"issuereport/internal/config"
	"issuereport/internal/di"
	"issuereport/internal/handlers"
	"issuereport/internal/observability"
	contextutils "issuereport/internal/utils"
	"issuereport/internal/version"

	"github.com/gin-gonic/gin"
)

// Application encapsulates the main application logic and can be tested
type Application struct {
	container di.ServiceContainerInterface
	router    *gin.Engine
	server    *http.Server
}

// NewApplication creates a new application instance
func NewApplication(container di.ServiceContainerInterface) (*Application, error) {
	issueService, err := container.GetIssueService()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get issue service")
	}

	router, err := handlers.NewRouter(container.GetConfig(), issueService, container.GetLogger())
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create router")
	}

	return &Application{
		container: container,
		router:    router,
	}, nil
}

// Run serves HTTP on port until ctx is cancelled or the server fails
func (a *Application) Run(ctx context.Context, port string) error {
	a.server = &http.Server{
		Addr:              ":" + port,
		Handler:           a.router,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return contextutils.WrapError(err, "server failed")
	}
}

// Shutdown waits for in-flight requests, then releases the services
func (a *Application) Shutdown(ctx context.Context) error {
	var serverErr error
	if a.server != nil {
		serverErr = a.server.Shutdown(ctx)
	}
	if err := a.container.Shutdown(ctx); err != nil {
		return err
	}
	if serverErr != nil {
		return contextutils.WrapError(serverErr, "server shutdown failed")
	}
	return nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cfg.OpenTelemetry.LogLevel = cfg.Server.LogLevel
	if cfg.OpenTelemetry.ServiceVersion == "" {
		cfg.OpenTelemetry.ServiceVersion = version.Version
	}

	// Setup observability (tracing/metrics/logging)
	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, cfg.OpenTelemetry.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if tp != nil {
			if sdkTP, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
				if err := sdkTP.Shutdown(shutdownCtx); err != nil {
					logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error(), "provider": "tracer"})
				}
			}
		}
		if mp != nil {
			if err := mp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error(), "provider": "meter"})
			}
		}
	}()

	logger.Info(ctx, "Starting issue report service", map[string]interface{}{
		"port":           cfg.Server.Port,
		"logLevel":       cfg.Server.LogLevel,
		"email_provider": cfg.Email.Provider,
		"name_rule":      cfg.Form.NameRule,
	})

	// Initialize dependency injection container
	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		logger.Error(ctx, "Failed to initialize services", err, nil)
		os.Exit(1)
	}

	// Create application instance
	app, err := NewApplication(container)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err, nil)
		os.Exit(1)
	}

	// Start application in a goroutine
	appErr := make(chan error, 1)
	go func() {
		if err := app.Run(ctx, cfg.Server.Port); err != nil {
			appErr <- err
		}
	}()

	// Wait for shutdown signal or application error
	select {
	case <-shutdownCh:
		logger.Info(ctx, "Received shutdown signal, shutting down gracefully", nil)
	case err := <-appErr:
		logger.Error(ctx, "Application failed", err, nil)
		os.Exit(1)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during application shutdown", err, nil)
		os.Exit(1)
	}

	logger.Info(ctx, "Shutdown completed successfully", nil)
}
