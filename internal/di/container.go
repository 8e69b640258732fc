// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"sync"

	"issuereport/internal/config"
	"issuereport/internal/observability"
	"issuereport/internal/services"
	"issuereport/internal/services/mailer"
	contextutils "issuereport/internal/utils"
)

// Service names registered by Initialize
const (
	ServiceMailer  = "mailer"
	ServiceIssue   = "issue"
	ServiceMetrics = "metrics"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetIssueService() (services.IssueServiceInterface, error)
	GetMailer() (mailer.Mailer, error)
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize validates the configuration and sets up all services
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.cfg.Validate(); err != nil {
		return contextutils.WrapError(err, "invalid configuration")
	}

	if err := sc.initializeServices(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapError(err, "failed to initialize services")
	}

	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetIssueService returns the submission service
func (sc *ServiceContainer) GetIssueService() (services.IssueServiceInterface, error) {
	return GetServiceAs[services.IssueServiceInterface](sc, ServiceIssue)
}

// GetMailer returns the configured mail transport
func (sc *ServiceContainer) GetMailer() (mailer.Mailer, error) {
	return GetServiceAs[mailer.Mailer](sc, ServiceMailer)
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup runs the registered shutdown functions in reverse order
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errors []error

	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err, nil)
			errors = append(errors, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errors) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errors)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(ctx context.Context) error {
	metrics, err := observability.NewIssueMetrics()
	if err != nil {
		return contextutils.WrapError(err, "failed to create issue metrics")
	}
	sc.services[ServiceMetrics] = metrics

	m := services.CreateEmailService(sc.cfg, sc.logger)
	sc.services[ServiceMailer] = m
	sc.logger.Info(ctx, "Mail transport ready", map[string]interface{}{
		"provider": m.Provider(),
		"enabled":  m.IsEnabled(),
		"to":       sc.cfg.Email.To,
	})

	sc.services[ServiceIssue] = services.NewIssueService(sc.cfg, sc.logger, m, metrics)

	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		// Sync reports EINVAL for stdout on Linux
		_ = sc.logger.Sync()
		return nil
	})
	return nil
}
