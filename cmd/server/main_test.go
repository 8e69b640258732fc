package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"issuereport/internal/config"
	"issuereport/internal/di"
	"issuereport/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(t *testing.T) *di.ServiceContainer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0"},
		Email: config.EmailConfig{
			Provider: config.EmailProviderLog,
			From:     "noreply@example.com",
			To:       "support@eldrive.eu",
		},
		Form:          config.FormConfig{NameRule: config.NameRuleStrict, DefaultRedirectURL: config.DefaultRedirectURL},
		OpenTelemetry: config.OpenTelemetryConfig{ServiceName: config.DefaultServiceName},
		IsTest:        true,
	}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	container := di.NewServiceContainer(cfg, logger)
	require.NoError(t, container.Initialize(context.Background()))
	return container
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication(newTestContainer(t))
	require.NoError(t, err)
	require.NotNil(t, app.router)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApplication_RunAndShutdown(t *testing.T) {
	app, err := NewApplication(newTestContainer(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, "0")
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	assert.NoError(t, app.Shutdown(shutdownCtx))
}
