package handlers

import (
	"context"
	"testing"

	"issuereport/internal/config"
	"issuereport/internal/models"
	"issuereport/internal/observability"
	"issuereport/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIssueService implements IssueServiceInterface for testing
type MockIssueService struct {
	mock.Mock
}

func (m *MockIssueService) Submit(ctx context.Context, report *models.IssueReport) (*models.SubmissionResult, error) {
	args := m.Called(ctx, report)
	if result := args.Get(0); result != nil {
		return result.(*models.SubmissionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIssueService) Validate(report *models.IssueReport) services.ValidationErrors {
	args := m.Called(report)
	if v := args.Get(0); v != nil {
		return v.(services.ValidationErrors)
	}
	return nil
}

var _ services.IssueServiceInterface = (*MockIssueService)(nil)

func createTestLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "3000"},
		Email: config.EmailConfig{
			Provider: config.EmailProviderLog,
			From:     "noreply@example.com",
			FromName: "Issue Reports",
			To:       "support@eldrive.eu",
		},
		Form: config.FormConfig{
			NameRule:           config.NameRuleStrict,
			MaxUploadMB:        1,
			DefaultRedirectURL: config.DefaultRedirectURL,
			Timezone:           "Europe/Sofia",
		},
		OpenTelemetry: config.OpenTelemetryConfig{ServiceName: config.DefaultServiceName},
		IsTest:        true,
	}
}

// newTestRouter wires the real issue service to the log mailer so sent
// messages can be inspected.
func newTestRouter(t *testing.T) (*gin.Engine, *services.TestEmailService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	logger := createTestLogger()
	mailer := services.NewTestEmailService(cfg, logger)
	issueService := services.NewIssueService(cfg, logger, mailer, nil)

	router, err := NewRouter(cfg, issueService, logger)
	require.NoError(t, err)
	return router, mailer
}

// newMockRouter wires a mocked issue service
func newMockRouter(t *testing.T, issueService services.IssueServiceInterface) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router, err := NewRouter(testConfig(), issueService, createTestLogger())
	require.NoError(t, err)
	return router
}

func validReportJSON() map[string]interface{} {
	return map[string]interface{}{
		"operator":     "BG",
		"issueType":    "payment",
		"name":         "Jane Doe",
		"email":        "jane@example.com",
		"phoneCountry": "BG",
		"phoneNumber":  "+359888123456",
		"dateOfIssue":  "2024-03-05",
		"location":     "Sofia, Mladost 4",
		"description":  "The payment was charged twice for one session.",
		"consent":      true,
	}
}
