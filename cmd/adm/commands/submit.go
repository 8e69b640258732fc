package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"issuereport/internal/config"
	"issuereport/internal/models"
	"issuereport/internal/observability"
	contextutils "issuereport/internal/utils"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const (
	submitPath           = "/api/submit-issue"
	defaultSubmitTimeout = 30 * time.Second
)

// submitResponse is the success body of the submission API
type submitResponse struct {
	Message      string `json:"message"`
	MessageID    string `json:"messageId"`
	TicketNumber string `json:"ticketNumber"`
}

// submitErrorResponse is the failure body of the submission API
type submitErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// SubmitCommand returns the command posting a report to a running server
func SubmitCommand(cfg *config.Config, logger *observability.Logger) *cobra.Command {
	var (
		baseURL string
		file    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an issue report to a running server",
		Long: `Post an issue report to /api/submit-issue of a running server and print the ticket number.

The report is read from --file (use "-" for stdin). Without --file a sample
payment report dated today is sent.`,
		RunE: runSubmit(cfg, logger, &baseURL, &file, &timeout),
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "server base URL (defaults to server.base_url)")
	cmd.Flags().StringVar(&file, "file", "", "JSON report to submit")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultSubmitTimeout, "request timeout")

	return cmd
}

// runSubmit returns a function that posts one report
func runSubmit(cfg *config.Config, logger *observability.Logger, baseURL, file *string, timeout *time.Duration) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()

		target := strings.TrimRight(*baseURL, "/")
		if target == "" {
			target = strings.TrimRight(cfg.Server.BaseURL, "/")
		}
		if target == "" {
			return contextutils.ErrorWithContextf("no server address: pass --url or set server.base_url")
		}

		body, err := loadReport(cmd.InOrStdin(), *file)
		if err != nil {
			return err
		}

		client := newSubmitClient(*timeout)
		var ok submitResponse
		var failed submitErrorResponse
		resp, err := client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			SetResult(&ok).
			SetError(&failed).
			Post(target + submitPath)
		if err != nil {
			logger.Error(ctx, "Submission request failed", err, map[string]interface{}{"url": target})
			return contextutils.WrapError(err, "submission request failed")
		}

		if resp.IsError() {
			return contextutils.ErrorWithContextf("server answered %d: %s (%s)", resp.StatusCode(), failed.Error, failed.Details)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\nTicket: %s\nMessage ID: %s\n", ok.Message, ok.TicketNumber, ok.MessageID)
		logger.Info(ctx, "Submitted issue report", map[string]interface{}{
			"url":           target,
			"ticket_number": ok.TicketNumber,
		})
		return nil
	}
}

// newSubmitClient creates a resty client whose requests are traced
func newSubmitClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		))
}

// loadReport reads the JSON report named by file, or builds the sample report
func loadReport(stdin io.Reader, file string) ([]byte, error) {
	if file == "" {
		return json.Marshal(sampleReport(time.Now()))
	}

	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to read report %s", file)
	}

	var report models.IssueReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, contextutils.WrapErrorf(err, "report %s is not valid JSON", file)
	}
	return data, nil
}

// sampleReport returns a report that passes validation on day now
func sampleReport(now time.Time) *models.IssueReport {
	return &models.IssueReport{
		Operator:     models.OperatorBulgaria,
		IssueType:    models.IssuePayment,
		Name:         "Admin Smoke Test",
		Email:        "smoke-test@example.com",
		PhoneCountry: models.DefaultPhoneCountry,
		PhoneNumber:  "888123456",
		DateOfIssue:  now.Format(contextutils.DateLayout),
		Location:     "Sofia",
		Description:  "Smoke test submitted by the admin tool. Please ignore.",
		Consent:      true,
	}
}
