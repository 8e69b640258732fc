package services

import (
	"context"

	"issuereport/internal/config"
	"issuereport/internal/models"
	"issuereport/internal/observability"
	"issuereport/internal/services/mailer"
	contextutils "issuereport/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// IssueServiceInterface defines the submission operation used by the handlers
type IssueServiceInterface interface {
	Submit(ctx context.Context, report *models.IssueReport) (*models.SubmissionResult, error)
	Validate(report *models.IssueReport) ValidationErrors
}

// IssueService validates a report, numbers it and relays it to the support mailbox
type IssueService struct {
	logger    *observability.Logger
	validator *ReportValidator
	tickets   *TicketGenerator
	composer  *EmailComposer
	mailer    mailer.Mailer
	metrics   *observability.IssueMetrics
}

// NewIssueService creates an IssueService from configuration
func NewIssueService(cfg *config.Config, logger *observability.Logger, m mailer.Mailer, metrics *observability.IssueMetrics) *IssueService {
	return NewIssueServiceWithDependencies(
		logger,
		NewReportValidator(cfg.Form),
		NewTicketGenerator(),
		NewEmailComposer(cfg.Email),
		m,
		metrics,
	)
}

// NewIssueServiceWithDependencies creates an IssueService with explicit collaborators
func NewIssueServiceWithDependencies(
	logger *observability.Logger,
	validator *ReportValidator,
	tickets *TicketGenerator,
	composer *EmailComposer,
	m mailer.Mailer,
	metrics *observability.IssueMetrics,
) *IssueService {
	return &IssueService{
		logger:    logger,
		validator: validator,
		tickets:   tickets,
		composer:  composer,
		mailer:    m,
		metrics:   metrics,
	}
}

// Validate normalizes report in place and returns its failing fields.
func (s *IssueService) Validate(report *models.IssueReport) ValidationErrors {
	NormalizeForIssueType(report)
	NormalizePhone(report)
	return s.validator.Validate(report)
}

// Submit sends report to the support mailbox once. Nothing is stored and a
// failed send is not retried.
func (s *IssueService) Submit(ctx context.Context, report *models.IssueReport) (result0 *models.SubmissionResult, err error) {
	if report == nil {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
			"Invalid input", "report is required")
	}

	ctx, span := observability.TraceIssueFunction(ctx, "submit",
		observability.AttributeOperator(string(report.Operator)),
		observability.AttributeIssueType(string(report.IssueType)),
		observability.AttributeAttachmentCount(len(report.Attachments)),
	)
	defer observability.FinishSpan(span, &err)

	operator, issueType := string(report.Operator), string(report.IssueType)

	if verrs := s.Validate(report); len(verrs) > 0 {
		appErr := verrs.AppError()
		span.SetAttributes(attribute.Int("validation.error_count", len(verrs)))
		s.metrics.RecordFailed(ctx, operator, issueType, appErr.Code)
		s.logger.Warn(ctx, "Issue report failed validation", map[string]interface{}{
			"operator":   operator,
			"issue_type": issueType,
			"fields":     appErr.Details,
		})
		return nil, appErr
	}

	ticket := s.tickets.Generate(report.Operator, report.DateOfIssue)
	span.SetAttributes(observability.AttributeTicketNumber(ticket))

	msg, err := s.composer.Compose(report, ticket)
	if err != nil {
		s.metrics.RecordFailed(ctx, operator, issueType, contextutils.GetErrorCode(err))
		s.logger.Error(ctx, "Failed to compose issue email", err, map[string]interface{}{
			"ticket_number": ticket,
		})
		return nil, err
	}

	messageID, err := s.mailer.Send(ctx, msg)
	if err != nil {
		var appErr *contextutils.AppError
		if !contextutils.AsError(err, &appErr) {
			appErr = contextutils.NewAppErrorWithCause(contextutils.ErrorCodeEmailSendFailed, contextutils.SeverityError,
				"Failed to send email", err.Error(), err)
		}
		s.metrics.RecordFailed(ctx, operator, issueType, appErr.Code)
		s.logger.Error(ctx, "Failed to relay issue report", err, map[string]interface{}{
			"ticket_number": ticket,
			"operator":      operator,
			"issue_type":    issueType,
			"provider":      s.mailer.Provider(),
		})
		return nil, appErr
	}

	s.metrics.RecordSubmitted(ctx, operator, issueType)
	s.logger.Info(ctx, "Issue reported", map[string]interface{}{
		"ticket_number": ticket,
		"message_id":    messageID,
		"operator":      operator,
		"issue_type":    issueType,
		"reporter":      contextutils.MaskEmail(report.Email),
		"attachments":   len(report.Attachments),
	})

	return &models.SubmissionResult{TicketNumber: ticket, MessageID: messageID}, nil
}

var _ IssueServiceInterface = (*IssueService)(nil)
