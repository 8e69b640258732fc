package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"issuereport/internal/config"
	"issuereport/internal/middleware"
	"issuereport/internal/models"
	"issuereport/internal/observability"
	"issuereport/internal/services"
	contextutils "issuereport/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// SubmitSuccessMessage is returned with every accepted report
const SubmitSuccessMessage = "Issue reported successfully"

// multipartMemory is how much of a multipart body is kept in memory before
// spilling uploaded files to disk
const multipartMemory = 8 << 20

// IssueHandler serves the JSON submission API and the form metadata
type IssueHandler struct {
	issueService services.IssueServiceInterface
	cfg          *config.Config
	logger       *observability.Logger
}

// NewIssueHandler creates a new IssueHandler
func NewIssueHandler(issueService services.IssueServiceInterface, cfg *config.Config, logger *observability.Logger) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
		cfg:          cfg,
		logger:       logger,
	}
}

// SubmitIssueResponse is the body of a successful submission
type SubmitIssueResponse struct {
	Message      string `json:"message"`
	MessageID    string `json:"messageId"`
	TicketNumber string `json:"ticketNumber"`
}

// SubmitIssue handles POST /api/submit-issue. Every failure is answered with
// 500 and the {error, details} body.
func (h *IssueHandler) SubmitIssue(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_issue")
	defer span.End()

	report, err := bindIssueReport(c, h.cfg.Form.MaxUploadBytes())
	if err != nil {
		span.RecordError(err)
		h.logger.Warn(ctx, "Failed to read issue submission", map[string]interface{}{
			"content_type": c.ContentType(),
			"error":        err.Error(),
		})
		middleware.AbortWithAppError(c, http.StatusInternalServerError, err)
		return
	}
	span.SetAttributes(
		observability.AttributeOperator(string(report.Operator)),
		observability.AttributeIssueType(string(report.IssueType)),
		observability.AttributeAttachmentCount(len(report.Attachments)),
	)

	result, err := h.issueService.Submit(ctx, report)
	if err != nil {
		span.RecordError(err)
		middleware.AbortWithAppError(c, http.StatusInternalServerError, err)
		return
	}

	span.SetAttributes(attribute.String("issue.message_id", result.MessageID))
	c.Set(observability.TicketNumberKey, result.TicketNumber)
	c.JSON(http.StatusOK, SubmitIssueResponse{
		Message:      SubmitSuccessMessage,
		MessageID:    result.MessageID,
		TicketNumber: result.TicketNumber,
	})
}

// FormOptionsResponse describes everything a client needs to render the form
type FormOptionsResponse struct {
	Operators           []models.Option                    `json:"operators"`
	IssueTypes          []models.Option                    `json:"issueTypes"`
	ConnectorTypes      []models.Option                    `json:"connectorTypes"`
	PhoneFormats        []models.PhoneFormat               `json:"phoneFormats"`
	DefaultPhoneCountry string                             `json:"defaultPhoneCountry"`
	NameRule            string                             `json:"nameRule"`
	MaxUploadBytes      int64                              `json:"maxUploadBytes"`
	Rules               map[string]services.IssueTypeRules `json:"rules"`
}

// GetFormOptions handles GET /api/form-options
func (h *IssueHandler) GetFormOptions(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_form_options")
	defer span.End()

	c.JSON(http.StatusOK, newFormOptions(h.cfg))
}

func newFormOptions(cfg *config.Config) FormOptionsResponse {
	return FormOptionsResponse{
		Operators:           models.Operators,
		IssueTypes:          models.IssueTypes,
		ConnectorTypes:      models.ConnectorTypes,
		PhoneFormats:        models.PhoneFormats,
		DefaultPhoneCountry: string(models.DefaultPhoneCountry),
		NameRule:            cfg.Form.NameRule,
		MaxUploadBytes:      cfg.Form.MaxUploadBytes(),
		Rules:               services.RuleTable(),
	}
}

// bindIssueReport reads a report from a JSON body or from form data. Form
// submissions carry their files as file0..file{fileCount-1} or under "files".
func bindIssueReport(c *gin.Context, maxBytes int64) (*models.IssueReport, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		var report models.IssueReport
		if err := c.ShouldBindJSON(&report); err != nil {
			return nil, middleware.BodyReadError(err)
		}
		if report.PhoneCountry == "" {
			report.PhoneCountry = models.DefaultPhoneCountry
		}
		return &report, nil
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, middleware.BodyReadError(err)
	}

	report := reportFromForm(c.Request.PostForm)
	if c.Request.MultipartForm != nil {
		attachments, err := readAttachments(c.Request.MultipartForm, c.Request.PostForm.Get("fileCount"))
		if err != nil {
			return nil, err
		}
		report.Attachments = attachments
	}
	return report, nil
}

type valueGetter interface {
	Get(key string) string
}

func reportFromForm(form valueGetter) *models.IssueReport {
	phoneCountry := models.PhoneCountry(strings.TrimSpace(form.Get("phoneCountry")))
	if phoneCountry == "" {
		phoneCountry = models.DefaultPhoneCountry
	}
	return &models.IssueReport{
		Operator:              models.Operator(strings.TrimSpace(form.Get("operator"))),
		IssueType:             models.IssueType(strings.TrimSpace(form.Get("issueType"))),
		OtherIssueDescription: form.Get("otherIssueDescription"),
		ChargerLabel:          form.Get("chargerLabel"),
		ChargerLocation:       form.Get("chargerLocation"),
		ConnectorType:         models.ConnectorType(strings.TrimSpace(form.Get("connectorType"))),
		Name:                  form.Get("name"),
		Email:                 strings.TrimSpace(form.Get("email")),
		PhoneCountry:          phoneCountry,
		PhoneNumber:           strings.TrimSpace(form.Get("phoneNumber")),
		DateOfIssue:           strings.TrimSpace(form.Get("dateOfIssue")),
		Location:              form.Get("location"),
		Description:           form.Get("description"),
		StationID:             form.Get("stationId"),
		Consent:               parseConsent(form.Get("consent")),
	}
}

// parseConsent accepts checkbox ("on") and boolean spellings
func parseConsent(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "on" || v == "yes" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func readAttachments(form *multipart.Form, fileCountValue string) ([]models.Attachment, error) {
	var headers []*multipart.FileHeader

	if fileCountValue != "" {
		fileCount, err := strconv.Atoi(fileCountValue)
		if err != nil || fileCount < 0 {
			return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
				"Invalid request data", fmt.Sprintf("invalid fileCount %q", fileCountValue))
		}
		for i := 0; i < fileCount; i++ {
			if files := form.File[fmt.Sprintf("file%d", i)]; len(files) > 0 {
				headers = append(headers, files[0])
			}
		}
	}
	headers = append(headers, form.File["files"]...)

	attachments := make([]models.Attachment, 0, len(headers))
	for _, fh := range headers {
		if fh.Size == 0 && fh.Filename == "" {
			continue
		}
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, middleware.BodyReadError(err)
		}
		attachments = append(attachments, models.Attachment{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return attachments, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
