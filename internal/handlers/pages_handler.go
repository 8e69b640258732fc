package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"issuereport/internal/config"
	"issuereport/internal/middleware"
	"issuereport/internal/models"
	"issuereport/internal/observability"
	"issuereport/internal/services"
	contextutils "issuereport/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	pageForm     = "form.html"
	pageSuccess  = "success.html"
	pageRedirect = "redirect.html"

	// missingTicket is shown when /success is opened without a ticket
	missingTicket = "N/A"
)

// Schemes a deep link may never use
var blockedRedirectSchemes = map[string]bool{
	"javascript": true,
	"data":       true,
	"vbscript":   true,
	"file":       true,
}

// PagesHandler serves the server-rendered form and result pages
type PagesHandler struct {
	issueService services.IssueServiceInterface
	cfg          *config.Config
	logger       *observability.Logger
	pages        map[string]*template.Template
	now          func() time.Time
}

// NewPagesHandler parses the embedded templates and creates a PagesHandler
func NewPagesHandler(issueService services.IssueServiceInterface, cfg *config.Config, logger *observability.Logger) (*PagesHandler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &PagesHandler{
		issueService: issueService,
		cfg:          cfg,
		logger:       logger,
		pages:        pages,
		now:          time.Now,
	}, nil
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{pageForm, pageSuccess, pageRedirect} {
		t, err := template.ParseFS(TemplatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to parse template %s", name)
		}
		pages[name] = t
	}
	return pages, nil
}

// formPage is the view model of the issue form
type formPage struct {
	Operators      []models.Option
	IssueTypes     []models.Option
	ConnectorTypes []models.Option
	PhoneFormats   []models.PhoneFormat
	Report         *models.IssueReport
	Rules          services.IssueTypeRules
	RulesJSON      string
	Errors         map[string]string
	FormError      string
	PhoneExample   string
	Today          string
	MaxUploadMB    int
}

func (h *PagesHandler) newFormPage(report *models.IssueReport) formPage {
	rulesJSON, _ := json.Marshal(services.RuleTable())

	loc, _ := contextutils.LoadLocationOrUTC(h.cfg.Form.Timezone)
	example := ""
	if f, ok := report.PhoneCountry.Format(); ok {
		example = f.Example
	}

	maxMB := h.cfg.Form.MaxUploadMB
	if maxMB <= 0 {
		maxMB = config.DefaultMaxUploadMB
	}

	return formPage{
		Operators:      models.Operators,
		IssueTypes:     models.IssueTypes,
		ConnectorTypes: models.ConnectorTypes,
		PhoneFormats:   models.PhoneFormats,
		Report:         report,
		Rules:          services.RulesFor(report.IssueType),
		RulesJSON:      string(rulesJSON),
		PhoneExample:   example,
		Today:          h.now().In(loc).Format(contextutils.DateLayout),
		MaxUploadMB:    maxMB,
	}
}

// ShowForm handles GET /
func (h *PagesHandler) ShowForm(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "show_form")
	defer span.End()

	report := &models.IssueReport{PhoneCountry: models.DefaultPhoneCountry}
	h.render(c, http.StatusOK, pageForm, h.newFormPage(report))
}

// SubmitForm handles POST / from the server-rendered form. Validation failures
// re-render the form; a relayed report redirects to the success page.
func (h *PagesHandler) SubmitForm(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_form")
	defer span.End()

	report, err := bindIssueReport(c, h.cfg.Form.MaxUploadBytes())
	if err != nil {
		span.RecordError(err)
		page := h.newFormPage(reportFromForm(c.Request.PostForm))
		page.FormError = errorMessage(err)
		h.render(c, http.StatusBadRequest, pageForm, page)
		return
	}

	result, err := h.issueService.Submit(ctx, report)
	if err != nil {
		span.RecordError(err)
		page := h.newFormPage(report)

		var appErr *contextutils.AppError
		if contextutils.AsError(err, &appErr) && appErr.Code == contextutils.ErrorCodeValidationFailed {
			page.Errors = appErr.Fields
			h.render(c, http.StatusUnprocessableEntity, pageForm, page)
			return
		}

		page.FormError = errorMessage(err)
		h.render(c, http.StatusInternalServerError, pageForm, page)
		return
	}

	c.Set(observability.TicketNumberKey, result.TicketNumber)
	c.Redirect(http.StatusSeeOther, "/success?ticket="+url.QueryEscape(result.TicketNumber))
}

// ShowSuccess handles GET /success?ticket=
func (h *PagesHandler) ShowSuccess(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "show_success")
	defer span.End()

	ticket := strings.TrimSpace(c.Query("ticket"))
	if ticket == "" {
		ticket = missingTicket
	}
	span.SetAttributes(observability.AttributeTicketNumber(ticket))

	h.render(c, http.StatusOK, pageSuccess, gin.H{"TicketNumber": ticket})
}

// ShowRedirect handles GET /redirect?url=
func (h *PagesHandler) ShowRedirect(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "show_redirect")
	defer span.End()

	target := safeRedirectURL(c.Query("url"), h.cfg.Form.DefaultRedirectURL)
	h.render(c, http.StatusOK, pageRedirect, gin.H{
		"RedirectURL":     target,
		"FallbackDelayMS": config.RedirectFallbackDelay.Milliseconds(),
	})
}

// safeRedirectURL returns raw unless it is empty, unparsable or uses a
// script-capable scheme, in which case the fallback is used.
func safeRedirectURL(raw, fallback string) string {
	if fallback == "" {
		fallback = config.DefaultRedirectURL
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || blockedRedirectSchemes[strings.ToLower(u.Scheme)] {
		return fallback
	}
	return raw
}

func (h *PagesHandler) render(c *gin.Context, status int, page string, data interface{}) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to render page", err, map[string]interface{}{
			"page": page,
		})
		middleware.HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeTemplateRender, contextutils.SeverityError,
			"Failed to render page", err.Error(), err))
		return
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// errorMessage returns the user-facing part of err
func errorMessage(err error) string {
	var appErr *contextutils.AppError
	if contextutils.AsError(err, &appErr) {
		if appErr.Details != "" && appErr.Code != contextutils.ErrorCodeInternalError {
			return appErr.Message + ": " + appErr.Details
		}
		return appErr.Message
	}
	return "Failed to submit issue"
}
