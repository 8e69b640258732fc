package services

import (
	"bytes"
	htmltemplate "html/template"
	"fmt"
	"strings"
	texttemplate "text/template"

	"issuereport/internal/config"
	"issuereport/internal/models"
	"issuereport/internal/services/mailer"
	contextutils "issuereport/internal/utils"
)

const (
	notProvided            = "Not provided"
	defaultAttachmentType  = "application/octet-stream"
	defaultAttachmentExt   = "png"
	ticketNumberHeaderName = "X-Ticket-Number"
)

const issueTextTemplate = `Ticket Number: {{.TicketNumber}}

Issue Type: {{.IssueTypeLabel}}
{{if .IsOther}}Other Issue Description: {{or .OtherIssueDescription "Not provided"}}
{{end}}{{if .ChargerLabel}}Charger Label: {{.ChargerLabel}}
{{end}}{{if .ChargerLocation}}Charger Location: {{.ChargerLocation}}
{{end}}{{if .ConnectorType}}Connector Type: {{.ConnectorType}}
{{end}}Email Address: {{.Email}}
Phone number: {{or .Phone "Not provided"}}
Date of Issue: {{.DateOfIssue}}
Station ID: {{or .StationID "Not provided"}}
Name: {{or .Name "Not provided"}}
Location: {{or .Location "Not provided"}}

Describe the Issue:
{{.Description}}
{{if .AttachmentCount}}
Attachments: {{.AttachmentCount}} file(s) attached
{{end}}
From AMPECO
`

const issueHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Ticket #{{.TicketNumber}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #2196f3; color: #fff; padding: 16px; border-radius: 4px 4px 0 0;">
    <h2 style="margin: 0;">Ticket #{{.TicketNumber}}</h2>
  </div>
  <table style="width: 100%; border-collapse: collapse; margin: 16px 0;">
    {{- range .Rows}}
    <tr>
      <td style="padding: 8px; border-bottom: 1px solid #eee; font-weight: bold; width: 40%;">{{.Label}}</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Value}}</td>
    </tr>
    {{- end}}
  </table>
  <div style="background-color: #f5f5f5; padding: 16px; border-radius: 4px;">
    <h3 style="margin-top: 0;">Issue Description</h3>
    <p style="white-space: pre-wrap; margin: 0;">{{.Description}}</p>
  </div>
  <p style="margin-top: 24px; color: #666; font-size: 12px;">From AMPECO</p>
</body>
</html>
`

var (
	issueText = texttemplate.Must(texttemplate.New("issue_text").Parse(issueTextTemplate))
	issueHTML = htmltemplate.Must(htmltemplate.New("issue_html").Parse(issueHTMLTemplate))
)

type emailRow struct {
	Label string
	Value string
}

type issueEmailData struct {
	TicketNumber          string
	IssueTypeLabel        string
	IsOther               bool
	OtherIssueDescription string
	ChargerLabel          string
	ChargerLocation       string
	ConnectorType         string
	Email                 string
	Phone                 string
	DateOfIssue           string
	StationID             string
	Name                  string
	Location              string
	Description           string
	AttachmentCount       int
	Rows                  []emailRow
}

// EmailComposer turns a report into the support mailbox message.
type EmailComposer struct {
	from     string
	fromName string
	to       []string
}

// NewEmailComposer creates a composer addressed with the configured sender and recipients.
// The recipient setting may hold several comma-separated addresses.
func NewEmailComposer(cfg config.EmailConfig) *EmailComposer {
	var to []string
	for _, addr := range strings.Split(cfg.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &EmailComposer{from: cfg.From, fromName: cfg.FromName, to: to}
}

// Subject returns the subject line for a report and ticket.
func Subject(r *models.IssueReport, ticket string) string {
	return fmt.Sprintf("Issue Type (%s): %s - Ticket #%s", r.Operator, r.IssueType.Label(), ticket)
}

// Compose renders both bodies and attaches the uploaded files.
func (c *EmailComposer) Compose(r *models.IssueReport, ticket string) (*mailer.Message, error) {
	data := newIssueEmailData(r, ticket)

	var text bytes.Buffer
	if err := issueText.Execute(&text, data); err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeTemplateRender, contextutils.SeverityError,
			"Template rendering failed", err.Error(), err)
	}

	var html bytes.Buffer
	if err := issueHTML.Execute(&html, data); err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeTemplateRender, contextutils.SeverityError,
			"Template rendering failed", err.Error(), err)
	}

	return &mailer.Message{
		From:        c.from,
		FromName:    c.fromName,
		To:          c.to,
		ReplyTo:     r.Email,
		Subject:     Subject(r, ticket),
		TextBody:    text.String(),
		HTMLBody:    html.String(),
		Headers:     map[string]string{ticketNumberHeaderName: ticket},
		Attachments: NormalizeAttachments(r.Attachments),
	}, nil
}

func newIssueEmailData(r *models.IssueReport, ticket string) issueEmailData {
	data := issueEmailData{
		TicketNumber:          ticket,
		IssueTypeLabel:        r.IssueType.Label(),
		IsOther:               r.IssueType == models.IssueOther,
		OtherIssueDescription: r.OtherIssueDescription,
		ChargerLabel:          r.ChargerLabel,
		ChargerLocation:       r.ChargerLocation,
		Email:                 r.Email,
		Phone:                 r.FullPhoneNumber(),
		DateOfIssue:           r.DateOfIssue,
		StationID:             r.StationID,
		Name:                  r.Name,
		Location:              r.Location,
		Description:           r.Description,
		AttachmentCount:       len(r.Attachments),
	}
	if r.ConnectorType != "" {
		data.ConnectorType = r.ConnectorType.Label()
	}

	data.Rows = append(data.Rows, emailRow{"Issue Type", data.IssueTypeLabel})
	if data.IsOther {
		data.Rows = append(data.Rows, emailRow{"Other Issue Description", orNotProvided(data.OtherIssueDescription)})
	}
	if data.ChargerLabel != "" {
		data.Rows = append(data.Rows, emailRow{"Charger Label", data.ChargerLabel})
	}
	if data.ChargerLocation != "" {
		data.Rows = append(data.Rows, emailRow{"Charger Location", data.ChargerLocation})
	}
	if data.ConnectorType != "" {
		data.Rows = append(data.Rows, emailRow{"Connector Type", data.ConnectorType})
	}
	data.Rows = append(data.Rows,
		emailRow{"Email Address", data.Email},
		emailRow{"Phone number", orNotProvided(data.Phone)},
		emailRow{"Date of Issue", data.DateOfIssue},
		emailRow{"Station ID", orNotProvided(data.StationID)},
		emailRow{"Name", orNotProvided(data.Name)},
		emailRow{"Location", orNotProvided(data.Location)},
	)
	if data.AttachmentCount > 0 {
		data.Rows = append(data.Rows, emailRow{"Attachments", fmt.Sprintf("%d file(s) attached", data.AttachmentCount)})
	}

	return data
}

func orNotProvided(s string) string {
	if s == "" {
		return notProvided
	}
	return s
}

// NormalizeAttachments fills in missing names and content types.
// Unnamed files become attachment-{n}.{subtype}, numbered from 1.
func NormalizeAttachments(in []models.Attachment) []models.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Attachment, len(in))
	for i, a := range in {
		if a.Name == "" {
			a.Name = fmt.Sprintf("attachment-%d.%s", i+1, attachmentExtension(a.ContentType))
		}
		if a.ContentType == "" {
			a.ContentType = defaultAttachmentType
		}
		out[i] = a
	}
	return out
}

func attachmentExtension(contentType string) string {
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if _, sub, ok := strings.Cut(mediaType, "/"); ok && sub != "" {
		return sub
	}
	return defaultAttachmentExt
}
