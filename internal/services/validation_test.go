package services

import (
	"strings"
	"testing"
	"time"

	"issuereport/internal/config"
	"issuereport/internal/models"
	contextutils "issuereport/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestValidator(nameRule string) *ReportValidator {
	return NewReportValidatorWithClock(config.FormConfig{
		NameRule: nameRule,
		Timezone: "Europe/Sofia",
	}, fixedNow)
}

func validReport() *models.IssueReport {
	return &models.IssueReport{
		Operator:     models.OperatorBulgaria,
		IssueType:    models.IssuePayment,
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		PhoneCountry: models.PhoneCountryBulgaria,
		PhoneNumber:  "888123456",
		DateOfIssue:  "2024-03-05",
		Location:     "Sofia, Mladost 4",
		Description:  "The session was charged twice on my card.",
		Consent:      true,
	}
}

func TestReportValidator_Valid(t *testing.T) {
	v := newTestValidator(config.NameRuleStrict)
	assert.Empty(t, v.Validate(validReport()))
}

func TestReportValidator_EmptyReport(t *testing.T) {
	v := newTestValidator(config.NameRuleStrict)

	errs := v.Validate(&models.IssueReport{})

	assert.Equal(t, []string{
		"operator", "issueType", "name", "email", "phoneCountry",
		"phoneNumber", "location", "dateOfIssue", "description", "consent",
	}, fieldNames(errs))

	msgs := errs.Map()
	assert.Equal(t, "Operator is required", msgs["operator"])
	assert.Equal(t, "Issue type is required", msgs["issueType"])
	assert.Equal(t, "Name is required", msgs["name"])
	assert.Equal(t, "Email is required", msgs["email"])
	assert.Equal(t, "Country code is required", msgs["phoneCountry"])
	assert.Equal(t, "Phone number is required", msgs["phoneNumber"])
	assert.Equal(t, "Location is required", msgs["location"])
	assert.Equal(t, "Date of issue is required", msgs["dateOfIssue"])
	assert.Equal(t, "Description is required", msgs["description"])
	assert.Equal(t, "You must agree to the terms", msgs["consent"])
}

func TestReportValidator_FieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.IssueReport)
		field   string
		message string
	}{
		{
			name:    "unknown operator",
			mutate:  func(r *models.IssueReport) { r.Operator = "DE" },
			field:   "operator",
			message: "Operator is required",
		},
		{
			name:    "unknown issue type",
			mutate:  func(r *models.IssueReport) { r.IssueType = "bogus" },
			field:   "issueType",
			message: "Issue type is required",
		},
		{
			name:    "other without description",
			mutate:  func(r *models.IssueReport) { r.IssueType = models.IssueOther },
			field:   "otherIssueDescription",
			message: "Please specify the issue",
		},
		{
			name: "other with short description",
			mutate: func(r *models.IssueReport) {
				r.IssueType = models.IssueOther
				r.OtherIssueDescription = "too short"
			},
			field:   "otherIssueDescription",
			message: "Please provide at least 10 characters",
		},
		{
			name:    "charger label required",
			mutate:  func(r *models.IssueReport) { r.IssueType = models.IssueChargingSession; r.ChargerLocation = "Mall" },
			field:   "chargerLabel",
			message: "Charger label is required",
		},
		{
			name:    "charger location required",
			mutate:  func(r *models.IssueReport) { r.IssueType = models.IssueWrongPriceInfo; r.ChargerLabel = "BG-1" },
			field:   "chargerLocation",
			message: "Charger location is required",
		},
		{
			name: "connector required",
			mutate: func(r *models.IssueReport) {
				r.IssueType = models.IssueDamagedCharger
				r.ChargerLabel = "BG-1"
				r.ChargerLocation = "Mall"
			},
			field:   "connectorType",
			message: "Connector type is required",
		},
		{
			name: "unknown connector",
			mutate: func(r *models.IssueReport) {
				r.IssueType = models.IssueDamagedCharger
				r.ChargerLabel = "BG-1"
				r.ChargerLocation = "Mall"
				r.ConnectorType = "schuko"
			},
			field:   "connectorType",
			message: "Please select a valid connector type",
		},
		{
			name:    "single name",
			mutate:  func(r *models.IssueReport) { r.Name = "Jane" },
			field:   "name",
			message: "Please enter both your first name and surname",
		},
		{
			name:    "short name part",
			mutate:  func(r *models.IssueReport) { r.Name = "Jane D" },
			field:   "name",
			message: "Each name must be at least 2 characters long",
		},
		{
			name:    "digits in name",
			mutate:  func(r *models.IssueReport) { r.Name = "Jane Doe2" },
			field:   "name",
			message: "Names can only contain letters, spaces, and hyphens",
		},
		{
			name:    "bad email",
			mutate:  func(r *models.IssueReport) { r.Email = "jane@example" },
			field:   "email",
			message: "Please enter a valid email address (e.g., name@example.com)",
		},
		{
			name:    "unknown phone country",
			mutate:  func(r *models.IssueReport) { r.PhoneCountry = "US" },
			field:   "phoneCountry",
			message: "Invalid country code",
		},
		{
			name:    "bulgarian number too short",
			mutate:  func(r *models.IssueReport) { r.PhoneNumber = "88812345" },
			field:   "phoneNumber",
			message: "Please enter a valid phone number (e.g., 888123456)",
		},
		{
			name:    "bad date format",
			mutate:  func(r *models.IssueReport) { r.DateOfIssue = "05/03/2024" },
			field:   "dateOfIssue",
			message: "Date must be in YYYY-MM-DD format",
		},
		{
			name:    "impossible date",
			mutate:  func(r *models.IssueReport) { r.DateOfIssue = "2024-02-30" },
			field:   "dateOfIssue",
			message: "Date must be in YYYY-MM-DD format",
		},
		{
			name:    "future date",
			mutate:  func(r *models.IssueReport) { r.DateOfIssue = "2024-06-16" },
			field:   "dateOfIssue",
			message: "Date of issue cannot be in the future",
		},
		{
			name:    "short description",
			mutate:  func(r *models.IssueReport) { r.Description = "Broken charger" },
			field:   "description",
			message: "Description must be at least 20 characters",
		},
		{
			name:    "no consent",
			mutate:  func(r *models.IssueReport) { r.Consent = false },
			field:   "consent",
			message: "You must agree to the terms",
		},
	}

	v := newTestValidator(config.NameRuleStrict)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReport()
			tt.mutate(r)

			errs := v.Validate(r)
			require.Len(t, errs, 1, errs.Error())
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.message, errs[0].Message)
		})
	}
}

func TestReportValidator_OtherDescriptionLongEnough(t *testing.T) {
	v := newTestValidator(config.NameRuleStrict)
	r := validReport()
	r.IssueType = models.IssueOther
	r.OtherIssueDescription = "App crashes on login"
	assert.Empty(t, v.Validate(r))
}

func TestReportValidator_PhonePatterns(t *testing.T) {
	v := newTestValidator(config.NameRuleStrict)

	tests := []struct {
		country models.PhoneCountry
		number  string
		valid   bool
	}{
		{models.PhoneCountryLithuania, "612345678", false},
		{models.PhoneCountryLithuania, "61234567", true},
		{models.PhoneCountryBulgaria, "888123456", true},
		{models.PhoneCountryBulgaria, "8881234567", false},
		{models.PhoneCountryRomania, "712345678", true},
		{models.PhoneCountryRomania, "71234567", false},
		{models.PhoneCountryRomania, "71234567a", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.country)+"/"+tt.number, func(t *testing.T) {
			r := validReport()
			r.PhoneCountry = tt.country
			r.PhoneNumber = tt.number
			errs := v.Validate(r)
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Equal(t, "phoneNumber", errs[0].Field)
			}
		})
	}
}

func TestReportValidator_RelaxedNameRule(t *testing.T) {
	v := newTestValidator(config.NameRuleRelaxed)

	r := validReport()
	r.Name = "Йордан"
	assert.Empty(t, v.Validate(r))

	r.Name = "   "
	errs := v.Validate(r)
	require.Len(t, errs, 1)
	assert.Equal(t, "Name is required", errs[0].Message)
}

func TestReportValidator_TodayUsesFormTimezone(t *testing.T) {
	// 22:30 UTC on the 15th is already the 16th in Sofia.
	late := func() time.Time { return time.Date(2024, 6, 15, 22, 30, 0, 0, time.UTC) }

	sofia := NewReportValidatorWithClock(config.FormConfig{Timezone: "Europe/Sofia"}, late)
	utc := NewReportValidatorWithClock(config.FormConfig{Timezone: "UTC"}, late)

	r := validReport()
	r.DateOfIssue = "2024-06-16"

	assert.Empty(t, sofia.Validate(r))
	errs := utc.Validate(r)
	require.Len(t, errs, 1)
	assert.Equal(t, "dateOfIssue", errs[0].Field)
}

func TestValidationErrors_AppError(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "Email is required"},
		{Field: "consent", Message: "You must agree to the terms"},
	}

	appErr := errs.AppError()

	assert.Equal(t, contextutils.ErrorCodeValidationFailed, appErr.Code)
	assert.Equal(t, "email: Email is required; consent: You must agree to the terms", appErr.Details)
	assert.Equal(t, errs.Map(), appErr.Fields)
	assert.True(t, strings.Contains(errs.Error(), "consent"))
}

func fieldNames(errs ValidationErrors) []string {
	names := make([]string, len(errs))
	for i, fe := range errs {
		names[i] = fe.Field
	}
	return names
}
