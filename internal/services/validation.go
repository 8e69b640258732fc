package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"issuereport/internal/config"
	"issuereport/internal/models"
	contextutils "issuereport/internal/utils"

	"github.com/go-playground/validator/v10"
)

const (
	minOtherDescriptionLength = 10
	minNamePartLength         = 2
)

var namePattern = regexp.MustCompile(`^[A-Za-z\s-]+$`)

// FieldOrder is the order fields appear on the form and in error listings.
var FieldOrder = []string{
	"operator",
	"issueType",
	"otherIssueDescription",
	"chargerLabel",
	"chargerLocation",
	"connectorType",
	"name",
	"email",
	"phoneCountry",
	"phoneNumber",
	"location",
	"dateOfIssue",
	"description",
	"stationId",
	"consent",
}

// FieldError is the message for a single form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists failing fields in form order, one message each.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Map returns the messages keyed by field name.
func (v ValidationErrors) Map() map[string]string {
	m := make(map[string]string, len(v))
	for _, fe := range v {
		m[fe.Field] = fe.Message
	}
	return m
}

// AppError converts the list into a VALIDATION_FAILED error.
func (v ValidationErrors) AppError() *contextutils.AppError {
	order := make([]string, len(v))
	for i, fe := range v {
		order[i] = fe.Field
	}
	return contextutils.NewValidationError(order, v.Map())
}

// ReportValidator checks an IssueReport against the form rules.
type ReportValidator struct {
	validate *validator.Validate
	nameRule string
	loc      *time.Location
	now      func() time.Time
}

// NewReportValidator builds a validator for the given form settings.
func NewReportValidator(cfg config.FormConfig) *ReportValidator {
	return NewReportValidatorWithClock(cfg, time.Now)
}

// NewReportValidatorWithClock builds a validator that reads "today" from now.
func NewReportValidatorWithClock(cfg config.FormConfig, now func() time.Time) *ReportValidator {
	loc, _ := contextutils.LoadLocationOrUTC(cfg.Timezone)
	rv := &ReportValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		nameRule: cfg.NameRule,
		loc:      loc,
		now:      now,
	}

	rv.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil functions.
	_ = rv.validate.RegisterValidation("operator", func(fl validator.FieldLevel) bool {
		return models.Operator(fl.Field().String()).Valid()
	})
	_ = rv.validate.RegisterValidation("issuetype", func(fl validator.FieldLevel) bool {
		return models.IssueType(fl.Field().String()).Valid()
	})
	_ = rv.validate.RegisterValidation("phonecountry", func(fl validator.FieldLevel) bool {
		_, ok := models.PhoneCountry(fl.Field().String()).Format()
		return ok
	})
	_ = rv.validate.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
		return contextutils.IsValidEmail(fl.Field().String())
	})
	_ = rv.validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := contextutils.ParseDate(fl.Field().String(), rv.loc)
		return err == nil
	})
	_ = rv.validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		date, err := contextutils.ParseDate(fl.Field().String(), rv.loc)
		if err != nil {
			return false
		}
		return !contextutils.IsAfterDay(date, rv.now(), rv.loc)
	})
	_ = rv.validate.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return rv.nameProblem(fl.Field().String()) == ""
	})

	rv.validate.RegisterStructValidation(conditionalFieldsValidation, models.IssueReport{})

	return rv
}

// conditionalFieldsValidation covers the rules that depend on another field.
func conditionalFieldsValidation(sl validator.StructLevel) {
	r := sl.Current().Interface().(models.IssueReport)

	if r.IssueType == models.IssueOther {
		switch {
		case strings.TrimSpace(r.OtherIssueDescription) == "":
			sl.ReportError(r.OtherIssueDescription, "otherIssueDescription", "OtherIssueDescription", "required", "")
		case utf8.RuneCountInString(r.OtherIssueDescription) < minOtherDescriptionLength:
			sl.ReportError(r.OtherIssueDescription, "otherIssueDescription", "OtherIssueDescription", "min", fmt.Sprint(minOtherDescriptionLength))
		}
	}

	if RequiresChargerInfo(r.IssueType) {
		if strings.TrimSpace(r.ChargerLabel) == "" {
			sl.ReportError(r.ChargerLabel, "chargerLabel", "ChargerLabel", "required", "")
		}
		if strings.TrimSpace(r.ChargerLocation) == "" {
			sl.ReportError(r.ChargerLocation, "chargerLocation", "ChargerLocation", "required", "")
		}
	}

	if RequiresConnectorInfo(r.IssueType) {
		switch {
		case r.ConnectorType == "":
			sl.ReportError(r.ConnectorType, "connectorType", "ConnectorType", "required", "")
		case !r.ConnectorType.Valid():
			sl.ReportError(r.ConnectorType, "connectorType", "ConnectorType", "connectortype", "")
		}
	}

	if r.PhoneNumber != "" {
		if format, ok := r.PhoneCountry.Format(); ok && !matchesDigits(r.PhoneNumber, format.Digits) {
			sl.ReportError(r.PhoneNumber, "phoneNumber", "PhoneNumber", "phonepattern", format.Example)
		}
	}
}

func matchesDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// nameProblem returns the message for an unacceptable name, or "".
func (rv *ReportValidator) nameProblem(name string) string {
	if rv.nameRule == config.NameRuleRelaxed {
		if strings.TrimSpace(name) == "" {
			return "Name is required"
		}
		return ""
	}

	parts := strings.Fields(name)
	if len(parts) < 2 {
		return "Please enter both your first name and surname"
	}
	for _, p := range parts {
		if utf8.RuneCountInString(p) < minNamePartLength {
			return "Each name must be at least 2 characters long"
		}
	}
	if !namePattern.MatchString(name) {
		return "Names can only contain letters, spaces, and hyphens"
	}
	return ""
}

// Validate returns the failing fields of r in form order, or nil when r is valid.
func (rv *ReportValidator) Validate(r *models.IssueReport) ValidationErrors {
	err := rv.validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: "form", Message: err.Error()}}
	}

	messages := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := messages[field]; seen {
			continue
		}
		messages[field] = rv.messageFor(fe)
	}

	out := make(ValidationErrors, 0, len(messages))
	for _, field := range FieldOrder {
		if msg, ok := messages[field]; ok {
			out = append(out, FieldError{Field: field, Message: msg})
		}
	}
	return out
}

func (rv *ReportValidator) messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "operator":
		return "Operator is required"
	case "issueType":
		return "Issue type is required"
	case "otherIssueDescription":
		if fe.Tag() == "min" {
			return "Please provide at least 10 characters"
		}
		return "Please specify the issue"
	case "chargerLabel":
		return "Charger label is required"
	case "chargerLocation":
		return "Charger location is required"
	case "connectorType":
		if fe.Tag() == "connectortype" {
			return "Please select a valid connector type"
		}
		return "Connector type is required"
	case "name":
		if fe.Tag() == "personname" {
			if msg := rv.nameProblem(fmt.Sprint(fe.Value())); msg != "" {
				return msg
			}
		}
		return "Name is required"
	case "email":
		if fe.Tag() == "simpleemail" {
			return "Please enter a valid email address (e.g., name@example.com)"
		}
		return "Email is required"
	case "phoneCountry":
		if fe.Tag() == "phonecountry" {
			return "Invalid country code"
		}
		return "Country code is required"
	case "phoneNumber":
		if fe.Tag() == "phonepattern" {
			return fmt.Sprintf("Please enter a valid phone number (e.g., %s)", fe.Param())
		}
		return "Phone number is required"
	case "location":
		return "Location is required"
	case "dateOfIssue":
		switch fe.Tag() {
		case "isodate":
			return "Date must be in YYYY-MM-DD format"
		case "notfuture":
			return "Date of issue cannot be in the future"
		}
		return "Date of issue is required"
	case "description":
		if fe.Tag() == "min" {
			return "Description must be at least 20 characters"
		}
		return "Description is required"
	case "consent":
		return "You must agree to the terms"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
