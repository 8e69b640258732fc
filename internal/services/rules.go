package services

import (
	"strings"

	"issuereport/internal/models"
)

var chargerInfoIssueTypes = map[models.IssueType]bool{
	models.IssueChargingSession:    true,
	models.IssueInaccuratePosition: true,
	models.IssueUnavailableCharger: true,
	models.IssueDamagedCharger:     true,
	models.IssueWrongPowerCapacity: true,
	models.IssueWrongConnectorType: true,
	models.IssueWrongPriceInfo:     true,
}

var connectorInfoIssueTypes = map[models.IssueType]bool{
	models.IssueUnavailableCharger: true,
	models.IssueDamagedCharger:     true,
	models.IssueWrongConnectorType: true,
}

// RequiresChargerInfo reports whether t asks for charger label and location.
func RequiresChargerInfo(t models.IssueType) bool {
	return chargerInfoIssueTypes[t]
}

// RequiresConnectorInfo reports whether t asks for the connector type.
func RequiresConnectorInfo(t models.IssueType) bool {
	return connectorInfoIssueTypes[t]
}

// ShowsStationID reports whether the optional station ID applies to t.
func ShowsStationID(t models.IssueType) bool {
	return !RequiresChargerInfo(t)
}

// IssueTypeRules is the per-type visibility table sent to the form.
type IssueTypeRules struct {
	RequiresOtherDescription bool `json:"requiresOtherDescription"`
	RequiresChargerInfo      bool `json:"requiresChargerInfo"`
	RequiresConnectorInfo    bool `json:"requiresConnectorInfo"`
	ShowsStationID           bool `json:"showsStationId"`
}

// RulesFor returns the visibility rules of t.
func RulesFor(t models.IssueType) IssueTypeRules {
	return IssueTypeRules{
		RequiresOtherDescription: t == models.IssueOther,
		RequiresChargerInfo:      RequiresChargerInfo(t),
		RequiresConnectorInfo:    RequiresConnectorInfo(t),
		ShowsStationID:           ShowsStationID(t),
	}
}

// RuleTable returns RulesFor every known issue type keyed by value.
func RuleTable() map[string]IssueTypeRules {
	table := make(map[string]IssueTypeRules, len(models.IssueTypes))
	for _, o := range models.IssueTypes {
		table[o.Value] = RulesFor(models.IssueType(o.Value))
	}
	return table
}

// ChangeIssueType sets the issue type and clears the conditional fields the
// new type no longer uses.
func ChangeIssueType(r *models.IssueReport, t models.IssueType) {
	r.IssueType = t
	NormalizeForIssueType(r)
}

// ChangePhoneCountry sets the phone country and clears the number.
func ChangePhoneCountry(r *models.IssueReport, c models.PhoneCountry) {
	r.PhoneCountry = c
	r.PhoneNumber = ""
}

// NormalizeForIssueType drops conditional fields that do not apply to the
// report's issue type so hidden values never reach validation or the email.
func NormalizeForIssueType(r *models.IssueReport) {
	if r.IssueType != models.IssueOther {
		r.OtherIssueDescription = ""
	}
	if !RequiresChargerInfo(r.IssueType) {
		r.ChargerLabel = ""
		r.ChargerLocation = ""
	}
	if !RequiresConnectorInfo(r.IssueType) {
		r.ConnectorType = ""
	}
	if !ShowsStationID(r.IssueType) {
		r.StationID = ""
	}
}

// NormalizePhone reduces the phone number to its national digits. Separators
// are dropped, and a leading dial code ("+359", "00359") or trunk "0" is
// removed. Input containing anything else is left untouched so validation
// rejects it.
func NormalizePhone(r *models.IssueReport) {
	raw := strings.TrimSpace(r.PhoneNumber)
	if raw == "" {
		r.PhoneNumber = ""
		return
	}

	var b strings.Builder
	for i, ch := range raw {
		switch {
		case ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == ' ' || ch == '-' || ch == '(' || ch == ')' || ch == '.':
		case ch == '+' && i == 0:
		default:
			r.PhoneNumber = raw
			return
		}
	}
	digits := b.String()

	format, ok := r.PhoneCountry.Format()
	if !ok {
		r.PhoneNumber = digits
		return
	}
	code := strings.TrimPrefix(format.DialCode, "+")

	switch {
	case strings.HasPrefix(raw, "+"):
		digits = strings.TrimPrefix(digits, code)
	case strings.HasPrefix(digits, "00"+code):
		digits = digits[len(code)+2:]
	case len(digits) == format.Digits+len(code) && strings.HasPrefix(digits, code):
		digits = digits[len(code):]
	case len(digits) == format.Digits+1 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}

	r.PhoneNumber = digits
}
