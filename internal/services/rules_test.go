package services

import (
	"testing"

	"issuereport/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRequiresChargerInfo(t *testing.T) {
	expected := map[models.IssueType]bool{
		models.IssueChargingSession:    true,
		models.IssuePayment:            false,
		models.IssueAutocharge:         false,
		models.IssueRFID:               false,
		models.IssueAccountValidation:  false,
		models.IssueInaccuratePosition: true,
		models.IssueUnavailableCharger: true,
		models.IssueDamagedCharger:     true,
		models.IssueWrongPowerCapacity: true,
		models.IssueWrongConnectorType: true,
		models.IssueWrongPriceInfo:     true,
		models.IssueOther:              false,
		models.IssueType("bogus"):      false,
		models.IssueType(""):           false,
	}

	for issueType, want := range expected {
		t.Run(string(issueType), func(t *testing.T) {
			assert.Equal(t, want, RequiresChargerInfo(issueType))
			assert.Equal(t, !want, ShowsStationID(issueType))
		})
	}
}

func TestRequiresConnectorInfo(t *testing.T) {
	for _, o := range models.IssueTypes {
		issueType := models.IssueType(o.Value)
		want := issueType == models.IssueUnavailableCharger ||
			issueType == models.IssueDamagedCharger ||
			issueType == models.IssueWrongConnectorType
		assert.Equal(t, want, RequiresConnectorInfo(issueType), o.Value)

		// connector types are a subset of charger types
		if RequiresConnectorInfo(issueType) {
			assert.True(t, RequiresChargerInfo(issueType), o.Value)
		}
	}
}

func TestRuleTable(t *testing.T) {
	table := RuleTable()
	assert.Len(t, table, len(models.IssueTypes))

	assert.Equal(t, IssueTypeRules{
		RequiresChargerInfo:   true,
		RequiresConnectorInfo: true,
	}, table[string(models.IssueDamagedCharger)])

	assert.Equal(t, IssueTypeRules{
		RequiresOtherDescription: true,
		ShowsStationID:           true,
	}, table[string(models.IssueOther)])
}

func TestChangeIssueType(t *testing.T) {
	t.Run("leaving other clears the description", func(t *testing.T) {
		r := &models.IssueReport{IssueType: models.IssueOther, OtherIssueDescription: "Something else entirely"}
		ChangeIssueType(r, models.IssuePayment)
		assert.Equal(t, models.IssuePayment, r.IssueType)
		assert.Empty(t, r.OtherIssueDescription)
	})

	t.Run("leaving charger types clears charger fields", func(t *testing.T) {
		r := &models.IssueReport{
			IssueType:       models.IssueDamagedCharger,
			ChargerLabel:    "BG-SOF-001",
			ChargerLocation: "Mall parking",
			ConnectorType:   models.ConnectorCCS,
		}
		ChangeIssueType(r, models.IssueRFID)
		assert.Empty(t, r.ChargerLabel)
		assert.Empty(t, r.ChargerLocation)
		assert.Empty(t, r.ConnectorType)
	})

	t.Run("keeps fields the new type still uses", func(t *testing.T) {
		r := &models.IssueReport{
			IssueType:       models.IssueDamagedCharger,
			ChargerLabel:    "BG-SOF-001",
			ChargerLocation: "Mall parking",
			ConnectorType:   models.ConnectorCCS,
		}
		ChangeIssueType(r, models.IssueWrongPriceInfo)
		assert.Equal(t, "BG-SOF-001", r.ChargerLabel)
		assert.Equal(t, "Mall parking", r.ChargerLocation)
		assert.Empty(t, r.ConnectorType)
	})

	t.Run("station id hidden for charger types", func(t *testing.T) {
		r := &models.IssueReport{IssueType: models.IssuePayment, StationID: "ST-42"}
		ChangeIssueType(r, models.IssueChargingSession)
		assert.Empty(t, r.StationID)
	})
}

func TestChangePhoneCountry(t *testing.T) {
	r := &models.IssueReport{PhoneCountry: models.PhoneCountryBulgaria, PhoneNumber: "888123456"}
	ChangePhoneCountry(r, models.PhoneCountryLithuania)
	assert.Equal(t, models.PhoneCountryLithuania, r.PhoneCountry)
	assert.Empty(t, r.PhoneNumber)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		country  models.PhoneCountry
		input    string
		expected string
	}{
		{name: "national", country: models.PhoneCountryBulgaria, input: "888123456", expected: "888123456"},
		{name: "international with plus", country: models.PhoneCountryBulgaria, input: "+359888123456", expected: "888123456"},
		{name: "international with 00", country: models.PhoneCountryBulgaria, input: "00359888123456", expected: "888123456"},
		{name: "dial code without plus", country: models.PhoneCountryBulgaria, input: "359888123456", expected: "888123456"},
		{name: "trunk zero", country: models.PhoneCountryBulgaria, input: "0888123456", expected: "888123456"},
		{name: "separators", country: models.PhoneCountryRomania, input: "+40 712-345 678", expected: "712345678"},
		{name: "lithuania", country: models.PhoneCountryLithuania, input: "+370 6123 4567", expected: "61234567"},
		{name: "letters left untouched", country: models.PhoneCountryBulgaria, input: "888abc456", expected: "888abc456"},
		{name: "unknown country keeps digits", country: models.PhoneCountry("XX"), input: "+1 555 0100", expected: "15550100"},
		{name: "blank", country: models.PhoneCountryBulgaria, input: "   ", expected: ""},
		{name: "lithuania nine digits unchanged", country: models.PhoneCountryLithuania, input: "612345678", expected: "612345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &models.IssueReport{PhoneCountry: tt.country, PhoneNumber: tt.input}
			NormalizePhone(r)
			assert.Equal(t, tt.expected, r.PhoneNumber)
		})
	}
}
