// Package models defines the data structures of the issue reporting service.
package models

// Operator identifies the country operator a report is addressed to.
type Operator string

// Known operators
const (
	OperatorBulgaria  Operator = "BG"
	OperatorRomania   Operator = "RO"
	OperatorLithuania Operator = "LT"
)

// UnassignedOperatorCode replaces an empty operator in ticket numbers.
const UnassignedOperatorCode = "XX"

// IssueType is the category a reporter picks for their problem.
type IssueType string

// Issue categories offered on the form
const (
	IssueChargingSession    IssueType = "charging_session"
	IssuePayment            IssueType = "payment"
	IssueAutocharge         IssueType = "autocharge"
	IssueRFID               IssueType = "rfid"
	IssueAccountValidation  IssueType = "account_validation"
	IssueInaccuratePosition IssueType = "inaccurate_position"
	IssueUnavailableCharger IssueType = "unavailable_charger"
	IssueDamagedCharger     IssueType = "damaged_charger"
	IssueWrongPowerCapacity IssueType = "wrong_power_capacity"
	IssueWrongConnectorType IssueType = "wrong_connector_type"
	IssueWrongPriceInfo     IssueType = "wrong_price_info"
	IssueOther              IssueType = "other"
)

// UnknownIssueTypeLabel is shown for issue types outside the known set.
const UnknownIssueTypeLabel = "Unknown Issue Type"

// ConnectorType is the plug standard of the affected connector.
type ConnectorType string

// Connector types offered on the form
const (
	ConnectorType2   ConnectorType = "type2"
	ConnectorCCS     ConnectorType = "ccs"
	ConnectorCHAdeMO ConnectorType = "chademo"
)

// PhoneCountry selects the dialing prefix and national number format.
type PhoneCountry string

// Supported phone countries
const (
	PhoneCountryBulgaria  PhoneCountry = "BG"
	PhoneCountryRomania   PhoneCountry = "RO"
	PhoneCountryLithuania PhoneCountry = "LT"

	DefaultPhoneCountry = PhoneCountryBulgaria
)

// Option is a value/label pair rendered in a select box.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PhoneFormat describes the national number format of a phone country.
type PhoneFormat struct {
	Country  PhoneCountry `json:"country"`
	Name     string       `json:"name"`
	DialCode string       `json:"dialCode"`
	Digits   int          `json:"digits"`
	Example  string       `json:"example"`
}

// Operators lists the operators in display order.
var Operators = []Option{
	{Value: string(OperatorBulgaria), Label: "Eldrive Bulgaria"},
	{Value: string(OperatorRomania), Label: "Eldrive Romania"},
	{Value: string(OperatorLithuania), Label: "Eldrive Lithuania"},
}

// IssueTypes lists the issue categories in display order.
var IssueTypes = []Option{
	{Value: string(IssueChargingSession), Label: "Charging session issues"},
	{Value: string(IssuePayment), Label: "Payment issues"},
	{Value: string(IssueAutocharge), Label: "Autocharge issue"},
	{Value: string(IssueRFID), Label: "RFID issue"},
	{Value: string(IssueAccountValidation), Label: "Account validation issues"},
	{Value: string(IssueInaccuratePosition), Label: "Inaccurate charger position on the map"},
	{Value: string(IssueUnavailableCharger), Label: "Charger is not available/unfunctional"},
	{Value: string(IssueDamagedCharger), Label: "Damaged charger/connector"},
	{Value: string(IssueWrongPowerCapacity), Label: "Wrong Charger Power Capacity in the App"},
	{Value: string(IssueWrongConnectorType), Label: "Wrong Connector Type in the App"},
	{Value: string(IssueWrongPriceInfo), Label: "Missing/Wrong price information in the App"},
	{Value: string(IssueOther), Label: "Other issue"},
}

// ConnectorTypes lists the connector types in display order.
var ConnectorTypes = []Option{
	{Value: string(ConnectorType2), Label: "Type 2"},
	{Value: string(ConnectorCCS), Label: "CCS"},
	{Value: string(ConnectorCHAdeMO), Label: "CHAdeMO"},
}

// PhoneFormats lists the supported phone countries in display order.
var PhoneFormats = []PhoneFormat{
	{Country: PhoneCountryBulgaria, Name: "Bulgaria", DialCode: "+359", Digits: 9, Example: "888123456"},
	{Country: PhoneCountryRomania, Name: "Romania", DialCode: "+40", Digits: 9, Example: "712345678"},
	{Country: PhoneCountryLithuania, Name: "Lithuania", DialCode: "+370", Digits: 8, Example: "61234567"},
}

func findLabel(options []Option, value string) (string, bool) {
	for _, o := range options {
		if o.Value == value {
			return o.Label, true
		}
	}
	return "", false
}

// Valid reports whether o is one of the known operators.
func (o Operator) Valid() bool {
	_, ok := findLabel(Operators, string(o))
	return ok
}

// Label returns the operator's display name, or the raw code when unknown.
func (o Operator) Label() string {
	if label, ok := findLabel(Operators, string(o)); ok {
		return label
	}
	return string(o)
}

// TicketCode returns the operator code used in ticket numbers.
func (o Operator) TicketCode() string {
	if o == "" {
		return UnassignedOperatorCode
	}
	return string(o)
}

// Valid reports whether t is one of the known issue types.
func (t IssueType) Valid() bool {
	_, ok := findLabel(IssueTypes, string(t))
	return ok
}

// Label returns the human-readable issue type, or "Unknown Issue Type".
func (t IssueType) Label() string {
	if label, ok := findLabel(IssueTypes, string(t)); ok {
		return label
	}
	return UnknownIssueTypeLabel
}

// Valid reports whether c is one of the known connector types.
func (c ConnectorType) Valid() bool {
	_, ok := findLabel(ConnectorTypes, string(c))
	return ok
}

// Label returns the connector's display name, or the raw value when unknown.
func (c ConnectorType) Label() string {
	if label, ok := findLabel(ConnectorTypes, string(c)); ok {
		return label
	}
	return string(c)
}

// Format returns the phone format for c.
func (c PhoneCountry) Format() (PhoneFormat, bool) {
	for _, f := range PhoneFormats {
		if f.Country == c {
			return f, true
		}
	}
	return PhoneFormat{}, false
}

// Attachment is an uploaded file relayed with the report email.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// IssueReport is a single submission. It lives for one request and is never stored.
type IssueReport struct {
	Operator              Operator      `json:"operator" form:"operator" validate:"required,operator"`
	IssueType             IssueType     `json:"issueType" form:"issueType" validate:"required,issuetype"`
	OtherIssueDescription string        `json:"otherIssueDescription" form:"otherIssueDescription"`
	ChargerLabel          string        `json:"chargerLabel" form:"chargerLabel"`
	ChargerLocation       string        `json:"chargerLocation" form:"chargerLocation"`
	ConnectorType         ConnectorType `json:"connectorType" form:"connectorType"`
	Name                  string        `json:"name" form:"name" validate:"required,personname"`
	Email                 string        `json:"email" form:"email" validate:"required,simpleemail"`
	PhoneCountry          PhoneCountry  `json:"phoneCountry" form:"phoneCountry" validate:"required,phonecountry"`
	PhoneNumber           string        `json:"phoneNumber" form:"phoneNumber" validate:"required"`
	DateOfIssue           string        `json:"dateOfIssue" form:"dateOfIssue" validate:"required,isodate,notfuture"`
	Location              string        `json:"location" form:"location" validate:"required"`
	Description           string        `json:"description" form:"description" validate:"required,min=20"`
	StationID             string        `json:"stationId" form:"stationId"`
	Consent               bool          `json:"consent" form:"consent" validate:"required"`
	Attachments           []Attachment  `json:"attachments,omitempty" form:"-"`
}

// FullPhoneNumber returns the phone number with the country dial code prefixed,
// or the number unchanged when the country is unknown or the number is empty.
func (r *IssueReport) FullPhoneNumber() string {
	if r.PhoneNumber == "" {
		return ""
	}
	if f, ok := r.PhoneCountry.Format(); ok {
		return f.DialCode + r.PhoneNumber
	}
	return r.PhoneNumber
}

// SubmissionResult is returned after a report has been relayed.
type SubmissionResult struct {
	TicketNumber string `json:"ticketNumber"`
	MessageID    string `json:"messageId"`
}
