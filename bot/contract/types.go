package contract

import "time"

type IdentifierKind string

const (
	KindVIN   IdentifierKind = "vin"
	KindPlate IdentifierKind = "plate"
)

// Identifier is a validated, normalized vehicle identifier.
type Identifier struct {
	Kind  IdentifierKind `json:"kind"`
	Value string         `json:"value"`
}

type ProviderID string

const (
	ProviderRegistration ProviderID = "gibdd"
	ProviderInsurance    ProviderID = "osago"
	ProviderInspection   ProviderID = "eaisto"
)

// ReportKind selects a registration-history sub-query.
type ReportKind string

const (
	ReportHistory     ReportKind = "history"
	ReportAccident    ReportKind = "accident"
	ReportWanted      ReportKind = "wanted"
	ReportRestriction ReportKind = "restriction"
)

// ReportKinds lists report kinds in display order.
var ReportKinds = []ReportKind{ReportHistory, ReportAccident, ReportWanted, ReportRestriction}

func (r ReportKind) Valid() bool {
	switch r {
	case ReportHistory, ReportAccident, ReportWanted, ReportRestriction:
		return true
	default:
		return false
	}
}

type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeMalformed      Outcome = "malformed_response"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeUpstreamError  Outcome = "upstream_error"
)

type ProviderRequest struct {
	Identifier Identifier `json:"identifier"`
	Report     ReportKind `json:"report,omitempty"`
}

// QueryRequest is the set of providers to query for one identifier.
// Report applies to the registration provider only.
type QueryRequest struct {
	Identifier Identifier   `json:"identifier"`
	Providers  []ProviderID `json:"providers"`
	Report     ReportKind   `json:"report,omitempty"`
}

// PlanFor returns the provider set for an identifier: VIN queries all three
// providers, plate queries skip registration history.
func PlanFor(id Identifier) QueryRequest {
	req := QueryRequest{Identifier: id}
	if id.Kind == KindVIN {
		req.Providers = append(req.Providers, ProviderRegistration)
		req.Report = ReportHistory
	}
	req.Providers = append(req.Providers, ProviderInsurance, ProviderInspection)
	return req
}

type ProviderResult struct {
	Provider ProviderID `json:"provider"`
	Report   ReportKind `json:"report,omitempty"`
	Outcome  Outcome    `json:"outcome"`
	// Message is the upstream-supplied error text, set for OutcomeUpstreamError only.
	Message string        `json:"message,omitempty"`
	Payload Payload       `json:"payload,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

func (r ProviderResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Consolidated is the collected outcome of one orchestrated query.
type Consolidated struct {
	Identifier Identifier       `json:"identifier"`
	Results    []ProviderResult `json:"results"`
	Text       string           `json:"text"`
}

/* ------------------------------ Payloads ------------------------------- */

// Payload is implemented by every provider success record.
// Empty string fields mean the upstream did not supply the value.
type Payload interface {
	payloadKind() string
}

type VehicleHistory struct {
	Model        string            `json:"model"`
	Year         string            `json:"year"`
	Color        string            `json:"color"`
	EngineVolume string            `json:"engine_volume"`
	PowerHP      string            `json:"power_hp"`
	VIN          string            `json:"vin"`
	Category     string            `json:"category"`
	Owners       []OwnershipPeriod `json:"owners,omitempty"`
}

type OwnershipPeriod struct {
	OwnerType string `json:"owner_type"`
	From      string `json:"from"`
	To        string `json:"to"`
}

type AccidentReport struct {
	Accidents []Accident `json:"accidents"`
}

type Accident struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	Region string `json:"region"`
	Damage string `json:"damage"`
}

type WantedReport struct {
	Records []WantedRecord `json:"records"`
}

type WantedRecord struct {
	Date   string `json:"date"`
	Region string `json:"region"`
	Model  string `json:"model"`
}

type RestrictionReport struct {
	Records []Restriction `json:"records"`
}

type Restriction struct {
	Date      string `json:"date"`
	Type      string `json:"type"`
	Initiator string `json:"initiator"`
	Region    string `json:"region"`
}

type InsurancePolicy struct {
	Company   string `json:"company"`
	Serial    string `json:"serial"`
	Number    string `json:"number"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

type InspectionCard struct {
	Number    string `json:"number"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Mileage   string `json:"mileage"`
}

func (*VehicleHistory) payloadKind() string    { return "vehicle_history" }
func (*AccidentReport) payloadKind() string    { return "accident_report" }
func (*WantedReport) payloadKind() string      { return "wanted_report" }
func (*RestrictionReport) payloadKind() string { return "restriction_report" }
func (*InsurancePolicy) payloadKind() string   { return "insurance_policy" }
func (*InspectionCard) payloadKind() string    { return "inspection_card" }

/* --------------------------- Chat boundary ----------------------------- */

// Event is one inbound chat interaction. Action carries a button
// discriminator (callback data) and is empty for plain text messages.
type Event struct {
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text,omitempty"`
	Action string `json:"action,omitempty"`
}

type Keyboard string

const (
	KeyboardNone    Keyboard = ""
	KeyboardMain    Keyboard = "main"
	KeyboardBack    Keyboard = "back"
	KeyboardReports Keyboard = "reports"
)

type Reply struct {
	Text     string   `json:"text"`
	Keyboard Keyboard `json:"keyboard,omitempty"`
}
