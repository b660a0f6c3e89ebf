package provider

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

// reportPaths maps each registration report kind to its upstream path.
var reportPaths = map[contractx.ReportKind]string{
	contractx.ReportHistory:     "history",
	contractx.ReportAccident:    "dtp",
	contractx.ReportWanted:      "wanted",
	contractx.ReportRestriction: "restrict",
}

// RegistrationClient queries gibdd-ru registration history reports. It only
// accepts VINs.
type RegistrationClient struct {
	t        *transport
	vinParam string
}

var _ contractx.Provider = (*RegistrationClient)(nil)

func NewRegistrationClient(cfg Config, opts ...Option) (*RegistrationClient, error) {
	t, err := newTransport(contractx.ProviderRegistration, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &RegistrationClient{t: t, vinParam: cfg.paramFor(contractx.KindVIN)}, nil
}

func (c *RegistrationClient) Name() contractx.ProviderID {
	return contractx.ProviderRegistration
}

func (c *RegistrationClient) Supports(kind contractx.IdentifierKind) bool {
	return kind == contractx.KindVIN
}

func (c *RegistrationClient) Query(ctx context.Context, req contractx.ProviderRequest) contractx.ProviderResult {
	start := time.Now()
	report := req.Report
	if report == "" {
		report = contractx.ReportHistory
	}

	res := c.query(ctx, req.Identifier, report)
	res.Elapsed = time.Since(start)
	return res
}

func (c *RegistrationClient) query(ctx context.Context, id contractx.Identifier, report contractx.ReportKind) contractx.ProviderResult {
	name := c.Name()
	if !c.Supports(id.Kind) {
		return result(name, report, failure{
			outcome: contractx.OutcomeUpstreamError,
			message: "проверка доступна только по VIN",
		})
	}
	path, ok := reportPaths[report]
	if !ok {
		return result(name, report, failure{
			outcome: contractx.OutcomeUpstreamError,
			message: "неизвестный тип отчёта",
		})
	}

	doc, f := c.t.fetch(ctx, request{
		method: http.MethodGet,
		path:   "/gibdd-ru/" + path,
		query:  url.Values{c.vinParam: {id.Value}},
	})
	if f.failed() {
		return result(name, report, f)
	}
	if f := checkSuccess(doc, "success"); f.failed() {
		return result(name, report, f)
	}

	var payload contractx.Payload
	switch report {
	case contractx.ReportHistory:
		payload = parseHistory(doc.Get("history"))
	case contractx.ReportAccident:
		payload = parseAccidents(doc.Get("accidents"))
	case contractx.ReportWanted:
		payload = parseWanted(doc.Get("wanted"))
	case contractx.ReportRestriction:
		payload = parseRestrictions(doc.Get("restrictions"))
	}
	if payload == nil {
		return result(name, report, failure{outcome: contractx.OutcomeNotFound})
	}

	return contractx.ProviderResult{
		Provider: name,
		Report:   report,
		Outcome:  contractx.OutcomeSuccess,
		Payload:  payload,
	}
}

// The parse functions return a nil Payload (not a typed nil) when the
// upstream section is empty.

func parseHistory(v gjson.Result) contractx.Payload {
	if empty(v) || !v.IsObject() {
		return nil
	}
	h := &contractx.VehicleHistory{
		Model:        str(v, "model"),
		Year:         str(v, "year"),
		Color:        str(v, "color"),
		EngineVolume: str(v, "engineVolume"),
		PowerHP:      str(v, "powerHp"),
		VIN:          str(v, "vin"),
		Category:     str(v, "category"),
	}
	for _, p := range v.Get("ownershipPeriods").Array() {
		h.Owners = append(h.Owners, contractx.OwnershipPeriod{
			OwnerType: str(p, "simplePersonType"),
			From:      str(p, "from"),
			To:        str(p, "to"),
		})
	}
	return h
}

func parseAccidents(v gjson.Result) contractx.Payload {
	if empty(v) || !v.IsArray() {
		return nil
	}
	out := &contractx.AccidentReport{}
	for _, a := range v.Array() {
		out.Accidents = append(out.Accidents, contractx.Accident{
			Date:   str(a, "date"),
			Type:   str(a, "type"),
			Region: str(a, "region"),
			Damage: str(a, "damage"),
		})
	}
	return out
}

func parseWanted(v gjson.Result) contractx.Payload {
	if empty(v) || !v.IsArray() {
		return nil
	}
	out := &contractx.WantedReport{}
	for _, w := range v.Array() {
		out.Records = append(out.Records, contractx.WantedRecord{
			Date:   str(w, "date"),
			Region: str(w, "region"),
			Model:  str(w, "model"),
		})
	}
	return out
}

func parseRestrictions(v gjson.Result) contractx.Payload {
	if empty(v) || !v.IsArray() {
		return nil
	}
	out := &contractx.RestrictionReport{}
	for _, r := range v.Array() {
		out.Records = append(out.Records, contractx.Restriction{
			Date:      str(r, "date"),
			Type:      str(r, "type"),
			Initiator: str(r, "initiator"),
			Region:    str(r, "region"),
		})
	}
	return out
}
