package provider

import (
	"context"
	"net/http"
	"time"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

// InsuranceClient looks up compulsory insurance (ОСАГО) policies via nsis-osago.
type InsuranceClient struct {
	t   *transport
	cfg Config
}

var _ contractx.Provider = (*InsuranceClient)(nil)

func NewInsuranceClient(cfg Config, opts ...Option) (*InsuranceClient, error) {
	t, err := newTransport(contractx.ProviderInsurance, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &InsuranceClient{t: t, cfg: cfg}, nil
}

func (c *InsuranceClient) Name() contractx.ProviderID {
	return contractx.ProviderInsurance
}

func (c *InsuranceClient) Supports(kind contractx.IdentifierKind) bool {
	return kind == contractx.KindVIN || kind == contractx.KindPlate
}

func (c *InsuranceClient) Query(ctx context.Context, req contractx.ProviderRequest) contractx.ProviderResult {
	start := time.Now()
	res := c.query(ctx, req.Identifier)
	res.Elapsed = time.Since(start)
	return res
}

func (c *InsuranceClient) query(ctx context.Context, id contractx.Identifier) contractx.ProviderResult {
	name := c.Name()

	doc, f := c.t.fetch(ctx, request{
		method: http.MethodPost,
		path:   "/nsis-osago/" + pathSegment(id.Kind),
		body:   map[string]string{c.cfg.paramFor(id.Kind): id.Value},
	})
	if f.failed() {
		return result(name, "", f)
	}
	if f := checkSuccess(doc, "success"); f.failed() {
		return result(name, "", f)
	}

	policies := doc.Get("policies").Array()
	if len(policies) == 0 || empty(policies[0]) {
		return result(name, "", failure{outcome: contractx.OutcomeNotFound})
	}
	p := policies[0]

	return contractx.ProviderResult{
		Provider: name,
		Outcome:  contractx.OutcomeSuccess,
		Payload: &contractx.InsurancePolicy{
			Company:   str(p, "companyName"),
			Serial:    str(p, "policySerial"),
			Number:    str(p, "policyNumber"),
			StartDate: str(p, "startDate"),
			EndDate:   str(p, "endDate"),
			Status:    str(p, "status"),
		},
	}
}

// pathSegment is the upstream endpoint name for an identifier kind.
func pathSegment(kind contractx.IdentifierKind) string {
	if kind == contractx.KindPlate {
		return "regnum"
	}
	return "vin"
}
