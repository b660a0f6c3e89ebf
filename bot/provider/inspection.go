package provider

import (
	"context"
	"net/http"
	"net/url"
	"time"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

// InspectionClient looks up roadworthiness diagnostic cards via eaisto.
type InspectionClient struct {
	t   *transport
	cfg Config
}

var _ contractx.Provider = (*InspectionClient)(nil)

func NewInspectionClient(cfg Config, opts ...Option) (*InspectionClient, error) {
	t, err := newTransport(contractx.ProviderInspection, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &InspectionClient{t: t, cfg: cfg}, nil
}

func (c *InspectionClient) Name() contractx.ProviderID {
	return contractx.ProviderInspection
}

func (c *InspectionClient) Supports(kind contractx.IdentifierKind) bool {
	return kind == contractx.KindVIN || kind == contractx.KindPlate
}

func (c *InspectionClient) Query(ctx context.Context, req contractx.ProviderRequest) contractx.ProviderResult {
	start := time.Now()
	res := c.query(ctx, req.Identifier)
	res.Elapsed = time.Since(start)
	return res
}

func (c *InspectionClient) query(ctx context.Context, id contractx.Identifier) contractx.ProviderResult {
	name := c.Name()

	doc, f := c.t.fetch(ctx, request{
		method: http.MethodGet,
		path:   "/eaisto/" + pathSegment(id.Kind),
		query:  url.Values{c.cfg.paramFor(id.Kind): {id.Value}},
	})
	if f.failed() {
		return result(name, "", f)
	}
	// eaisto reports success through either flag depending on API version.
	if f := checkSuccess(doc, "success", "kbm_done"); f.failed() {
		return result(name, "", f)
	}

	cards := doc.Get("diagnose_cards").Array()
	if len(cards) == 0 || empty(cards[0]) {
		return result(name, "", failure{outcome: contractx.OutcomeNotFound})
	}
	card := cards[0]

	return contractx.ProviderResult{
		Provider: name,
		Outcome:  contractx.OutcomeSuccess,
		Payload: &contractx.InspectionCard{
			Number:    str(card, "number"),
			StartDate: str(card, "startDate"),
			EndDate:   str(card, "endDate"),
			Mileage:   str(card, "mileage"),
		},
	}
}
