// Package query fans a validated identifier out to the providers that
// support it and consolidates their results into one message.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	"github.com/tanpawarit/autocheck-bot/bot/format"
	"github.com/tanpawarit/autocheck-bot/bot/metrics"
)

const defaultConcurrency = 4

var ErrNoProviders = errors.New("query plan has no providers")

type Option func(*Orchestrator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithConcurrency bounds in-flight provider calls per query.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.limit = n
		}
	}
}

type Orchestrator struct {
	providers contractx.Registry
	metrics   *metrics.Metrics
	limit     int

	now func() time.Time
}

func New(providers contractx.Registry, opts ...Option) (*Orchestrator, error) {
	if providers == nil {
		return nil, errors.New("provider registry is required")
	}

	o := &Orchestrator{
		providers: providers,
		limit:     defaultConcurrency,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// Run queries every provider that applies to the identifier kind.
func (o *Orchestrator) Run(ctx context.Context, id contractx.Identifier) (contractx.Consolidated, error) {
	return o.Execute(ctx, contractx.PlanFor(id))
}

// RunReport queries a single registration report for a VIN.
func (o *Orchestrator) RunReport(
	ctx context.Context,
	id contractx.Identifier,
	report contractx.ReportKind,
) (contractx.Consolidated, error) {
	if id.Kind != contractx.KindVIN {
		return contractx.Consolidated{}, fmt.Errorf("%w: registration reports require a vin", contractx.ErrValidation)
	}
	if !report.Valid() {
		return contractx.Consolidated{}, fmt.Errorf("%w: unknown report %q", contractx.ErrValidation, report)
	}

	return o.Execute(ctx, contractx.QueryRequest{
		Identifier: id,
		Providers:  []contractx.ProviderID{contractx.ProviderRegistration},
		Report:     report,
	})
}

// Execute runs the plan concurrently. Provider failures are results, not
// errors; every result is placed at its plan index regardless of completion
// order. A panic inside a provider is reported as ErrUnexpected.
func (o *Orchestrator) Execute(ctx context.Context, req contractx.QueryRequest) (contractx.Consolidated, error) {
	if len(req.Providers) == 0 {
		return contractx.Consolidated{}, ErrNoProviders
	}

	providers := make([]contractx.Provider, len(req.Providers))
	for i, id := range req.Providers {
		p, err := o.provider(id)
		if err != nil {
			return contractx.Consolidated{}, err
		}
		if !p.Supports(req.Identifier.Kind) {
			return contractx.Consolidated{}, fmt.Errorf("%w: provider %s does not support %s", contractx.ErrValidation, id, req.Identifier.Kind)
		}
		providers[i] = p
	}

	start := o.now()
	results := make([]contractx.ProviderResult, len(providers))

	var g errgroup.Group
	g.SetLimit(o.limit)
	for i, p := range providers {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Str("provider", string(p.Name())).
						Interface("panic", r).
						Msg("provider call panicked")
					err = fmt.Errorf("%w: provider %s: %v", contractx.ErrUnexpected, p.Name(), r)
				}
			}()

			results[i] = o.call(ctx, p, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return contractx.Consolidated{}, err
	}

	elapsed := o.now().Sub(start)
	o.metrics.ObserveQuery(elapsed)
	log.Info().
		Str("kind", string(req.Identifier.Kind)).
		Int("providers", len(results)).
		Int("succeeded", succeeded(results)).
		Dur("duration", elapsed).
		Msg("query completed")

	return contractx.Consolidated{
		Identifier: req.Identifier,
		Results:    results,
		Text:       format.Consolidate(results),
	}, nil
}

func (o *Orchestrator) call(ctx context.Context, p contractx.Provider, req contractx.QueryRequest) contractx.ProviderResult {
	preq := contractx.ProviderRequest{Identifier: req.Identifier}
	if p.Name() == contractx.ProviderRegistration {
		preq.Report = req.Report
	}

	start := o.now()
	res := p.Query(ctx, preq)
	if res.Provider == "" {
		res.Provider = p.Name()
	}
	if res.Elapsed <= 0 {
		res.Elapsed = o.now().Sub(start)
	}

	o.metrics.ObserveProvider(string(res.Provider), string(res.Report), string(res.Outcome), res.Elapsed)
	log.Debug().
		Str("provider", string(res.Provider)).
		Str("report", string(res.Report)).
		Str("outcome", string(res.Outcome)).
		Dur("duration", res.Elapsed).
		Msg("provider result")
	return res
}

func (o *Orchestrator) provider(id contractx.ProviderID) (contractx.Provider, error) {
	var p contractx.Provider
	switch id {
	case contractx.ProviderRegistration:
		p = o.providers.Registration()
	case contractx.ProviderInsurance:
		p = o.providers.Insurance()
	case contractx.ProviderInspection:
		p = o.providers.Inspection()
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", contractx.ErrValidation, id)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: provider %s is not configured", contractx.ErrConfiguration, id)
	}
	return p, nil
}

func succeeded(results []contractx.ProviderResult) int {
	n := 0
	for _, r := range results {
		if r.OK() {
			n++
		}
	}
	return n
}
