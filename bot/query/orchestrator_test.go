package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	"github.com/tanpawarit/autocheck-bot/bot/metrics"
)

var (
	testVIN   = contractx.Identifier{Kind: contractx.KindVIN, Value: "XTA111930B0134057"}
	testPlate = contractx.Identifier{Kind: contractx.KindPlate, Value: "А123БВ777"}
)

type fakeProvider struct {
	name     contractx.ProviderID
	vinOnly  bool
	result   contractx.ProviderResult
	delay    time.Duration
	panicMsg string
	barrier  *barrier

	mu    sync.Mutex
	calls []contractx.ProviderRequest
}

func (f *fakeProvider) Name() contractx.ProviderID { return f.name }

func (f *fakeProvider) Supports(kind contractx.IdentifierKind) bool {
	return !f.vinOnly || kind == contractx.KindVIN
}

func (f *fakeProvider) Query(ctx context.Context, req contractx.ProviderRequest) contractx.ProviderResult {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.barrier != nil {
		f.barrier.arrive()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	res := f.result
	res.Provider = f.name
	res.Report = req.Report
	return res
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// barrier releases once n goroutines have arrived, or after a deadline.
type barrier struct {
	mu      sync.Mutex
	n       int
	release chan struct{}
	reached bool
}

func newBarrier(n int) *barrier {
	return &barrier{n: n, release: make(chan struct{})}
}

func (b *barrier) arrive() {
	b.mu.Lock()
	b.n--
	if b.n == 0 {
		b.reached = true
		close(b.release)
	}
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-time.After(time.Second):
	}
}

type fakeRegistry struct {
	registration contractx.Provider
	insurance    contractx.Provider
	inspection   contractx.Provider
}

func (f *fakeRegistry) Registration() contractx.Provider { return f.registration }
func (f *fakeRegistry) Insurance() contractx.Provider    { return f.insurance }
func (f *fakeRegistry) Inspection() contractx.Provider   { return f.inspection }

func newFakes() (*fakeProvider, *fakeProvider, *fakeProvider, *fakeRegistry) {
	reg := &fakeProvider{
		name:    contractx.ProviderRegistration,
		vinOnly: true,
		result: contractx.ProviderResult{
			Outcome: contractx.OutcomeSuccess,
			Payload: &contractx.VehicleHistory{Model: "ЛАДА 111930", Year: "2011"},
		},
	}
	ins := &fakeProvider{
		name: contractx.ProviderInsurance,
		result: contractx.ProviderResult{
			Outcome: contractx.OutcomeSuccess,
			Payload: &contractx.InsurancePolicy{Company: "СОГАЗ"},
		},
	}
	insp := &fakeProvider{
		name: contractx.ProviderInspection,
		result: contractx.ProviderResult{
			Outcome: contractx.OutcomeSuccess,
			Payload: &contractx.InspectionCard{Number: "0123"},
		},
	}
	return reg, ins, insp, &fakeRegistry{registration: reg, insurance: ins, inspection: insp}
}

func TestRunVINQueriesAllProviders(t *testing.T) {
	t.Parallel()

	reg, ins, insp, registry := newFakes()
	o, err := New(registry)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := o.Run(context.Background(), testVIN)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(got.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(got.Results))
	}
	want := []contractx.ProviderID{contractx.ProviderRegistration, contractx.ProviderInsurance, contractx.ProviderInspection}
	for i, id := range want {
		if got.Results[i].Provider != id {
			t.Fatalf("results[%d].Provider = %s, want %s", i, got.Results[i].Provider, id)
		}
	}
	if reg.calls[0].Report != contractx.ReportHistory {
		t.Fatalf("registration report = %q, want history", reg.calls[0].Report)
	}
	if ins.calls[0].Report != "" || insp.calls[0].Report != "" {
		t.Fatalf("non-registration providers must not receive a report kind")
	}
	for _, s := range []string{"ЛАДА 111930", "СОГАЗ", "0123"} {
		if !strings.Contains(got.Text, s) {
			t.Fatalf("consolidated text missing %q:\n%s", s, got.Text)
		}
	}
}

func TestRunPlateSkipsRegistration(t *testing.T) {
	t.Parallel()

	reg, ins, insp, registry := newFakes()
	o, _ := New(registry)

	got, err := o.Run(context.Background(), testPlate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(got.Results))
	}
	if reg.callCount() != 0 {
		t.Fatalf("registration called %d times for a plate", reg.callCount())
	}
	if ins.callCount() != 1 || insp.callCount() != 1 {
		t.Fatalf("insurance=%d inspection=%d calls, want 1 each", ins.callCount(), insp.callCount())
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	t.Parallel()

	reg, _, insp, registry := newFakes()
	reg.result = contractx.ProviderResult{Outcome: contractx.OutcomeTimeout}
	insp.result = contractx.ProviderResult{Outcome: contractx.OutcomeTimeout}
	o, _ := New(registry)

	got, err := o.Run(context.Background(), testVIN)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !got.Results[1].OK() {
		t.Fatalf("insurance result = %s, want success", got.Results[1].Outcome)
	}
	if n := strings.Count(got.Text, "Таймаут запроса"); n != 2 {
		t.Fatalf("timeout blocks = %d, want 2:\n%s", n, got.Text)
	}
	if !strings.Contains(got.Text, "СОГАЗ") {
		t.Fatalf("success block lost:\n%s", got.Text)
	}
}

func TestRunRunsProvidersConcurrently(t *testing.T) {
	t.Parallel()

	reg, ins, insp, registry := newFakes()
	b := newBarrier(3)
	reg.barrier, ins.barrier, insp.barrier = b, b, b
	o, _ := New(registry)

	if _, err := o.Run(context.Background(), testVIN); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !b.reached {
		t.Fatalf("providers were not in flight at the same time")
	}
}

func TestRunKeepsPlanOrderRegardlessOfCompletion(t *testing.T) {
	t.Parallel()

	reg, ins, _, registry := newFakes()
	reg.delay = 60 * time.Millisecond
	ins.delay = 30 * time.Millisecond
	o, _ := New(registry)

	got, err := o.Run(context.Background(), testVIN)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Results[0].Provider != contractx.ProviderRegistration || got.Results[2].Provider != contractx.ProviderInspection {
		t.Fatalf("results out of plan order: %+v", got.Results)
	}
	if got.Results[0].Elapsed <= 0 {
		t.Fatalf("elapsed not recorded")
	}
}

func TestRunRecoversProviderPanic(t *testing.T) {
	t.Parallel()

	_, ins, _, registry := newFakes()
	ins.panicMsg = "boom"
	o, _ := New(registry)

	_, err := o.Run(context.Background(), testVIN)
	if !errors.Is(err, contractx.ErrUnexpected) {
		t.Fatalf("Run() error = %v, want ErrUnexpected", err)
	}
}

func TestRunReport(t *testing.T) {
	t.Parallel()

	reg, ins, insp, registry := newFakes()
	reg.result = contractx.ProviderResult{
		Outcome: contractx.OutcomeSuccess,
		Payload: &contractx.WantedReport{Records: []contractx.WantedRecord{{Region: "Тверская обл."}}},
	}
	o, _ := New(registry)

	got, err := o.RunReport(context.Background(), testVIN, contractx.ReportWanted)
	if err != nil {
		t.Fatalf("RunReport() error = %v", err)
	}
	if len(got.Results) != 1 || got.Results[0].Report != contractx.ReportWanted {
		t.Fatalf("results = %+v", got.Results)
	}
	if ins.callCount() != 0 || insp.callCount() != 0 {
		t.Fatalf("report query must only call registration")
	}
	if !strings.Contains(got.Text, "Тверская обл.") {
		t.Fatalf("text = %q", got.Text)
	}
}

func TestRunReportRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	reg, _, _, registry := newFakes()
	o, _ := New(registry)

	if _, err := o.RunReport(context.Background(), testPlate, contractx.ReportAccident); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("RunReport(plate) error = %v, want ErrValidation", err)
	}
	if _, err := o.RunReport(context.Background(), testVIN, "mileage"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("RunReport(unknown) error = %v, want ErrValidation", err)
	}
	if reg.callCount() != 0 {
		t.Fatalf("invalid report input reached the provider")
	}
}

func TestExecuteMissingProvider(t *testing.T) {
	t.Parallel()

	_, _, _, registry := newFakes()
	registry.inspection = nil
	o, _ := New(registry)

	if _, err := o.Run(context.Background(), testPlate); !errors.Is(err, contractx.ErrConfiguration) {
		t.Fatalf("Run() error = %v, want ErrConfiguration", err)
	}
	if _, err := o.Execute(context.Background(), contractx.QueryRequest{Identifier: testVIN}); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("Execute(empty) error = %v, want ErrNoProviders", err)
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	t.Parallel()

	_, _, insp, registry := newFakes()
	insp.result = contractx.ProviderResult{Outcome: contractx.OutcomeNotFound}
	m := metrics.New(prometheus.NewRegistry())
	o, _ := New(registry, WithMetrics(m), WithConcurrency(1))

	if _, err := o.Run(context.Background(), testVIN); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := testutil.ToFloat64(m.ProviderOutcome.WithLabelValues("osago", "success")); got != 1 {
		t.Fatalf("osago success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ProviderOutcome.WithLabelValues("eaisto", "not_found")); got != 1 {
		t.Fatalf("eaisto not_found = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.QueryLatency); got != 1 {
		t.Fatalf("query latency series = %d, want 1", got)
	}
}
