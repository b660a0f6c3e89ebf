package state

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

var (
	testNow   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testVIN   = contractx.Identifier{Kind: contractx.KindVIN, Value: "XTA111930B0134057"}
	testPlate = contractx.Identifier{Kind: contractx.KindPlate, Value: "А123БВ777"}
)

func TestSessionVINFlow(t *testing.T) {
	t.Parallel()

	s := NewSession(42, testNow)
	if s.Stage != StageIdle {
		t.Fatalf("new session stage = %s, want idle", s.Stage)
	}

	if err := s.SelectMode(contractx.KindVIN, testNow); err != nil {
		t.Fatalf("SelectMode() error = %v", err)
	}
	if s.Stage != StageAwaitingIdentifier || s.Mode != contractx.KindVIN {
		t.Fatalf("after SelectMode: stage=%s mode=%s", s.Stage, s.Mode)
	}

	if err := s.BeginProcessing(testVIN, testNow); err != nil {
		t.Fatalf("BeginProcessing() error = %v", err)
	}
	if s.Stage != StageProcessing {
		t.Fatalf("stage = %s, want processing", s.Stage)
	}

	if err := s.CompleteQuery(testNow); err != nil {
		t.Fatalf("CompleteQuery() error = %v", err)
	}
	if s.Stage != StageDetailMenu {
		t.Fatalf("stage = %s, want detail_menu", s.Stage)
	}
	if s.LastIdentifier == nil || *s.LastIdentifier != testVIN {
		t.Fatalf("last identifier = %+v, want %+v", s.LastIdentifier, testVIN)
	}

	for _, report := range contractx.ReportKinds {
		if err := s.BeginReport(report, testNow); err != nil {
			t.Fatalf("BeginReport(%s) error = %v", report, err)
		}
		if s.Stage != StageProcessing || s.Report != report {
			t.Fatalf("after BeginReport(%s): stage=%s report=%s", report, s.Stage, s.Report)
		}
		if err := s.CompleteReport(testNow); err != nil {
			t.Fatalf("CompleteReport() error = %v", err)
		}
		if s.Stage != StageDetailMenu || s.LastIdentifier == nil {
			t.Fatalf("after CompleteReport: stage=%s identifier=%v", s.Stage, s.LastIdentifier)
		}
	}

	s.Reset(testNow)
	if s.Stage != StageIdle || s.Mode != "" || s.LastIdentifier != nil || s.Report != "" {
		t.Fatalf("after Reset: %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestSessionPlateFlowReturnsToIdle(t *testing.T) {
	t.Parallel()

	s := NewSession(7, testNow)
	if err := s.SelectMode(contractx.KindPlate, testNow); err != nil {
		t.Fatalf("SelectMode() error = %v", err)
	}
	if err := s.BeginProcessing(testPlate, testNow); err != nil {
		t.Fatalf("BeginProcessing() error = %v", err)
	}
	if err := s.CompleteQuery(testNow); err != nil {
		t.Fatalf("CompleteQuery() error = %v", err)
	}

	if s.Stage != StageIdle || s.Mode != "" || s.LastIdentifier != nil {
		t.Fatalf("plate completion should clear the session, got %+v", s)
	}
}

func TestSessionInvalidTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		setup func(s *Session)
		apply func(s *Session) error
	}{
		{
			name:  "begin processing from idle",
			setup: func(s *Session) {},
			apply: func(s *Session) error { return s.BeginProcessing(testVIN, testNow) },
		},
		{
			name: "begin processing with wrong kind",
			setup: func(s *Session) {
				_ = s.SelectMode(contractx.KindPlate, testNow)
			},
			apply: func(s *Session) error { return s.BeginProcessing(testVIN, testNow) },
		},
		{
			name:  "complete query from idle",
			setup: func(s *Session) {},
			apply: func(s *Session) error { return s.CompleteQuery(testNow) },
		},
		{
			name: "begin report while awaiting",
			setup: func(s *Session) {
				_ = s.SelectMode(contractx.KindVIN, testNow)
			},
			apply: func(s *Session) error { return s.BeginReport(contractx.ReportAccident, testNow) },
		},
		{
			name: "begin unknown report",
			setup: func(s *Session) {
				_ = s.SelectMode(contractx.KindVIN, testNow)
				_ = s.BeginProcessing(testVIN, testNow)
				_ = s.CompleteQuery(testNow)
			},
			apply: func(s *Session) error { return s.BeginReport("mileage", testNow) },
		},
		{
			name: "complete report during full query",
			setup: func(s *Session) {
				_ = s.SelectMode(contractx.KindVIN, testNow)
				_ = s.BeginProcessing(testVIN, testNow)
			},
			apply: func(s *Session) error { return s.CompleteReport(testNow) },
		},
		{
			name: "select mode while processing",
			setup: func(s *Session) {
				_ = s.SelectMode(contractx.KindVIN, testNow)
				_ = s.BeginProcessing(testVIN, testNow)
			},
			apply: func(s *Session) error { return s.SelectMode(contractx.KindPlate, testNow) },
		},
		{
			name:  "select unknown mode",
			setup: func(s *Session) {},
			apply: func(s *Session) error { return s.SelectMode("passport", testNow) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := NewSession(1, testNow)
			tc.setup(s)
			before := *s.Clone()

			err := tc.apply(s)
			if !errors.Is(err, contractx.ErrInvalidTransition) {
				t.Fatalf("error = %v, want ErrInvalidTransition", err)
			}
			if s.Stage != before.Stage || s.Mode != before.Mode || s.Report != before.Report {
				t.Fatalf("rejected transition mutated session: before=%+v after=%+v", before, *s)
			}
		})
	}
}

func TestSessionSelectModeFromDetailMenuDropsIdentifier(t *testing.T) {
	t.Parallel()

	s := NewSession(1, testNow)
	_ = s.SelectMode(contractx.KindVIN, testNow)
	_ = s.BeginProcessing(testVIN, testNow)
	_ = s.CompleteQuery(testNow)

	if err := s.SelectMode(contractx.KindPlate, testNow); err != nil {
		t.Fatalf("SelectMode() error = %v", err)
	}
	if s.LastIdentifier != nil {
		t.Fatalf("last identifier should be discarded, got %+v", s.LastIdentifier)
	}
}

func TestSessionCloneDoesNotAlias(t *testing.T) {
	t.Parallel()

	s := NewSession(1, testNow)
	_ = s.SelectMode(contractx.KindVIN, testNow)
	_ = s.BeginProcessing(testVIN, testNow)

	cp := s.Clone()
	cp.LastIdentifier.Value = "CHANGED"
	if s.LastIdentifier.Value != testVIN.Value {
		t.Fatalf("clone aliases identifier: %s", s.LastIdentifier.Value)
	}
}

func TestSessionValidate(t *testing.T) {
	t.Parallel()

	plate := testPlate
	cases := []struct {
		name string
		in   Session
	}{
		{name: "unknown stage", in: Session{Stage: "lost"}},
		{name: "idle with mode", in: Session{Stage: StageIdle, Mode: contractx.KindVIN}},
		{name: "awaiting without mode", in: Session{Stage: StageAwaitingIdentifier}},
		{name: "processing without identifier", in: Session{Stage: StageProcessing}},
		{name: "detail menu with plate", in: Session{Stage: StageDetailMenu, LastIdentifier: &plate}},
	}

	for _, tc := range cases {
		if err := tc.in.Validate(); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("%s: Validate() error = %v, want ErrValidation", tc.name, err)
		}
	}
}
