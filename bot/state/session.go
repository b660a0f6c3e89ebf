package state

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

// Session is the per-user conversation record.
//   - Idle: nothing selected, no identifier retained.
//   - AwaitingIdentifier: Mode is set, waiting for a VIN or plate.
//   - Processing: a query for LastIdentifier is in flight; Report is set for a
//     single detail-report sub-query.
//   - DetailMenu: a VIN query finished and LastIdentifier is kept for reports.
type Session struct {
	UserID         int64                    `json:"user_id"`
	Stage          Stage                    `json:"stage"`
	Mode           contractx.IdentifierKind `json:"mode,omitempty"`
	LastIdentifier *contractx.Identifier    `json:"last_identifier,omitempty"`
	Report         contractx.ReportKind     `json:"report,omitempty"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

type Stage string

const (
	StageIdle               Stage = "idle"
	StageAwaitingIdentifier Stage = "awaiting_identifier"
	StageProcessing         Stage = "processing"
	StageDetailMenu         Stage = "detail_menu"
)

func NewSession(userID int64, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Stage:     StageIdle,
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Clone returns a deep copy so stored sessions never alias caller memory.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.LastIdentifier != nil {
		id := *s.LastIdentifier
		out.LastIdentifier = &id
	}
	return &out
}

/* ----------------------------- Transitions ----------------------------- */

// SelectMode moves the session to AwaitingIdentifier. Selecting a mode from
// the detail menu discards the retained identifier.
func (s *Session) SelectMode(kind contractx.IdentifierKind, now time.Time) error {
	if kind != contractx.KindVIN && kind != contractx.KindPlate {
		return fmt.Errorf("%w: unknown mode %q", contractx.ErrInvalidTransition, kind)
	}
	if s.Stage == StageProcessing {
		return fmt.Errorf("%w: cannot select mode while processing", contractx.ErrInvalidTransition)
	}

	s.Stage = StageAwaitingIdentifier
	s.Mode = kind
	s.LastIdentifier = nil
	s.Report = ""
	s.Touch(now)
	return nil
}

// BeginProcessing accepts a validated identifier of the selected mode.
func (s *Session) BeginProcessing(id contractx.Identifier, now time.Time) error {
	if s.Stage != StageAwaitingIdentifier {
		return fmt.Errorf("%w: begin processing from %s", contractx.ErrInvalidTransition, s.Stage)
	}
	if id.Kind != s.Mode {
		return fmt.Errorf("%w: identifier kind %s does not match mode %s", contractx.ErrInvalidTransition, id.Kind, s.Mode)
	}

	s.Stage = StageProcessing
	s.LastIdentifier = &id
	s.Report = ""
	s.Touch(now)
	return nil
}

// CompleteQuery ends a full query. Plate queries return to Idle with all
// fields cleared; VIN queries open the detail menu and keep the identifier.
func (s *Session) CompleteQuery(now time.Time) error {
	if s.Stage != StageProcessing || s.Report != "" {
		return fmt.Errorf("%w: complete query from %s", contractx.ErrInvalidTransition, s.Stage)
	}
	if s.LastIdentifier == nil || s.LastIdentifier.Kind != contractx.KindVIN {
		s.Reset(now)
		return nil
	}

	s.Stage = StageDetailMenu
	s.Touch(now)
	return nil
}

// BeginReport starts a single registration report for the retained VIN.
func (s *Session) BeginReport(report contractx.ReportKind, now time.Time) error {
	if s.Stage != StageDetailMenu || s.LastIdentifier == nil {
		return fmt.Errorf("%w: begin report from %s", contractx.ErrInvalidTransition, s.Stage)
	}
	if !report.Valid() {
		return fmt.Errorf("%w: unknown report %q", contractx.ErrInvalidTransition, report)
	}

	s.Stage = StageProcessing
	s.Report = report
	s.Touch(now)
	return nil
}

func (s *Session) CompleteReport(now time.Time) error {
	if s.Stage != StageProcessing || s.Report == "" {
		return fmt.Errorf("%w: complete report from %s", contractx.ErrInvalidTransition, s.Stage)
	}

	s.Stage = StageDetailMenu
	s.Report = ""
	s.Touch(now)
	return nil
}

// Reset returns to Idle from any stage and clears every field.
func (s *Session) Reset(now time.Time) {
	s.Stage = StageIdle
	s.Mode = ""
	s.LastIdentifier = nil
	s.Report = ""
	s.Touch(now)
}

func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil session", contractx.ErrValidation)
	}

	switch s.Stage {
	case StageIdle:
		if s.Mode != "" || s.LastIdentifier != nil || s.Report != "" {
			return fmt.Errorf("%w: idle session must be empty", contractx.ErrValidation)
		}
	case StageAwaitingIdentifier:
		if s.Mode != contractx.KindVIN && s.Mode != contractx.KindPlate {
			return fmt.Errorf("%w: awaiting identifier without mode", contractx.ErrValidation)
		}
	case StageProcessing:
		if s.LastIdentifier == nil {
			return fmt.Errorf("%w: processing without identifier", contractx.ErrValidation)
		}
		if s.Report != "" && !s.Report.Valid() {
			return fmt.Errorf("%w: report=%q", contractx.ErrValidation, s.Report)
		}
	case StageDetailMenu:
		if s.LastIdentifier == nil || s.LastIdentifier.Kind != contractx.KindVIN {
			return fmt.Errorf("%w: detail menu requires a retained vin", contractx.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: stage=%q", contractx.ErrValidation, s.Stage)
	}
	return nil
}
