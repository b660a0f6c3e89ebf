package dialognode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	statex "github.com/tanpawarit/autocheck-bot/bot/state"
)

// Deps are the collaborators RouteInput needs beyond the graph state.
type Deps struct {
	Store    statex.Store
	Queries  contractx.QueryRunner
	Notifier contractx.Notifier
}

type intentKind int

const (
	intentUnknown intentKind = iota
	intentMenu
	intentAbout
	intentCheckAPI
	intentSelectMode
	intentReport
	intentIdentifier
)

type intent struct {
	kind   intentKind
	mode   contractx.IdentifierKind
	report contractx.ReportKind
}

// RouteInput applies one inbound event to the session and builds the reply.
func RouteInput(ctx context.Context, in *GraphState, deps Deps) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	it := classify(in.Text, in.Action, in.Session)
	log.Debug().
		Int64("user_id", in.UserID).
		Str("stage", string(in.Session.Stage)).
		Int("intent", int(it.kind)).
		Msg("route input")

	switch it.kind {
	case intentMenu:
		in.Session.Reset(in.Now)
		in.Reply = contractx.Reply{Text: textWelcome, Keyboard: contractx.KeyboardMain}
	case intentAbout:
		in.Reply = contractx.Reply{Text: textAbout, Keyboard: contractx.KeyboardMain}
	case intentSelectMode:
		return selectMode(in, it.mode)
	case intentCheckAPI:
		return checkAPI(ctx, in, deps)
	case intentIdentifier:
		return runQuery(ctx, in, deps)
	case intentReport:
		return runReport(ctx, in, deps, it.report)
	default:
		in.Reply = contractx.Reply{Text: textNavigationHint, Keyboard: contractx.KeyboardMain}
	}
	return in, nil
}

func classify(text, action string, st *statex.Session) intent {
	if action != "" {
		if action == contractx.ActionBack {
			return intent{kind: intentMenu}
		}
		if report, ok := contractx.ParseReportAction(action); ok {
			return intent{kind: intentReport, report: report}
		}
		return intent{kind: intentUnknown}
	}

	switch cmd := command(text); {
	case cmd == "/start" || cmd == "/menu" || text == contractx.ButtonBack:
		return intent{kind: intentMenu}
	case cmd == "/about" || cmd == "/help" || text == contractx.ButtonAbout:
		return intent{kind: intentAbout}
	case cmd == "/checkapi":
		return intent{kind: intentCheckAPI}
	case cmd == "/vin" || text == contractx.ButtonVIN:
		return intent{kind: intentSelectMode, mode: contractx.KindVIN}
	case cmd == "/plate" || text == contractx.ButtonPlate:
		return intent{kind: intentSelectMode, mode: contractx.KindPlate}
	case cmd != "":
		return intent{kind: intentUnknown}
	}

	if st.Stage == statex.StageAwaitingIdentifier {
		return intent{kind: intentIdentifier}
	}
	return intent{kind: intentUnknown}
}

// command returns the bot command of a message ("/start@bot arg" -> "/start"),
// or "" when the text is not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}

func selectMode(in *GraphState, mode contractx.IdentifierKind) (*GraphState, error) {
	if err := in.Session.SelectMode(mode, in.Now); err != nil {
		return nil, err
	}

	prompt := textPromptPlate
	if mode == contractx.KindVIN {
		prompt = textPromptVIN
	}
	in.Reply = contractx.Reply{Text: prompt, Keyboard: contractx.KeyboardBack}
	return in, nil
}
