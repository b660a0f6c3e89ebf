package dialognode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	"github.com/tanpawarit/autocheck-bot/bot/identifier"
)

func runQuery(ctx context.Context, in *GraphState, deps Deps) (*GraphState, error) {
	st := in.Session

	id, err := identifier.Validate(in.Text, st.Mode)
	if err != nil {
		log.Debug().Int64("user_id", in.UserID).Err(err).Msg("identifier rejected")
		text := textInvalidPlate
		if st.Mode == contractx.KindVIN {
			text = textInvalidVIN
		}
		in.Reply = contractx.Reply{Text: text, Keyboard: contractx.KeyboardBack}
		return in, nil
	}

	if err := st.BeginProcessing(id, in.Now); err != nil {
		return nil, err
	}
	if err := deps.Store.Save(ctx, st); err != nil {
		return nil, err
	}
	notify(ctx, deps, in, contractx.Reply{Text: textProgress, Keyboard: contractx.KeyboardBack})

	res, err := deps.Queries.Run(ctx, id)
	if err != nil {
		return queryFailed(in, err), nil
	}
	if err := st.CompleteQuery(in.Now); err != nil {
		return nil, err
	}

	text := textResultsHeader + "\n\n" + res.Text + "\n\n"
	if id.Kind == contractx.KindVIN {
		in.Reply = contractx.Reply{Text: text + textDetailPrompt, Keyboard: contractx.KeyboardReports}
	} else {
		in.Reply = contractx.Reply{Text: text + textNewQueryPrompt, Keyboard: contractx.KeyboardMain}
	}
	return in, nil
}

func runReport(ctx context.Context, in *GraphState, deps Deps, report contractx.ReportKind) (*GraphState, error) {
	st := in.Session

	if !report.Valid() {
		in.Reply = contractx.Reply{Text: textUnknownReport, Keyboard: contractx.KeyboardReports}
		return in, nil
	}
	if err := st.BeginReport(report, in.Now); err != nil {
		log.Debug().Int64("user_id", in.UserID).Err(err).Msg("report requested outside detail menu")
		st.Reset(in.Now)
		in.Reply = contractx.Reply{Text: textReportUnavailable, Keyboard: contractx.KeyboardMain}
		return in, nil
	}
	if err := deps.Store.Save(ctx, st); err != nil {
		return nil, err
	}
	notify(ctx, deps, in, contractx.Reply{Text: textProgress})

	id := *st.LastIdentifier
	res, err := deps.Queries.RunReport(ctx, id, report)
	if err != nil {
		return queryFailed(in, err), nil
	}
	if err := st.CompleteReport(in.Now); err != nil {
		return nil, err
	}

	in.Reply = contractx.Reply{
		Text:     fmt.Sprintf(textReportHeader, id.Value) + "\n\n" + res.Text + "\n\n" + textDetailPrompt,
		Keyboard: contractx.KeyboardReports,
	}
	return in, nil
}

// checkAPI runs the full VIN fan-out on a known vehicle without touching the
// session.
func checkAPI(ctx context.Context, in *GraphState, deps Deps) (*GraphState, error) {
	notify(ctx, deps, in, contractx.Reply{Text: textCheckingAPI})

	id := contractx.Identifier{Kind: contractx.KindVIN, Value: DiagnosticVIN}
	res, err := deps.Queries.Run(ctx, id)
	if err != nil {
		return queryFailed(in, err), nil
	}

	in.Reply = contractx.Reply{Text: textAPIResultsHeader + "\n\n" + res.Text, Keyboard: contractx.KeyboardMain}
	return in, nil
}

// queryFailed turns an unexpected orchestrator error into the generic
// failure reply and returns the user to the main menu.
func queryFailed(in *GraphState, err error) *GraphState {
	log.Error().Err(err).Int64("user_id", in.UserID).Msg("query failed")
	in.Session.Reset(in.Now)
	in.Reply = contractx.Reply{Text: TextQueryFailed, Keyboard: contractx.KeyboardMain}
	return in
}

func notify(ctx context.Context, deps Deps, in *GraphState, reply contractx.Reply) {
	if deps.Notifier == nil {
		return
	}
	if err := deps.Notifier.Notify(ctx, in.ChatID, reply); err != nil {
		log.Warn().Err(err).Int64("chat_id", in.ChatID).Msg("progress notice failed")
	}
}
