package dialognode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	text := strings.TrimSpace(in.Reply.Text)
	if text == "" {
		return GraphOutput{}, fmt.Errorf("%w: route produced an empty reply", contractx.ErrValidation)
	}
	return GraphOutput{Reply: contractx.Reply{Text: text, Keyboard: in.Reply.Keyboard}}, nil
}
