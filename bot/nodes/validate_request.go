package dialognode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	statex "github.com/tanpawarit/autocheck-bot/bot/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidUser    = errors.New("user id is empty")
)

type GraphInput struct {
	UserID int64
	ChatID int64
	Text   string
	Action string
}

type GraphOutput struct {
	Reply contractx.Reply
}

type GraphState struct {
	UserID int64
	ChatID int64
	Text   string
	Action string
	Now    time.Time

	Session *statex.Session

	Reply contractx.Reply
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if in.UserID == 0 {
		return nil, ErrInvalidUser
	}

	text := strings.TrimSpace(in.Text)
	action := strings.TrimSpace(in.Action)
	if text == "" && action == "" {
		return nil, ErrInvalidMessage
	}

	chatID := in.ChatID
	if chatID == 0 {
		chatID = in.UserID
	}

	return &GraphState{
		UserID: in.UserID,
		ChatID: chatID,
		Text:   text,
		Action: action,
		Now:    nowFn().UTC(),
	}, nil
}
