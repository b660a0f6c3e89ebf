package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

type fakeAPI struct {
	mu       sync.Mutex
	updates  chan tgbotapi.Update
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

type recordingHandler struct {
	mu     sync.Mutex
	events []contractx.Event
	err    error
}

func (h *recordingHandler) HandleMessage(ctx context.Context, ev contractx.Event) (contractx.Reply, error) {
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()
	if h.err != nil {
		return contractx.Reply{}, h.err
	}
	if ev.Action != "" {
		return contractx.Reply{Text: "action " + ev.Action, Keyboard: contractx.KeyboardReports}, nil
	}
	return contractx.Reply{Text: "echo " + ev.Text, Keyboard: contractx.KeyboardMain}, nil
}

func TestRunHandlesMessagesAndCallbacks(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	handler := &recordingHandler{}
	bot := NewWithAPI(api, Config{Workers: 2})

	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 10},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: "/start",
	}}
	api.updates <- tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 10},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
		Data:    contractx.ActionBack,
	}}
	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 10},
		Chat: &tgbotapi.Chat{ID: 100},
	}}
	close(api.updates)

	require.NoError(t, bot.Run(context.Background(), handler))

	require.Len(t, handler.events, 2, "empty message must be ignored")
	require.Len(t, api.sent, 2)
	require.Len(t, api.requests, 1, "callback must be answered")

	byText := map[string]tgbotapi.MessageConfig{}
	for _, m := range api.sent {
		assert.Equal(t, int64(100), m.ChatID)
		byText[m.Text] = m
	}

	start, ok := byText["echo /start"]
	require.True(t, ok)
	_, isReply := start.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	assert.True(t, isReply)

	back, ok := byText["action "+contractx.ActionBack]
	require.True(t, ok)
	_, isInline := back.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.True(t, isInline)
}

func TestRunSendsFailureReplyOnHandlerError(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	handler := &recordingHandler{err: errors.New("store down")}
	failure := contractx.Reply{Text: "⚠️ failure", Keyboard: contractx.KeyboardMain}
	bot := NewWithAPI(api, Config{}, WithFailureReply(failure))

	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 1},
		Text: "hello",
	}}
	close(api.updates)

	require.NoError(t, bot.Run(context.Background(), handler))
	require.Len(t, api.sent, 1)
	assert.Equal(t, "⚠️ failure", api.sent[0].Text)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	bot := NewWithAPI(api, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, bot.Run(ctx, &recordingHandler{}))
	assert.True(t, api.stopped)
}

func TestNotifyWithoutKeyboard(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	bot := NewWithAPI(api, Config{})

	require.NoError(t, bot.Notify(context.Background(), 5, contractx.Reply{Text: "🔍 Запрашиваю данные..."}))
	require.Len(t, api.sent, 1)
	assert.Nil(t, api.sent[0].ReplyMarkup)
}

func TestMarkupReports(t *testing.T) {
	t.Parallel()

	markup, ok := Markup(contractx.KeyboardReports).(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)

	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			require.NotNil(t, btn.CallbackData)
			data = append(data, *btn.CallbackData)
		}
	}
	assert.Equal(t, []string{
		"report:history", "report:accident", "report:wanted", "report:restriction", contractx.ActionBack,
	}, data)
	assert.Nil(t, Markup(contractx.KeyboardNone))
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	short := "📊 Результаты"
	assert.Equal(t, []string{short}, splitMessage(short, 20))

	line := strings.Repeat("я", 8) + "\n"
	text := strings.Repeat(line, 5)
	parts := splitMessage(text, 20)
	require.Len(t, parts, 3)
	assert.Equal(t, text, strings.Join(parts, ""))
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 20)
	}

	long := strings.Repeat("ж", 45)
	parts = splitMessage(long, 20)
	require.Len(t, parts, 3)
	assert.Equal(t, long, strings.Join(parts, ""))
}
