// Package telegram connects the dialog service to the Telegram Bot API using
// long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	"github.com/tanpawarit/autocheck-bot/bot/metrics"
)

// MaxMessageLength is the Telegram limit for one text message, in characters.
const MaxMessageLength = 4096

type Config struct {
	Token       string        `envconfig:"TOKEN"`
	Workers     int           `envconfig:"WORKERS" default:"16"`
	PollTimeout time.Duration `envconfig:"POLL_TIMEOUT" split_words:"true" default:"60s"`
	Debug       bool          `envconfig:"DEBUG" default:"false"`
}

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler turns one chat event into a reply.
type Handler interface {
	HandleMessage(ctx context.Context, ev contractx.Event) (contractx.Reply, error)
}

type Option func(*Bot)

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bot) {
		b.metrics = m
	}
}

// WithFailureReply sets the reply sent when the handler returns an error.
func WithFailureReply(reply contractx.Reply) Option {
	return func(b *Bot) {
		if strings.TrimSpace(reply.Text) != "" {
			b.failure = reply
		}
	}
}

type Bot struct {
	api         API
	workers     int
	pollTimeout time.Duration
	metrics     *metrics.Metrics
	failure     contractx.Reply
}

// New connects to the Bot API and verifies the token.
func New(cfg Config, opts ...Option) (*Bot, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("%w: bot token is required", contractx.ErrConfiguration)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = cfg.Debug
	log.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")

	return NewWithAPI(api, cfg, opts...), nil
}

func NewWithAPI(api API, cfg Config, opts ...Option) *Bot {
	b := &Bot{
		api:         api,
		workers:     cfg.Workers,
		pollTimeout: cfg.PollTimeout,
		failure: contractx.Reply{
			Text:     "⚠️ Произошла ошибка. Попробуйте позже.",
			Keyboard: contractx.KeyboardMain,
		},
	}
	if b.workers <= 0 {
		b.workers = 16
	}
	if b.pollTimeout <= 0 {
		b.pollTimeout = 60 * time.Second
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Run polls for updates until ctx is done or the update channel closes.
// Each update is handled on its own goroutine, bounded by the worker count.
func (b *Bot) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("update handler is required")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.pollTimeout / time.Second)
	updates := b.api.GetUpdatesChan(u)

	var g errgroup.Group
	g.SetLimit(b.workers)

	log.Info().Int("workers", b.workers).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			_ = g.Wait()
			log.Info().Msg("telegram polling stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				_ = g.Wait()
				return nil
			}
			g.Go(func() error {
				b.handleUpdate(ctx, handler, upd)
				return nil
			})
		}
	}
}

// Notify implements contract.Notifier.
func (b *Bot) Notify(ctx context.Context, chatID int64, reply contractx.Reply) error {
	return b.send(ctx, chatID, reply)
}

func (b *Bot) handleUpdate(ctx context.Context, handler Handler, upd tgbotapi.Update) {
	ev, kind, ok := b.event(upd)
	if !ok {
		b.metrics.IncrementUpdate("other", "ignored")
		return
	}

	logger := log.With().Int64("user_id", ev.UserID).Str("kind", kind).Logger()

	reply, err := handler.HandleMessage(ctx, ev)
	if err != nil {
		logger.Error().Err(err).Msg("handle update")
		b.metrics.IncrementUpdate(kind, "error")
		reply = b.failure
	} else {
		b.metrics.IncrementUpdate(kind, "ok")
	}

	if err := b.send(ctx, ev.ChatID, reply); err != nil {
		logger.Error().Err(err).Msg("send reply")
	}
}

func (b *Bot) event(upd tgbotapi.Update) (contractx.Event, string, bool) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		cq := upd.CallbackQuery
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.Warn().Err(err).Msg("answer callback query")
		}
		chatID := cq.From.ID
		if cq.Message != nil && cq.Message.Chat != nil {
			chatID = cq.Message.Chat.ID
		}
		return contractx.Event{UserID: cq.From.ID, ChatID: chatID, Action: cq.Data}, "callback", cq.Data != ""
	case upd.Message != nil && upd.Message.From != nil && upd.Message.Chat != nil:
		m := upd.Message
		return contractx.Event{UserID: m.From.ID, ChatID: m.Chat.ID, Text: m.Text}, "message", strings.TrimSpace(m.Text) != ""
	default:
		return contractx.Event{}, "", false
	}
}

// send delivers a reply, splitting text that exceeds the message limit.
// The keyboard is attached to the last part.
func (b *Bot) send(ctx context.Context, chatID int64, reply contractx.Reply) error {
	parts := splitMessage(reply.Text, MaxMessageLength)
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 {
			if markup := Markup(reply.Keyboard); markup != nil {
				msg.ReplyMarkup = markup
			}
		}
		if _, err := b.api.Send(msg); err != nil {
			return fmt.Errorf("send message chat_id=%d: %w", chatID, err)
		}
	}
	return nil
}

// splitMessage cuts text into parts of at most limit characters, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return parts
}
