package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"alertwatch/pkg/logx"
)

// TelegramConfig points the telegram sink at one chat.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// TelegramSink delivers notifications as messages to a telegram chat.
// Dismissing a notification deletes the message.
//
// The bot handle is created lazily by Probe, so constructing the sink is
// cheap and the permission check maps onto actually reaching the API.
type TelegramSink struct {
	mu  sync.Mutex
	cfg TelegramConfig
	bot *tele.Bot
	log logx.Logger
}

func NewTelegramSink(cfg TelegramConfig, log logx.Logger) *TelegramSink {
	return &TelegramSink{cfg: cfg, log: log}
}

func (s *TelegramSink) Name() string { return "telegram" }

// Probe verifies the token against the Bot API and that the configured
// chat is reachable.
func (s *TelegramSink) Probe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.cfg.Token) == "" {
		return errors.New("telegram token is empty")
	}
	if s.cfg.ChatID == 0 {
		return errors.New("telegram chat_id is not set")
	}
	if s.bot == nil {
		b, err := tele.NewBot(tele.Settings{
			Token:  s.cfg.Token,
			Client: &http.Client{Timeout: 8 * time.Second},
		})
		if err != nil {
			return err
		}
		s.bot = b
	}
	_, err := s.bot.ChatByID(s.cfg.ChatID)
	return err
}

func (s *TelegramSink) Deliver(_ context.Context, n Notification) (Handle, error) {
	s.mu.Lock()
	bot := s.bot
	chatID := s.cfg.ChatID
	s.mu.Unlock()

	if bot == nil {
		return nil, errors.New("telegram sink not probed")
	}

	text := priorityTag(n.Priority) + " " + n.Title
	if n.Body != "" {
		text += "\n" + n.Body
	}
	msg, err := bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return nil, err
	}
	return &telegramHandle{bot: bot, msg: msg}, nil
}

type telegramHandle struct {
	bot *tele.Bot
	msg *tele.Message
}

func (h *telegramHandle) Dismiss(context.Context) error {
	return h.bot.Delete(h.msg)
}
