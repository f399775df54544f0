package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink sends notifications to a Telegram chat
type TelegramSink struct {
	token    string
	chatID   int64
	endpoint string
	client   *http.Client

	mu  sync.RWMutex
	bot *tgbotapi.BotAPI
}

// NewTelegramSink creates a sink for chatID. The bot is created in Configure.
func NewTelegramSink(token string, chatID int64) *TelegramSink {
	return &TelegramSink{
		token:    token,
		chatID:   chatID,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the sink name
func (s *TelegramSink) Name() string { return "telegram" }

// Configure authenticates the bot token against the Bot API
func (s *TelegramSink) Configure(_ context.Context) error {
	bot, err := tgbotapi.NewBotAPIWithClient(s.token, s.endpoint, s.client)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	s.mu.Lock()
	s.bot = bot
	s.mu.Unlock()
	return nil
}

// Send posts "<title>: <message>" to the chat
func (s *TelegramSink) Send(_ context.Context, n Notification) error {
	s.mu.RLock()
	bot := s.bot
	s.mu.RUnlock()
	if bot == nil {
		return errors.New("telegram sink not configured")
	}

	msg := tgbotapi.NewMessage(s.chatID, n.Title+": "+n.Message)
	msg.DisableNotification = n.Level != LevelError
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
