package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"alert_relay/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Notifier interface {
	Send(msg string) error
}

// pollTimeout is the long-polling window of getUpdates, in seconds.
const pollTimeout = 30

// StatusFunc renders the answer to the /status command.
type StatusFunc func() string

// Sender is the part of the bot API the notifier uses.
type Sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram: пассивный нотифайер + обработка одной команды /status.
type Telegram struct {
	bot    Sender
	chatID int64
	status StatusFunc
}

// NewTelegram builds the bot on a client whose requests never outlive the
// long-polling window plus timeout.
func NewTelegram(token string, chatID int64, timeout time.Duration, status StatusFunc) (*Telegram, error) {
	client := &http.Client{Timeout: pollTimeout*time.Second + timeout}
	b, err := tgbot.NewBotAPIWithClient(token, tgbot.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegram(b, chatID, status), nil
}

func newTelegram(bot Sender, chatID int64, status StatusFunc) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, status: status}
}

func (t *Telegram) Send(msg string) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return nil
	}
	_, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg))
	return err
}

// Start: long-polling для messages, отвечает только своему чату.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = pollTimeout
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				t.handle(upd)
			}
		}
	}()
	return nil
}

func (t *Telegram) handle(upd tgbot.Update) {
	if upd.Message == nil || upd.Message.Chat == nil ||
		upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
		return
	}
	switch upd.Message.Command() {
	case "status":
		msg := "no status available"
		if t.status != nil {
			msg = t.status()
		}
		if err := t.Send(msg); err != nil {
			logger.L().Warn("telegram status reply failed", zap.Error(err))
		}
	}
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

// Stdout: заглушка, всё пишет в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(msg string) error {
	logger.L().Info("notify", zap.String("message", msg))
	return nil
}
