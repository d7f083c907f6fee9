package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"project_outreach/internal/entities"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ErrTelegramDisabled is returned when no bot token was configured.
var ErrTelegramDisabled = errors.New("telegram bot not configured")

// TelegramBot is the part of tgbotapi.BotAPI the sender needs.
type TelegramBot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// TelegramSender posts broadcasts to Telegram chats and channels with a
// single shared bot.
type TelegramSender struct {
	bot     TelegramBot
	api     *tgbotapi.BotAPI
	botName string
}

// NewTelegramSender connects with token. An empty token yields a sender
// whose every call fails with ErrTelegramDisabled.
func NewTelegramSender(token string) (*TelegramSender, error) {
	if token == "" {
		return &TelegramSender{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram token: %w", err)
	}
	return &TelegramSender{bot: bot, api: bot, botName: bot.Self.UserName}, nil
}

func NewTelegramSenderWithBot(bot TelegramBot, name string) *TelegramSender {
	return &TelegramSender{bot: bot, botName: name}
}

func (t *TelegramSender) Provider() string { return "telegram" }

func (t *TelegramSender) BotName() string { return t.botName }

func (t *TelegramSender) Enabled() bool { return t.bot != nil }

// messageFor addresses numeric chat ids directly and "@name" values as
// public channel usernames.
func messageFor(chat, text string) (tgbotapi.MessageConfig, error) {
	chat = strings.TrimSpace(chat)
	if strings.HasPrefix(chat, "@") {
		return tgbotapi.NewMessageToChannel(chat, text), nil
	}
	id, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid telegram chat %q", chat)
	}
	return tgbotapi.NewMessage(id, text), nil
}

func (t *TelegramSender) Send(ctx context.Context, msg entities.OutboundMessage) error {
	if t.bot == nil {
		return ErrTelegramDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := messageFor(msg.To, msg.Body)
	if err != nil {
		return err
	}
	m.ParseMode = tgbotapi.ModeHTML
	m.DisableWebPagePreview = true

	if _, err := t.bot.Send(m); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// ChatTitle checks that the bot can see chat and returns its title.
func (t *TelegramSender) ChatTitle(ctx context.Context, chat string) (string, error) {
	if t.bot == nil {
		return "", ErrTelegramDisabled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cfg := tgbotapi.ChatInfoConfig{}
	chat = strings.TrimSpace(chat)
	if strings.HasPrefix(chat, "@") {
		cfg.SuperGroupUsername = chat
	} else {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid telegram chat %q", chat)
		}
		cfg.ChatID = id
	}

	info, err := t.bot.GetChat(cfg)
	if err != nil {
		return "", fmt.Errorf("telegram get chat: %w", err)
	}
	if info.Title != "" {
		return info.Title, nil
	}
	return info.UserName, nil
}

// commandReply answers /chatid, sent in a group or channel the bot was
// added to, with the id to paste into a channel mapping.
func commandReply(u tgbotapi.Update) (tgbotapi.MessageConfig, bool) {
	msg := u.Message
	if msg == nil {
		msg = u.ChannelPost
	}
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return tgbotapi.MessageConfig{}, false
	}

	switch msg.Command() {
	case "chatid", "start":
		text := fmt.Sprintf("Chat ID for this chat: <code>%d</code>", msg.Chat.ID)
		reply := tgbotapi.NewMessage(msg.Chat.ID, text)
		reply.ParseMode = tgbotapi.ModeHTML
		return reply, true
	default:
		return tgbotapi.MessageConfig{}, false
	}
}

func (t *TelegramSender) handleUpdate(u tgbotapi.Update, log *zap.Logger) {
	reply, ok := commandReply(u)
	if !ok {
		return
	}
	if _, err := t.bot.Send(reply); err != nil {
		log.Warn("telegram command reply failed", zap.Int64("chat_id", reply.ChatID), zap.Error(err))
	}
}

// Listen long-polls the bot's updates until ctx is done. It only answers
// setup commands; broadcasts never depend on it.
func (t *TelegramSender) Listen(ctx context.Context, log *zap.Logger) {
	if t.api == nil {
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	log.Info("telegram bot listening", zap.String("bot", t.botName))

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(upd, log)
		}
	}
}
