// Package telegram bridges Telegram chats to the chat service. Every chat
// maps to one session, so the same history is visible over HTTP.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nova-api/internal/chat"
	"nova-api/internal/history"
)

const (
	resetCmd = "reset_ctx"

	sessionPrefix = "telegram-"
	userPrefix    = "telegram:"
)

type Bot struct {
	api    botAPI
	chat   *chat.Service
	logger *slog.Logger
}

func New(botToken string, svc *chat.Service, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newBot(api, svc, logger), nil
}

func newBot(api botAPI, svc *chat.Service, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{api: api, chat: svc, logger: logger.With("component", "telegram")}
}

// SessionID is the chat session backing a Telegram chat.
func SessionID(chatID int64) string {
	return sessionPrefix + strconv.FormatInt(chatID, 10)
}

// Start consumes updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram bridge started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bridge stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if update.Message.IsCommand() {
			b.handleCommand(update.Message)
			return
		}
		b.handleIncomingMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, "🚀 NOVA est prête. Écrivez votre message.")
	case "reset":
		b.reset(chatID)
	case "history":
		h, err := b.chat.History(SessionID(chatID))
		if errors.Is(err, history.ErrSessionNotFound) {
			b.sendMessage(chatID, "Aucun historique pour cette conversation.")
			return
		}
		if err != nil {
			b.logger.Error("history lookup failed", "chat_id", chatID, "error", err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("Historique : %d message(s).", h.MessageCount))
	default:
		b.sendMessage(chatID, "Commande inconnue. Disponibles : /reset, /history")
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Text == "" {
		return
	}
	userID := ""
	if msg.From != nil {
		userID = userPrefix + strconv.FormatInt(msg.From.ID, 10)
	}

	resp, err := b.chat.Send(ctx, chat.Request{
		Message:   msg.Text,
		UserID:    userID,
		SessionID: SessionID(msg.Chat.ID),
	})
	if err != nil {
		b.logger.Error("chat send failed", "chat_id", msg.Chat.ID, "error", err)
		b.sendMessage(msg.Chat.ID, "Désolé, une erreur est survenue.")
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, resp.Content)
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Réinitialiser", resetCmd),
		),
	)
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("failed to send reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Data != resetCmd || cb.Message == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", "error", err)
	}
	b.reset(cb.Message.Chat.ID)
}

func (b *Bot) reset(chatID int64) {
	err := b.chat.Clear(SessionID(chatID))
	switch {
	case err == nil, errors.Is(err, history.ErrSessionNotFound):
		b.sendMessage(chatID, "Contexte réinitialisé")
	default:
		b.logger.Error("reset failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}
