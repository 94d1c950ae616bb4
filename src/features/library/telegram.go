package library

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const scanTimeout = 5 * time.Minute

// TelegramHandler handles Telegram commands for the library feature
type TelegramHandler struct {
	service *Service
}

// NewTelegramHandler creates a new Telegram handler for the library feature
func NewTelegramHandler(service *Service) *TelegramHandler {
	return &TelegramHandler{service: service}
}

// HandleCommand processes library-related Telegram commands
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	switch command {
	case "stats":
		return h.sendStats(bot, chatID, "📊 *Library*")
	case "scan":
		if _, err := bot.Send(tgbotapi.NewMessage(chatID, "🔄 Scanning library...")); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()
		if err := h.service.Refresh(ctx); err != nil {
			_, sendErr := bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ Scan failed: %v", err)))
			if sendErr != nil {
				return sendErr
			}
			return err
		}
		return h.sendStats(bot, chatID, "✅ *Scan finished*")
	default:
		return fmt.Errorf("unknown library command %q", command)
	}
}

func (h *TelegramHandler) sendStats(bot *tgbotapi.BotAPI, chatID int64, header string) error {
	stats := h.service.Stats()
	text := fmt.Sprintf("%s\n\nTracks: %d\nArtists: %d\nAlbums: %d", header, stats.Tracks, stats.Artists, stats.Albums)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := bot.Send(msg)
	return err
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"stats": "Show library statistics",
		"scan":  "Rescan the music folder",
	}
}

// HandleCallback handles callback queries for this feature
func (h *TelegramHandler) HandleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) bool {
	if callback.Data != "library_stats" {
		return false
	}
	if err := h.sendStats(bot, callback.Message.Chat.ID, "📊 *Library*"); err != nil {
		return false
	}
	return true
}
