package config

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramHandler handles Telegram commands for the config feature
type TelegramHandler struct {
	configManager *Manager
}

// NewTelegramHandler creates a new Telegram handler for the config feature
func NewTelegramHandler(configManager *Manager) *TelegramHandler {
	return &TelegramHandler{configManager: configManager}
}

// HandleCommand processes config-related Telegram commands
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	if command != "config" {
		return fmt.Errorf("unknown config command %q", command)
	}
	format := "yaml"
	body := h.configManager.GetYAML()
	if strings.TrimSpace(args) == "json" {
		format = "json"
		body = h.configManager.GetJSON()
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("⚙️ *Configuration*\n\n```%s\n%s\n```", format, body))
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := bot.Send(msg)
	return err
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"config": "Show configuration (/config json for JSON)",
	}
}

// HandleCallback handles callback queries for this feature (config has no callbacks)
func (h *TelegramHandler) HandleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) bool {
	return false
}
