package equalizer

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramHandler handles Telegram commands for the equalizer feature
type TelegramHandler struct {
	service *Service
}

// NewTelegramHandler creates a new Telegram handler for the equalizer feature
func NewTelegramHandler(service *Service) *TelegramHandler {
	return &TelegramHandler{service: service}
}

// HandleCommand processes equalizer-related Telegram commands.
// "/eq" shows the profile, "/eq save" persists it and "/eq reload" discards unsaved edits.
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	if command != "eq" {
		return fmt.Errorf("unknown equalizer command %q", command)
	}
	switch strings.TrimSpace(args) {
	case "":
	case "save":
		if err := h.service.Save(context.Background()); err != nil {
			_, sendErr := bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ %v", err)))
			if sendErr != nil {
				return sendErr
			}
			return err
		}
	case "reload":
		h.service.Load(context.Background())
	default:
		_, err := bot.Send(tgbotapi.NewMessage(chatID, "Usage: /eq [save|reload]"))
		return err
	}
	msg := tgbotapi.NewMessage(chatID, h.summary())
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := bot.Send(msg)
	return err
}

func (h *TelegramHandler) summary() string {
	var sb strings.Builder
	sb.WriteString("🎚 *Equalizer*\n\n")
	filters := h.service.ByFrequency()
	if len(filters) == 0 {
		sb.WriteString("No filters\n")
	}
	for _, f := range filters {
		sb.WriteString(fmt.Sprintf("`%-10s %7.0f Hz %+5.1f dB q %.2f`\n", f.TypeName(), f.Frequency, f.Gain, f.Q))
	}
	plan := h.service.Plan()
	sb.WriteString(fmt.Sprintf("\nStages: %d, skipped: %d\nMaster level: %.4f", len(plan.Stages), len(plan.Skipped), plan.MasterLevel))
	return sb.String()
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"eq": "Show the equalizer (/eq save, /eq reload)",
	}
}

// HandleCallback handles callback queries for this feature
func (h *TelegramHandler) HandleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) bool {
	if callback.Data != "eq_show" {
		return false
	}
	msg := tgbotapi.NewMessage(callback.Message.Chat.ID, h.summary())
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := bot.Send(msg)
	return err == nil
}
