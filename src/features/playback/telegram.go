package playback

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramHandler handles Telegram commands for the playback feature
type TelegramHandler struct {
	service *Service
}

// NewTelegramHandler creates a new Telegram handler for the playback feature
func NewTelegramHandler(service *Service) *TelegramHandler {
	return &TelegramHandler{service: service}
}

// HandleCommand processes playback-related Telegram commands
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	ctx := context.Background()
	var note string
	switch command {
	case "now":
	case "next":
		status, err := h.service.Next(ctx)
		if err != nil {
			return h.reportError(bot, chatID, err)
		}
		note = statusNote(status)
	case "prev":
		status, err := h.service.Previous(ctx)
		if err != nil {
			return h.reportError(bot, chatID, err)
		}
		note = statusNote(status)
	case "pause":
		if err := h.service.Toggle(ctx); err != nil {
			return h.reportError(bot, chatID, err)
		}
	case "play":
		album, title, found := strings.Cut(args, "|")
		album, title = strings.TrimSpace(album), strings.TrimSpace(title)
		if !found || album == "" || title == "" {
			_, err := bot.Send(tgbotapi.NewMessage(chatID, "Usage: /play <album> | <title>"))
			return err
		}
		queued, err := h.service.PlayAlbum(ctx, album, title)
		if err != nil {
			return h.reportError(bot, chatID, err)
		}
		if !queued {
			note = "Playing a single track"
		}
	default:
		return fmt.Errorf("unknown playback command %q", command)
	}
	return h.sendNowPlaying(bot, chatID, note)
}

func statusNote(status Status) string {
	switch status {
	case StatusEmpty:
		return "Queue is empty"
	case StatusEndOfQueue:
		return "End of queue"
	case StatusRestarted:
		return "Restarted track"
	default:
		return ""
	}
}

func (h *TelegramHandler) reportError(bot *tgbotapi.BotAPI, chatID int64, err error) error {
	if _, sendErr := bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ %v", err))); sendErr != nil {
		return sendErr
	}
	return err
}

func (h *TelegramHandler) sendNowPlaying(bot *tgbotapi.BotAPI, chatID int64, note string) error {
	var sb strings.Builder
	state := h.service.State()
	np, ok := h.service.NowPlaying()
	switch {
	case state.State == StateIdle || !ok:
		sb.WriteString("⏹ Nothing playing")
	case state.Playing:
		sb.WriteString(fmt.Sprintf("▶️ *%s*\n%s - %s", np.Title, np.Artist, np.Album))
	default:
		sb.WriteString(fmt.Sprintf("⏸ *%s*\n%s - %s", np.Title, np.Artist, np.Album))
	}
	q := h.service.Queue()
	if len(q.Tracks) > 0 {
		sb.WriteString(fmt.Sprintf("\n\nQueue: %d/%d", q.Index+1, len(q.Tracks)))
	}
	if note != "" {
		sb.WriteString("\n_" + note + "_")
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏮", "playback_prev"),
			tgbotapi.NewInlineKeyboardButtonData("⏯", "playback_pause"),
			tgbotapi.NewInlineKeyboardButtonData("⏭", "playback_next"),
		),
	)
	_, err := bot.Send(msg)
	return err
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"now":   "Show the current track",
		"next":  "Skip to the next track",
		"prev":  "Previous track or restart",
		"pause": "Pause or resume",
		"play":  "Play an album from a track (/play <album> | <title>)",
	}
}

// HandleCallback handles the inline player buttons
func (h *TelegramHandler) HandleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) bool {
	command, ok := strings.CutPrefix(callback.Data, "playback_")
	if !ok {
		return false
	}
	if err := h.HandleCommand(bot, callback.Message.Chat.ID, command, ""); err != nil {
		return false
	}
	return true
}
