package hosting

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/contre95/bandpass/src/features/equalizer"
	"github.com/contre95/bandpass/src/features/library"
	"github.com/contre95/bandpass/src/features/playback"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramCommandHandler interface that each feature implements
type TelegramCommandHandler interface {
	HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error
	GetCommands() map[string]string                                             // Returns command -> description mapping
	HandleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) bool // Handle feature-specific callbacks
}

// TelegramBot handles Telegram bot operations
type TelegramBot struct {
	bot      *tgbotapi.BotAPI
	config   *config.Manager
	handlers map[string]TelegramCommandHandler
	updates  tgbotapi.UpdatesChannel
	stopChan chan struct{}

	pendingMu     sync.Mutex
	pendingInputs map[string]string // chatID_messageID -> callbackData
}

// NewTelegramBot creates a new Telegram bot instance
func NewTelegramBot(cfg *config.Manager, libraryService *library.Service, equalizerService *equalizer.Service, playbackService *playback.Service) (*TelegramBot, error) {
	telegramConfig := cfg.Get().Telegram

	if !telegramConfig.Enabled {
		return nil, fmt.Errorf("telegram bot is disabled in configuration")
	}

	if telegramConfig.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	bot, err := tgbotapi.NewBotAPI(telegramConfig.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot initialized", "username", bot.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	telegramBot := &TelegramBot{
		bot:           bot,
		config:        cfg,
		handlers:      make(map[string]TelegramCommandHandler),
		updates:       bot.GetUpdatesChan(updateConfig),
		stopChan:      make(chan struct{}),
		pendingInputs: make(map[string]string),
	}

	telegramBot.RegisterHandler("library", library.NewTelegramHandler(libraryService))
	telegramBot.RegisterHandler("config", config.NewTelegramHandler(cfg))
	telegramBot.RegisterHandler("equalizer", equalizer.NewTelegramHandler(equalizerService))
	telegramBot.RegisterHandler("playback", playback.NewTelegramHandler(playbackService))

	return telegramBot, nil
}

// RegisterHandler registers a feature's command handler
func (t *TelegramBot) RegisterHandler(feature string, handler TelegramCommandHandler) {
	t.handlers[feature] = handler
	slog.Debug("Registered Telegram handler", "feature", feature)
}

// Start begins listening for Telegram updates
func (t *TelegramBot) Start() {
	slog.Info("Starting Telegram bot listener")

	for {
		select {
		case update := <-t.updates:
			if update.Message != nil {
				go t.handleMessage(update)
			}
			if update.CallbackQuery != nil {
				go t.handleCallbackQuery(update)
			}
		case <-t.stopChan:
			slog.Info("Stopping Telegram bot listener")
			t.bot.StopReceivingUpdates()
			return
		}
	}
}

// Stop gracefully stops the bot
func (t *TelegramBot) Stop() {
	close(t.stopChan)
}

// isAllowed reports whether the sender is listed in telegram.allowedUsers.
func isAllowed(allowedUsers []string, from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	username := from.UserName
	if username == "" {
		username = from.FirstName
		if from.LastName != "" {
			username += " " + from.LastName
		}
	}
	return slices.Contains(allowedUsers, username)
}

// handleMessage processes incoming messages
func (t *TelegramBot) handleMessage(update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID

	allowedUsers := t.config.Get().Telegram.AllowedUsers
	if len(allowedUsers) == 0 {
		slog.Warn("No allowed users configured", "chat_id", chatID)
		t.sendMessage(chatID, "❌ Access denied: No users configured. Please add users to the config.")
		return
	}
	if !isAllowed(allowedUsers, message.From) {
		slog.Warn("Unauthorized user", "chat_id", chatID)
		t.sendMessage(chatID, "Unknown user, please add your user to the config")
		return
	}

	if message.IsCommand() {
		t.handleCommand(update)
		return
	}

	if message.ReplyToMessage != nil && t.handleReplyInput(message) {
		return
	}

	t.sendMessage(chatID, "🤖 Send /menu or /help to see available options")
}

// handleCommand processes bot commands
func (t *TelegramBot) handleCommand(update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID
	command := message.Command()
	args := message.CommandArguments()

	slog.Debug("Processing command", "command", command, "args", args, "chat_id", chatID)

	switch command {
	case "help", "start", "menu":
		t.handleHelp(chatID)
	default:
		if err := t.routeCommand(command, args, chatID); err != nil {
			slog.Error("Failed to handle command", "command", command, "error", err)
			t.sendMessage(chatID, "❌ Failed to process command")
		}
	}
}

// featureFor finds the feature whose handler advertises command.
func (t *TelegramBot) featureFor(command string) (TelegramCommandHandler, bool) {
	for _, handler := range t.handlers {
		if _, ok := handler.GetCommands()[command]; ok {
			return handler, true
		}
	}
	return nil, false
}

// routeCommand routes commands to the appropriate feature handler
func (t *TelegramBot) routeCommand(command, args string, chatID int64) error {
	handler, exists := t.featureFor(command)
	if !exists {
		t.sendMessage(chatID, "❌ Unknown command. Send /help to see available commands.")
		return nil
	}
	return handler.HandleCommand(t.bot, chatID, command, args)
}

// escapeMarkdown escapes special characters for safe Markdown usage
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer("`", "\\`", "*", "\\*", "_", "\\_", "[", "\\[")
	return replacer.Replace(text)
}

// sendMessage sends a message to the specified chat
func (t *TelegramBot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := t.bot.Send(msg)
	if err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

// handleCallbackQuery handles callback queries from inline keyboards
func (t *TelegramBot) handleCallbackQuery(update tgbotapi.Update) {
	callback := update.CallbackQuery
	if !isAllowed(t.config.Get().Telegram.AllowedUsers, callback.From) {
		slog.Warn("Unauthorized callback", "data", callback.Data)
		return
	}

	if strings.HasPrefix(callback.Data, "menu_") {
		t.handleMenuCallback(callback)
		return
	}

	for _, handler := range t.handlers {
		if handler.HandleCallback(t.bot, callback) {
			break
		}
	}

	// Answer callback to remove loading state
	t.bot.Request(tgbotapi.NewCallback(callback.ID, ""))
}

// helpText lists every registered command sorted by name.
func (t *TelegramBot) helpText() string {
	var lines []string
	for _, handler := range t.handlers {
		for cmd, desc := range handler.GetCommands() {
			lines = append(lines, fmt.Sprintf("/%s - %s", cmd, escapeMarkdown(desc)))
		}
	}
	sort.Strings(lines)
	return "*🎛 Bandpass*\n\n" + strings.Join(lines, "\n")
}

// handleHelp shows main menu with inline keyboard
func (t *TelegramBot) handleHelp(chatID int64) {
	buttons := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("▶️ Now Playing", "menu_now"),
			tgbotapi.NewInlineKeyboardButtonData("💿 Play Album", "menu_play"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🎚 Equalizer", "menu_eq"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Library", "menu_stats"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🔄 Rescan", "menu_scan"),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Config", "menu_config"),
		},
	}

	msg := tgbotapi.NewMessage(chatID, t.helpText())
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("Failed to send menu", "error", err, "chat_id", chatID)
	}
}

// handleMenuCallback handles main menu callback queries
func (t *TelegramBot) handleMenuCallback(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	data := callback.Data

	t.bot.Request(tgbotapi.NewCallback(callback.ID, ""))

	switch data {
	case "menu_play":
		t.promptForInput(chatID, "💿 *Play Album*\n\nReply with `<album> | <track title>`", data)
	default:
		t.routeMenuCommand(strings.TrimPrefix(data, "menu_"), "", chatID)
	}
}

// promptForInput sends a message that forces user to reply with input
func (t *TelegramBot) promptForInput(chatID int64, promptText, callbackData string) {
	msg := tgbotapi.NewMessage(chatID, promptText)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true}

	sentMsg, err := t.bot.Send(msg)
	if err != nil {
		slog.Error("Failed to send prompt", "error", err)
		return
	}
	t.storePendingInput(chatID, sentMsg.MessageID, callbackData)
}

func (t *TelegramBot) storePendingInput(chatID int64, messageID int, callbackData string) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	t.pendingInputs[fmt.Sprintf("%d_%d", chatID, messageID)] = callbackData
}

// takePendingInput returns and forgets the prompt a reply answers.
func (t *TelegramBot) takePendingInput(chatID int64, messageID int) (string, bool) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	key := fmt.Sprintf("%d_%d", chatID, messageID)
	data, ok := t.pendingInputs[key]
	delete(t.pendingInputs, key)
	return data, ok
}

// handleReplyInput handles replies to our input prompts
func (t *TelegramBot) handleReplyInput(message *tgbotapi.Message) bool {
	chatID := message.Chat.ID
	callbackData, exists := t.takePendingInput(chatID, message.ReplyToMessage.MessageID)
	if !exists {
		return false
	}

	switch callbackData {
	case "menu_play":
		t.routeMenuCommand("play", message.Text, chatID)
	default:
		return false
	}
	return true
}

// routeMenuCommand routes menu selections to appropriate feature handlers
func (t *TelegramBot) routeMenuCommand(command, args string, chatID int64) {
	handler, exists := t.featureFor(command)
	if !exists {
		t.sendMessage(chatID, "❌ Unknown menu option")
		return
	}
	if err := handler.HandleCommand(t.bot, chatID, command, args); err != nil {
		slog.Error("Failed to handle menu command", "command", command, "error", err)
		t.sendMessage(chatID, "❌ Failed to process menu selection")
	}
}
