package api

// BotClient defines the bot API operations the notifier needs.
// This allows for easy mocking in tests.
type BotClient interface {
	SendMessage(chatID, text string, markdown bool) (*SendMessageResult, error)
}

// Ensure TelegramAPI implements BotClient interface
var _ BotClient = (*TelegramAPI)(nil)
