package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// botAPI is the subset of *tgbotapi.BotAPI used by the bridge.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ botAPI = (*tgbotapi.BotAPI)(nil)
