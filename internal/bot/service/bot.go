package service

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// TgBotService bridges the Telegram transport and the conversation engine:
// it maps updates to events, hands them to the engine and delivers the
// resulting replies.
type TgBotService struct {
	Bot    *tgbotapi.BotAPI
	Engine *Engine
}

// NewTgBot creates the orchestrator.
func NewTgBot(bot *tgbotapi.BotAPI, engine *Engine) *TgBotService {
	return &TgBotService{Bot: bot, Engine: engine}
}

// UpdateProcessing handles one incoming Telegram update.
func (b *TgBotService) UpdateProcessing(update *tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.Text != "":
		msg := update.Message
		if msg.From == nil {
			// Channel posts carry no sender; there is no session to run.
			return
		}
		ev := Event{
			ParticipantID: msg.From.ID,
			ChatID:        msg.Chat.ID,
		}
		if msg.IsCommand() {
			ev.Command = msg.Command()
			ev.Args = msg.CommandArguments()
		} else {
			ev.Text = msg.Text
		}
		logrus.Infof("Message [%s] from %s (chat %d)", msg.Text, msg.From.UserName, msg.Chat.ID)
		b.deliver(msg.Chat.ID, 0, b.Engine.Handle(ev))

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil || cb.Message == nil {
			return
		}
		// Acknowledge the tap so the client stops its spinner.
		if _, err := b.Bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			logrus.WithError(err).Error("Failed to answer callback query")
		}
		ev := Event{
			ParticipantID: cb.From.ID,
			ChatID:        cb.Message.Chat.ID,
			Callback:      cb.Data,
		}
		b.deliver(cb.Message.Chat.ID, cb.Message.MessageID, b.Engine.Handle(ev))
	}
}

// deliver sends the engine's replies. A reply marked EditMenu replaces the
// keyboard on the tapped message (page turns) instead of sending a new one.
func (b *TgBotService) deliver(chatID int64, callbackMsgID int, replies []Reply) {
	for _, r := range replies {
		markup := buildMarkup(r.Buttons)

		if r.EditMenu && callbackMsgID != 0 && markup != nil {
			edit := tgbotapi.NewEditMessageReplyMarkup(chatID, callbackMsgID, *markup)
			if _, err := b.Bot.Send(edit); err != nil {
				logrus.WithError(err).Errorf("Failed to edit menu in chat %d", chatID)
			}
			continue
		}

		msg := tgbotapi.NewMessage(chatID, r.Text)
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		if r.Markdown {
			msg.ParseMode = tgbotapi.ModeMarkdown
		}
		msg.DisableNotification = r.Silent
		if _, err := b.Bot.Send(msg); err != nil {
			logrus.WithError(err).Errorf("Failed to send message to chat %d: %s", chatID, r.Text)
		}
	}
}

func buildMarkup(rows [][]Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var btns []tgbotapi.InlineKeyboardButton
		for _, btn := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		keyboard = append(keyboard, btns)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	return &markup
}
