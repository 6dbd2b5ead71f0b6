package service

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestUpdatesWithoutSenderAreIgnored(t *testing.T) {
	engine, sessions, _ := newTestEngine(t, "", &fakeBackend{})
	b := NewTgBot(nil, engine)

	// Channel posts carry no From; they must be dropped, not panic.
	b.UpdateProcessing(&tgbotapi.Update{
		Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 5}},
	})
	b.UpdateProcessing(&tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{Data: "sel:tok:0"},
	})

	assert.Zero(t, sessions.Count())
}
