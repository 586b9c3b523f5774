package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderArgs(t *testing.T) {
	id, qty, err := parseOrderArgs("3", "2")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, int64(2), qty)

	_, _, err = parseOrderArgs("aspirin", "2")
	assert.Error(t, err)

	_, _, err = parseOrderArgs("3", "two")
	assert.Error(t, err)
}

func TestUserIDOf(t *testing.T) {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 123456789},
		Chat: &tgbotapi.Chat{ID: -100200300},
	}
	assert.Equal(t, "123456789", userIDOf(msg))

	msg.From = nil
	assert.Equal(t, "-100200300", userIDOf(msg))
}
