package telegram

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Group moderation commands. All of them act on the author of the message
// the command replies to.

// handleKick removes the replied-to user from the chat. Unbanning a present
// member removes them without leaving a lasting ban behind.
func (b *Bot) handleKick(msg *tgbotapi.Message) {
	target, ok := b.moderationTarget(msg)
	if !ok {
		return
	}

	_, err := b.api.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: msg.Chat.ID, UserID: target.ID},
	})
	if err != nil {
		slog.Error("Failed to kick user", "error", err, "user_id", target.ID)
		b.reply(msg.Chat.ID, replyTryAgain)

		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("User %s has been kicked.", target.FirstName))
}

// handleBan bans the replied-to user for the duration given as "/ban 2 h".
func (b *Bot) handleBan(msg *tgbotapi.Message) {
	duration, err := parseRestrictDuration(msg.CommandArguments())
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /ban <number> <h|m|s>")

		return
	}

	target, ok := b.moderationTarget(msg)
	if !ok {
		return
	}

	_, err = b.api.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: msg.Chat.ID, UserID: target.ID},
		UntilDate:        time.Now().Add(duration).Unix(),
	})
	if err != nil {
		slog.Error("Failed to ban user", "error", err, "user_id", target.ID)
		b.reply(msg.Chat.ID, replyTryAgain)

		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("User %s has been banned for the specified duration.", target.FirstName))
}

// handleMute revokes the replied-to user's right to send messages for the
// duration given as "/mute 30 m". Zero value permissions mean full mute.
func (b *Bot) handleMute(msg *tgbotapi.Message) {
	duration, err := parseRestrictDuration(msg.CommandArguments())
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /mute <number> <h|m|s>")

		return
	}

	target, ok := b.moderationTarget(msg)
	if !ok {
		return
	}

	_, err = b.api.Request(tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: msg.Chat.ID, UserID: target.ID},
		UntilDate:        time.Now().Add(duration).Unix(),
		Permissions:      &tgbotapi.ChatPermissions{},
	})
	if err != nil {
		slog.Error("Failed to mute user", "error", err, "user_id", target.ID)
		b.reply(msg.Chat.ID, replyTryAgain)

		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("User %s has been muted for the specified duration.", target.FirstName))
}

func (b *Bot) moderationTarget(msg *tgbotapi.Message) (*tgbotapi.User, bool) {
	if msg.ReplyToMessage == nil {
		b.reply(msg.Chat.ID, "Use this command in reply to another message")

		return nil, false
	}

	if msg.ReplyToMessage.From == nil {
		b.reply(msg.Chat.ID, "Couldn't identify the user.")

		return nil, false
	}

	return msg.ReplyToMessage.From, true
}

// parseRestrictDuration parses arguments like "2 h", "30 m" or "45 s".
func parseRestrictDuration(args string) (time.Duration, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected <number> <unit>, got %q", args)
	}

	n, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid duration value %q", parts[0])
	}

	switch parts[1] {
	case "h", "hours":
		return time.Duration(n) * time.Hour, nil
	case "m", "minutes":
		return time.Duration(n) * time.Minute, nil
	case "s", "seconds":
		return time.Duration(n) * time.Second, nil
	default:
		return 0, fmt.Errorf("allowed units: h, m, s")
	}
}
