package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
	"github.com/sabry-awad97/telepharma/internal/service/models/order"
)

// handleStart greets the user. A numeric deep link payload is a pharmacist
// chat id and switches the dialog into the write-to-pharmacist state.
func (b *Bot) handleStart(msg *tgbotapi.Message) {
	payload := strings.TrimSpace(msg.CommandArguments())
	if payload == "" {
		b.reply(msg.Chat.ID, translate(langOf(msg), "welcome"))

		return
	}

	pharmacistChatID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		slog.Warn("Start command with invalid deep link payload", "payload", payload)
		b.reply(msg.Chat.ID, "Invalid link!")

		return
	}

	b.dialogs.Set(msg.Chat.ID, writeToPharmacist{pharmacistChatID: pharmacistChatID})
	b.reply(msg.Chat.ID, "Send your message to the pharmacist:")
}

// handleMessageLink hands the user their own anonymous message deep link.
func (b *Bot) handleMessageLink(msg *tgbotapi.Message) {
	link := fmt.Sprintf("https://t.me/%s?start=%d", b.api.Self.UserName, msg.Chat.ID)
	b.reply(msg.Chat.ID, "Share this link to receive anonymous messages: "+link)
}

// relayToPharmacist forwards the user's text anonymously and leaves the state.
func (b *Bot) relayToPharmacist(msg *tgbotapi.Message, st writeToPharmacist) {
	forward := tgbotapi.NewMessage(st.pharmacistChatID, "You have a new anonymous message:\n\n"+msg.Text)
	if _, err := b.api.Send(forward); err != nil {
		slog.Error("Failed to relay anonymous message", "error", err)
		b.reply(msg.Chat.ID, "Error sending message. The pharmacist may have blocked the bot.")
	} else {
		b.reply(msg.Chat.ID, "Message sent to the pharmacist!")
	}

	b.dialogs.Clear(msg.Chat.ID)
}

func (b *Bot) handleInventory(ctx context.Context, msg *tgbotapi.Message) {
	medicines, err := b.inventory.ListMedicines(ctx)
	if err != nil {
		slog.Error("Failed to list medicines", "error", err)
		b.reply(msg.Chat.ID, replyTryAgain)

		return
	}

	lang := langOf(msg)
	if len(medicines) == 0 {
		b.reply(msg.Chat.ID, translate(lang, "no_medicines"))

		return
	}

	b.replyMarkdown(msg.Chat.ID, renderInventory(lang, medicines))
}

// handleOrder starts the order flow. With "<medicine-id> <quantity>"
// arguments it goes straight to the confirmation step, without them it asks
// for the details first.
func (b *Bot) handleOrder(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	switch len(args) {
	case 0:
		b.dialogs.Set(msg.Chat.ID, awaitingOrderDetails{})
		b.reply(msg.Chat.ID, replyOrderPrompt)
	case 2:
		b.startOrderConfirmation(ctx, msg, args[0], args[1])
	default:
		b.reply(msg.Chat.ID, replyOrderUsage)
	}
}

// handleOrderDetails consumes the "<medicine-id> <quantity>" answer.
func (b *Bot) handleOrderDetails(ctx context.Context, msg *tgbotapi.Message) {
	parts := strings.Fields(msg.Text)
	if len(parts) != 2 {
		b.reply(msg.Chat.ID, replyOrderUsage)

		return
	}

	b.startOrderConfirmation(ctx, msg, parts[0], parts[1])
}

// startOrderConfirmation resolves the medicine, validates the input and asks
// the user to confirm the summarized order. On bad input the current dialog
// state stays as it is so the user can retry.
func (b *Bot) startOrderConfirmation(ctx context.Context, msg *tgbotapi.Message, idArg, qtyArg string) {
	medicineID, quantity, err := parseOrderArgs(idArg, qtyArg)
	if err != nil {
		b.reply(msg.Chat.ID, replyOrderUsage)

		return
	}

	if quantity <= 0 {
		b.reply(msg.Chat.ID, "Quantity must be greater than zero.")

		return
	}

	med, err := b.inventory.GetMedicine(ctx, medicineID)
	if err != nil {
		if errors.Is(err, medicine.ErrMedicineNotFound) {
			b.reply(msg.Chat.ID, "Medicine not found. Use /inventory to see what is available.")
		} else {
			slog.Error("Failed to get medicine", "error", err, "medicine_id", medicineID)
			b.reply(msg.Chat.ID, replyTryAgain)
		}

		return
	}

	b.dialogs.Set(msg.Chat.ID, awaitingOrderConfirm{
		medicineID:   med.ID,
		medicineName: med.Name,
		quantity:     quantity,
	})
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"You are about to order %s (x%d). Reply yes to confirm or no to abort.",
		med.Name, quantity,
	))
}

// handleOrderConfirm consumes the yes or no answer and places the order.
func (b *Bot) handleOrderConfirm(ctx context.Context, msg *tgbotapi.Message, st awaitingOrderConfirm) {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case "yes":
		b.dialogs.Clear(msg.Chat.ID)
		b.placeOrder(ctx, msg, st)
	case "no":
		b.dialogs.Clear(msg.Chat.ID)
		b.reply(msg.Chat.ID, "Order abandoned.")
	default:
		b.reply(msg.Chat.ID, "Please reply yes or no.")
	}
}

func (b *Bot) placeOrder(ctx context.Context, msg *tgbotapi.Message, st awaitingOrderConfirm) {
	ord, err := b.orders.PlaceOrder(ctx, userIDOf(msg), st.medicineID, st.quantity)
	if err != nil {
		if !isBusinessError(err) {
			slog.Error("Failed to place order", "error", err, "medicine_id", st.medicineID)
		}
		b.reply(msg.Chat.ID, renderOrderError(err))

		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf(
		"Your order for %s (x%d) has been placed. Order ID: %d",
		st.medicineName, st.quantity, ord.ID,
	))
}

// handleCancel lets a user cancel their own pending order. The stock is not
// restored, restocking is a separate pharmacy workflow.
func (b *Bot) handleCancel(ctx context.Context, msg *tgbotapi.Message) {
	orderID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /cancel <order-id>")

		return
	}

	ord, err := b.orders.GetOrder(ctx, orderID)
	if err != nil {
		if !isBusinessError(err) {
			slog.Error("Failed to get order", "error", err, "order_id", orderID)
		}
		b.reply(msg.Chat.ID, renderOrderError(err))

		return
	}

	// Not leaking other users' orders: a foreign id reads as unknown.
	if ord.UserID != userIDOf(msg) {
		b.reply(msg.Chat.ID, renderOrderError(order.ErrOrderNotFound))

		return
	}

	if _, err := b.orders.UpdateStatus(ctx, orderID, order.StatusCancelled); err != nil {
		if !isBusinessError(err) {
			slog.Error("Failed to cancel order", "error", err, "order_id", orderID)
		}
		b.reply(msg.Chat.ID, renderOrderError(err))

		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("Order %d has been cancelled.", orderID))
}

// handleFulfill marks a pending order fulfilled. Pharmacy staff only: the
// command works in the configured pharmacy group chat and nowhere else.
func (b *Bot) handleFulfill(ctx context.Context, msg *tgbotapi.Message) {
	if b.pharmacyChatID == 0 || msg.Chat.ID != b.pharmacyChatID {
		b.reply(msg.Chat.ID, "This command is only available to the pharmacy staff.")

		return
	}

	orderID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /fulfill <order-id>")

		return
	}

	if _, err := b.orders.UpdateStatus(ctx, orderID, order.StatusFulfilled); err != nil {
		if !isBusinessError(err) {
			slog.Error("Failed to fulfill order", "error", err, "order_id", orderID)
		}
		b.reply(msg.Chat.ID, renderOrderError(err))

		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("Order %d has been fulfilled.", orderID))
}

func (b *Bot) handleMenu(msg *tgbotapi.Message) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonInventory)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonOrder)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonHelp)),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true

	m := tgbotapi.NewMessage(msg.Chat.ID, "Welcome to the Pharmacy Bot! Please choose an option:")
	m.ReplyMarkup = keyboard
	if _, err := b.api.Send(m); err != nil {
		slog.Error("Failed to send menu", "error", err, "chat_id", msg.Chat.ID)
	}
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	b.replyMarkdown(msg.Chat.ID, helpText)
}

// parseOrderArgs parses the "<medicine-id> <quantity>" argument pair.
func parseOrderArgs(idArg, qtyArg string) (int64, int64, error) {
	medicineID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid medicine id %q: %w", idArg, err)
	}

	quantity, err := strconv.ParseInt(qtyArg, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid quantity %q: %w", qtyArg, err)
	}

	return medicineID, quantity, nil
}

// userIDOf returns the opaque user handle orders are keyed by.
func userIDOf(msg *tgbotapi.Message) string {
	if msg.From != nil {
		return strconv.FormatInt(msg.From.ID, 10)
	}

	return strconv.FormatInt(msg.Chat.ID, 10)
}
