package telegram

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
	"github.com/sabry-awad97/telepharma/internal/service/models/order"
	"github.com/sabry-awad97/telepharma/internal/service/services/ordersvc"
)

const (
	buttonInventory = "📋 Check Inventory"
	buttonOrder     = "🛒 Place Order"
	buttonHelp      = "❓ Help"

	replyUnknown     = "I don't understand that command. Please use the menu or type /help for available commands."
	replyTryAgain    = "Something went wrong. Please try again later."
	replyOrderPrompt = "Send the medicine id and the quantity, for example: 3 2. Use /inventory to see the ids."
	replyOrderUsage  = "Send the medicine id and the quantity as two numbers, for example: 3 2."

	helpText = `*Pharmacy Bot Help*

Here are the available commands:

/start - Start interacting with the pharmacy bot
/inventory - Check the pharmacy inventory
/order - Place a medicine order
/cancel - Cancel one of your pending orders
/menu - Display the main menu
/message - Get your anonymous message link
/help - Display this help information

To use a command, simply type it or tap on it.`
)

// renderInventory formats the medicine list for chat display.
func renderInventory(lang string, medicines []medicine.Medicine) string {
	lines := make([]string, 0, len(medicines))
	for _, m := range medicines {
		lines = append(lines, fmt.Sprintf(
			"🏥 *%s* (id: %d)\n   Stock: %d units\n   Expires: %s",
			m.Name, m.ID, m.Stock, m.ExpiryDate.Format("02 Jan 2006"),
		))
	}

	return translate(lang, "inventory") + "\n\n" + strings.Join(lines, "\n\n")
}

// renderExpiryAlert formats the MarkdownV2 alert for a medicine close to expiry.
func renderExpiryAlert(med medicine.Medicine, now time.Time) string {
	daysLeft := int(med.ExpiryDate.Sub(now.UTC().Truncate(24*time.Hour)).Hours() / 24)

	return fmt.Sprintf(
		"⚠️ *Medicine Expiry Alert*\n\n"+
			"*Name:* `%s`\n"+
			"*Expiry Date:* `%s`\n"+
			"*Days until expiry:* `%d`\n"+
			"*Quantity:* `%d`\n"+
			"Please check and take appropriate action\\.",
		escapeMarkdown(med.Name),
		formatDate(med.ExpiryDate),
		daysLeft,
		med.Stock,
	)
}

// renderOrderError maps service errors to user replies. Business rejections
// get their own wording, anything else reads as a temporary failure.
func renderOrderError(err error) string {
	switch {
	case errors.Is(err, ordersvc.ErrInvalidQuantity):
		return "Quantity must be greater than zero."
	case errors.Is(err, medicine.ErrMedicineNotFound):
		return "Medicine not found. Use /inventory to see what is available."
	case errors.Is(err, medicine.ErrInsufficientStock):
		return "Insufficient stock"
	case errors.Is(err, medicine.ErrMedicineExpired):
		return "This medicine is past its expiry date and cannot be ordered."
	case errors.Is(err, order.ErrOrderNotFound):
		return "Order not found."
	case errors.Is(err, order.ErrInvalidStatusTransition):
		return "This order can no longer be changed."
	default:
		return replyTryAgain
	}
}

// isBusinessError reports whether err is an expected domain rejection
// rather than an infrastructure failure.
func isBusinessError(err error) bool {
	return errors.Is(err, ordersvc.ErrInvalidQuantity) ||
		errors.Is(err, medicine.ErrMedicineNotFound) ||
		errors.Is(err, medicine.ErrInsufficientStock) ||
		errors.Is(err, medicine.ErrMedicineExpired) ||
		errors.Is(err, order.ErrOrderNotFound) ||
		errors.Is(err, order.ErrInvalidStatusTransition)
}

// escapeMarkdown escapes the characters Telegram treats as MarkdownV2 syntax.
func escapeMarkdown(text string) string {
	var sb strings.Builder
	for _, r := range text {
		if strings.ContainsRune("_*[]()~`>#+-=|{}.!", r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}

	return sb.String()
}

// formatDate renders a calendar date as dd-mm-yyyy.
func formatDate(t time.Time) string {
	return t.Format("02-01-2006")
}
