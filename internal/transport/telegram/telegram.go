package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
	"github.com/sabry-awad97/telepharma/internal/service/models/order"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// orderService represents the order side of the service layer.
type orderService interface {
	PlaceOrder(ctx context.Context, userID string, medicineID, quantity int64) (*order.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, to order.Status) (*order.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*order.Order, error)
}

// inventoryService represents the catalog side of the service layer.
type inventoryService interface {
	ListMedicines(ctx context.Context) ([]medicine.Medicine, error)
	GetMedicine(ctx context.Context, id int64) (*medicine.Medicine, error)
}

// Bot is the Telegram transport of the pharmacy.
type Bot struct {
	api            *tgbotapi.BotAPI
	orders         orderService
	inventory      inventoryService
	dialogs        *dialogStore
	pharmacyChatID int64
	stop           chan struct{}
	done           chan struct{}
}

// MustNewBot creates a new Bot.
func MustNewBot(orders orderService, inventory inventoryService) *Bot {
	api, err := tgbotapi.NewBotAPI(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if err != nil {
		panic(fmt.Sprintf("Failed to create Telegram bot: %v", err))
	}

	return &Bot{
		api:            api,
		orders:         orders,
		inventory:      inventory,
		dialogs:        newDialogStore(),
		pharmacyChatID: viper.GetInt64("telegram.pharmacy_chat_id"),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Run starts the long polling update loop.
func (b *Bot) Run(ctx context.Context) error {
	timeout := viper.GetInt("telegram.poll_timeout_seconds")
	if timeout == 0 {
		timeout = 60
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = timeout

	updates := b.api.GetUpdatesChan(updateCfg)

	slog.Info("Telegram bot started", "username", b.api.Self.UserName)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(50)

	go func() {
		for {
			select {
			case <-b.stop:
				slog.Info("Stopping telegram bot")
				close(b.done)

				return
			case update, ok := <-updates:
				if !ok {
					slog.Info("Update channel closed")
					close(b.done)

					return
				}

				g.Go(func() error {
					b.handleUpdate(gctx, update)
					return nil
				})
			}
		}
	}()

	<-b.done
	if err := g.Wait(); err != nil {
		slog.Error("Error handling updates", "error", err)
	}

	return nil
}

// Shutdown gracefully shuts down the bot.
func (b *Bot) Shutdown() error {
	slog.Info("Shutting down telegram bot")
	b.api.StopReceivingUpdates()
	close(b.stop)

	// Wait for in flight handlers to finish with timeout
	select {
	case <-b.done:
		slog.Info("Telegram bot stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Telegram bot shutdown timeout")
	}

	return nil
}

// handleUpdate routes a single incoming update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	ctx, span := otel.Tracer("telegram").Start(ctx, "Bot.handleUpdate")
	defer span.End()

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)

		return
	}

	b.handleText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	slog.Info("Received command", "command", msg.Command(), "chat_id", msg.Chat.ID)

	// A command always interrupts whatever flow was in progress.
	b.dialogs.Clear(msg.Chat.ID)

	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "inventory":
		b.handleInventory(ctx, msg)
	case "order":
		b.handleOrder(ctx, msg)
	case "menu":
		b.handleMenu(msg)
	case "help":
		b.handleHelp(msg)
	case "message":
		b.handleMessageLink(msg)
	case "cancel":
		b.handleCancel(ctx, msg)
	case "fulfill":
		b.handleFulfill(ctx, msg)
	case "kick":
		b.handleKick(msg)
	case "ban":
		b.handleBan(msg)
	case "mute":
		b.handleMute(msg)
	default:
		b.reply(msg.Chat.ID, replyUnknown)
	}
}

// handleText routes plain text messages: an active dialog state wins,
// then the menu keyboard labels, everything else is unknown.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	if state, ok := b.dialogs.Get(msg.Chat.ID); ok {
		switch st := state.(type) {
		case writeToPharmacist:
			b.relayToPharmacist(msg, st)
		case awaitingOrderDetails:
			b.handleOrderDetails(ctx, msg)
		case awaitingOrderConfirm:
			b.handleOrderConfirm(ctx, msg, st)
		}

		return
	}

	switch msg.Text {
	case buttonInventory:
		b.handleInventory(ctx, msg)
	case buttonOrder:
		b.handleOrder(ctx, msg)
	case buttonHelp:
		b.handleHelp(msg)
	default:
		b.reply(msg.Chat.ID, replyUnknown)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(m); err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

// NotifyExpiringMedicine sends an expiry alert to the pharmacy group chat.
func (b *Bot) NotifyExpiringMedicine(ctx context.Context, med medicine.Medicine) error {
	m := tgbotapi.NewMessage(b.pharmacyChatID, renderExpiryAlert(med, time.Now()))
	m.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(m); err != nil {
		return fmt.Errorf("failed to send expiry notification: %w", err)
	}

	return nil
}
