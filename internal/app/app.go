package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sabry-awad97/telepharma/internal/dal/postgres"
	"github.com/sabry-awad97/telepharma/internal/dal/rabbitmq"
	medicinerepo "github.com/sabry-awad97/telepharma/internal/dal/repositories/medicine/postgres"
	outboxrepo "github.com/sabry-awad97/telepharma/internal/dal/repositories/outbox/postgres"
	"github.com/sabry-awad97/telepharma/internal/otel"
	"github.com/sabry-awad97/telepharma/internal/service/services/inventorysvc"
	"github.com/sabry-awad97/telepharma/internal/service/services/ordersvc"
	httptransport "github.com/sabry-awad97/telepharma/internal/transport/http"
	"github.com/sabry-awad97/telepharma/internal/transport/telegram"
	expiryworker "github.com/sabry-awad97/telepharma/internal/worker/expiry"
	outboxworker "github.com/sabry-awad97/telepharma/internal/worker/outbox"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	inventorySvc   *inventorysvc.InventoryService
	bot            *telegram.Bot
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	expiryWorker   *expiryworker.Worker
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()

	// Initialize PostgreSQL medicine repository
	medicineRepository := medicinerepo.NewPostgresMedicineRepository(postgresClient.Pool())

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
	)

	inventorySvc := inventorysvc.MustNewInventoryService(
		inventorysvc.WithMedicineRepository(medicineRepository),
	)

	bot := telegram.MustNewBot(orderSvc, inventorySvc)

	transport := httptransport.NewHTTPTransport(inventorySvc, postgresClient)
	transport.RegisterRoutes()

	// Initialize outbox worker
	outboxRepository := outboxrepo.NewPostgresOutboxRepository(postgresClient.Pool())
	outboxWorker := outboxworker.NewWorker(outboxRepository, rabbitMqClient)

	// Initialize expiry worker
	expiryWorker := expiryworker.NewWorker(inventorySvc, bot)

	return &App{
		orderSvc:       orderSvc,
		inventorySvc:   inventorySvc,
		bot:            bot,
		transport:      transport,
		outboxWorker:   outboxWorker,
		expiryWorker:   expiryWorker,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting Telegram bot")
		if err := a.bot.Run(ctx); err != nil {
			slog.Error("Telegram bot error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	if viper.GetInt64("telegram.pharmacy_chat_id") == 0 {
		slog.Warn("Expiry alerts disabled, telegram.pharmacy_chat_id is not set")
	} else {
		go func() {
			slog.Info("Starting expiry worker")
			a.expiryWorker.Start(ctx)
		}()
	}

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application components.
// It shuts down components sequentially: workers, Telegram bot, HTTP server,
// RabbitMQ, PostgreSQL, and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop expiry worker
	a.expiryWorker.Stop()
	slog.Info("Expiry worker stopped gracefully")

	// Stop outbox worker
	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	if err := a.bot.Shutdown(); err != nil {
		slog.Error("Telegram bot shutdown error", "error", err)
	} else {
		slog.Info("Telegram bot stopped gracefully")
	}

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
