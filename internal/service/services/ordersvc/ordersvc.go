package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/imedicinerepo"
	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/iorderrepo"
	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/ioutboxrepo"
	"github.com/sabry-awad97/telepharma/internal/dal/postgres"
	"github.com/sabry-awad97/telepharma/internal/dal/uow"
	"github.com/sabry-awad97/telepharma/internal/service/models/event"
	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
	"github.com/sabry-awad97/telepharma/internal/service/models/order"
	"github.com/sabry-awad97/telepharma/internal/service/models/outbox"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

// OrderService owns the order placement and lifecycle rules.
type OrderService struct {
	pgClient    *postgres.Client
	uowFactory  func() unitOfWork
	ordersQueue string
	maxRetries  int
}

func (s *OrderService) newUOW() unitOfWork {
	if s.uowFactory != nil {
		return s.uowFactory()
	}
	return uow.NewUnitOfWork(s.pgClient)
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	MedicineRepository() imedicinerepo.IMedicineRepository
	OrderRepository() iorderrepo.IOrderRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	ordersQueue := viper.GetString("rabbitmq.orders_queue")
	if ordersQueue == "" {
		ordersQueue = "pharmacy.order-events"
	}

	maxRetries := viper.GetInt("rabbitmq.outbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}

	s := &OrderService{
		ordersQueue: ordersQueue,
		maxRetries:  maxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// PlaceOrder validates the request and runs the placement transaction:
// the conditional stock decrement, the pending order row and the outbox
// event either all commit or none of them do.
func (s *OrderService) PlaceOrder(
	ctx context.Context,
	userID string,
	medicineID int64,
	quantity int64,
) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	med, err := work.MedicineRepository().Get(ctx, medicineID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if med.IsExpired(now) {
		return nil, medicine.ErrMedicineExpired
	}

	if err := work.MedicineRepository().DecrementStock(ctx, medicineID, quantity); err != nil {
		return nil, err
	}

	placed, err := work.OrderRepository().Insert(ctx, &order.Order{
		UserID:     userID,
		MedicineID: medicineID,
		Quantity:   quantity,
		Status:     order.StatusPending,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.insertOrderEvent(ctx, work, event.TypeOrderPlaced, placed, med.Name); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Order placed",
		"order_id", placed.ID,
		"user_id", userID,
		"medicine_id", medicineID,
		"quantity", quantity,
	)

	return placed, nil
}

// UpdateStatus moves an order along its lifecycle and records the change
// as an outbox event in the same transaction. Orders only move forward:
// a pending order can be fulfilled or cancelled, terminal orders are frozen.
func (s *OrderService) UpdateStatus(
	ctx context.Context,
	orderID int64,
	to order.Status,
) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.UpdateStatus")
	defer span.End()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	ord, err := work.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !ord.Status.CanTransitionTo(to) {
		return nil, order.ErrInvalidStatusTransition
	}

	if err := work.OrderRepository().UpdateStatus(ctx, orderID, ord.Status, to); err != nil {
		return nil, err
	}

	ord.Status = to
	if err := s.insertOrderEvent(ctx, work, event.TypeOrderStatusChanged, ord, ""); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Order status updated", "order_id", orderID, "status", to.String())

	return ord, nil
}

// GetOrder retrieves a single order by id.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.GetOrder")
	defer span.End()

	return s.newUOW().OrderRepository().Get(ctx, orderID)
}

// insertOrderEvent stages an order event in the outbox within the open
// transaction of the unit of work.
func (s *OrderService) insertOrderEvent(
	ctx context.Context,
	work unitOfWork,
	eventType string,
	ord *order.Order,
	medicineName string,
) error {
	messageID := uuid.NewString()
	now := time.Now()

	payload, err := json.Marshal(event.OrderEvent{
		MessageID:    messageID,
		Type:         eventType,
		OrderID:      ord.ID,
		UserID:       ord.UserID,
		MedicineID:   ord.MedicineID,
		MedicineName: medicineName,
		Quantity:     ord.Quantity,
		Status:       ord.Status.String(),
		OccurredAt:   now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	return work.OutboxRepository().Insert(ctx, outbox.OutboxMessage{
		MessageID:   messageID,
		QueueName:   s.ordersQueue,
		RoutingKey:  s.ordersQueue,
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  s.maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
}
