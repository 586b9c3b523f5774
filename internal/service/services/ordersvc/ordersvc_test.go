package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/imedicinerepo"
	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/iorderrepo"
	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/ioutboxrepo"
	"github.com/sabry-awad97/telepharma/internal/service/models/event"
	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
	"github.com/sabry-awad97/telepharma/internal/service/models/order"
	"github.com/sabry-awad97/telepharma/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*OrderService, *fakeStore) {
	t.Helper()

	store := newFakeStore()
	svc := MustNewOrderService()
	svc.uowFactory = func() unitOfWork {
		store.mu.Lock()
		store.factoryCalls++
		store.mu.Unlock()

		return &fakeUOW{store: store}
	}

	return svc, store
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, store := setup(t)
		store.addMedicine(medicine.Medicine{
			ID: 1, Name: "Aspirin 500mg", Stock: 10,
			ExpiryDate: time.Now().AddDate(1, 0, 0),
		})

		placed, err := svc.PlaceOrder(ctx, "42", 1, 3)

		require.NoError(t, err)
		require.NotNil(t, placed)
		assert.Equal(t, int64(1), placed.ID)
		assert.Equal(t, order.StatusPending, placed.Status)
		assert.Equal(t, int64(7), store.medicines[1].Stock)

		require.Len(t, store.outbox, 1)
		msg := store.outbox[0]
		assert.Equal(t, "pharmacy.order-events", msg.QueueName)
		assert.Equal(t, "pharmacy.order-events", msg.RoutingKey)
		assert.Equal(t, "application/json", msg.ContentType)

		var evt event.OrderEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &evt))
		assert.Equal(t, msg.MessageID, evt.MessageID)
		assert.Equal(t, event.TypeOrderPlaced, evt.Type)
		assert.Equal(t, placed.ID, evt.OrderID)
		assert.Equal(t, "42", evt.UserID)
		assert.Equal(t, "Aspirin 500mg", evt.MedicineName)
		assert.Equal(t, int64(3), evt.Quantity)
		assert.Equal(t, "pending", evt.Status)
	})

	t.Run("Rejected order leaves earlier decrement intact", func(t *testing.T) {
		svc, store := setup(t)
		store.addMedicine(medicine.Medicine{
			ID: 3, Name: "Amoxicillin 250mg", Stock: 500,
			ExpiryDate: time.Now().AddDate(1, 0, 0),
		})

		placed, err := svc.PlaceOrder(ctx, "u1", 3, 10)

		require.NoError(t, err)
		assert.Equal(t, int64(10), placed.Quantity)
		assert.Equal(t, order.StatusPending, placed.Status)
		assert.Equal(t, int64(490), store.medicines[3].Stock)

		_, err = svc.PlaceOrder(ctx, "u1", 3, 1000)

		assert.ErrorIs(t, err, medicine.ErrInsufficientStock)
		assert.Equal(t, int64(490), store.medicines[3].Stock)
		assert.Len(t, store.orders, 1)
	})

	t.Run("Rejects non-positive quantity", func(t *testing.T) {
		svc, store := setup(t)
		store.addMedicine(medicine.Medicine{
			ID: 1, Name: "Aspirin 500mg", Stock: 10,
			ExpiryDate: time.Now().AddDate(1, 0, 0),
		})

		_, err := svc.PlaceOrder(ctx, "42", 1, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = svc.PlaceOrder(ctx, "42", 1, -3)
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		assert.Equal(t, 0, store.factoryCalls)
		assert.Equal(t, int64(10), store.medicines[1].Stock)
	})

	t.Run("Unknown medicine", func(t *testing.T) {
		svc, store := setup(t)

		_, err := svc.PlaceOrder(ctx, "42", 99, 1)

		assert.ErrorIs(t, err, medicine.ErrMedicineNotFound)
		assert.Empty(t, store.orders)
		assert.Empty(t, store.outbox)
	})

	t.Run("Insufficient stock", func(t *testing.T) {
		svc, store := setup(t)
		store.addMedicine(medicine.Medicine{
			ID: 1, Name: "Aspirin 500mg", Stock: 10,
			ExpiryDate: time.Now().AddDate(1, 0, 0),
		})

		_, err := svc.PlaceOrder(ctx, "42", 1, 11)

		assert.ErrorIs(t, err, medicine.ErrInsufficientStock)
		assert.Equal(t, int64(10), store.medicines[1].Stock)
		assert.Empty(t, store.orders)
		assert.Empty(t, store.outbox)
	})

	t.Run("Expired medicine", func(t *testing.T) {
		svc, store := setup(t)
		store.addMedicine(medicine.Medicine{
			ID: 2, Name: "Azithromycin 250mg", Stock: 10,
			ExpiryDate: time.Now().AddDate(0, 0, -2),
		})

		_, err := svc.PlaceOrder(ctx, "42", 2, 1)

		assert.ErrorIs(t, err, medicine.ErrMedicineExpired)
		assert.Equal(t, int64(10), store.medicines[2].Stock)
		assert.Empty(t, store.orders)
	})

	t.Run("Insert failure rolls back the decrement", func(t *testing.T) {
		svc, store := setup(t)
		store.addMedicine(medicine.Medicine{
			ID: 1, Name: "Aspirin 500mg", Stock: 10,
			ExpiryDate: time.Now().AddDate(1, 0, 0),
		})
		store.failOrderInsert = errors.New("insert failed")

		_, err := svc.PlaceOrder(ctx, "42", 1, 3)

		require.Error(t, err)
		assert.Equal(t, int64(10), store.medicines[1].Stock)
		assert.Empty(t, store.orders)
		assert.Empty(t, store.outbox)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Fulfills a pending order", func(t *testing.T) {
		svc, store := setup(t)
		store.addOrder(order.Order{
			ID: 1, UserID: "42", MedicineID: 3, Quantity: 2,
			Status: order.StatusPending, CreatedAt: time.Now(),
		})

		updated, err := svc.UpdateStatus(ctx, 1, order.StatusFulfilled)

		require.NoError(t, err)
		assert.Equal(t, order.StatusFulfilled, updated.Status)
		assert.Equal(t, order.StatusFulfilled, store.orders[1].Status)

		require.Len(t, store.outbox, 1)
		var evt event.OrderEvent
		require.NoError(t, json.Unmarshal(store.outbox[0].Payload, &evt))
		assert.Equal(t, event.TypeOrderStatusChanged, evt.Type)
		assert.Equal(t, int64(1), evt.OrderID)
		assert.Equal(t, "fulfilled", evt.Status)
	})

	t.Run("Cancels a pending order", func(t *testing.T) {
		svc, store := setup(t)
		store.addOrder(order.Order{
			ID: 1, UserID: "42", MedicineID: 3, Quantity: 2,
			Status: order.StatusPending, CreatedAt: time.Now(),
		})

		updated, err := svc.UpdateStatus(ctx, 1, order.StatusCancelled)

		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, updated.Status)
		assert.Equal(t, order.StatusCancelled, store.orders[1].Status)
	})

	t.Run("Terminal orders are frozen", func(t *testing.T) {
		svc, store := setup(t)
		store.addOrder(order.Order{
			ID: 1, UserID: "42", MedicineID: 3, Quantity: 2,
			Status: order.StatusFulfilled, CreatedAt: time.Now(),
		})

		_, err := svc.UpdateStatus(ctx, 1, order.StatusCancelled)

		assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
		assert.Equal(t, order.StatusFulfilled, store.orders[1].Status)
		assert.Empty(t, store.outbox)
	})

	t.Run("Pending is never a target", func(t *testing.T) {
		svc, store := setup(t)
		store.addOrder(order.Order{
			ID: 1, UserID: "42", MedicineID: 3, Quantity: 2,
			Status: order.StatusPending, CreatedAt: time.Now(),
		})

		_, err := svc.UpdateStatus(ctx, 1, order.StatusPending)

		assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
	})

	t.Run("Unknown order", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.UpdateStatus(ctx, 99, order.StatusFulfilled)

		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	store.addOrder(order.Order{
		ID: 7, UserID: "42", MedicineID: 1, Quantity: 1,
		Status: order.StatusPending, CreatedAt: time.Now(),
	})

	got, err := svc.GetOrder(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)

	_, err = svc.GetOrder(ctx, 8)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestPlaceOrderConcurrent(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)
	store.addMedicine(medicine.Medicine{
		ID: 1, Name: "Amoxicillin 250mg", Stock: 5,
		ExpiryDate: time.Now().AddDate(1, 0, 0),
	})

	const attempts = 20

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(ctx, "42", 1, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var placed, rejected int
	for err := range errs {
		if err == nil {
			placed++
			continue
		}
		assert.ErrorIs(t, err, medicine.ErrInsufficientStock)
		rejected++
	}

	assert.Equal(t, 5, placed)
	assert.Equal(t, attempts-5, rejected)
	assert.Equal(t, int64(0), store.medicines[1].Stock)
	assert.Len(t, store.orders, 5)
	assert.Len(t, store.outbox, 5)
}

type fakeStore struct {
	mu              sync.Mutex
	medicines       map[int64]medicine.Medicine
	orders          map[int64]order.Order
	outbox          []outbox.OutboxMessage
	nextOrderID     int64
	factoryCalls    int
	failOrderInsert error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		medicines:   make(map[int64]medicine.Medicine),
		orders:      make(map[int64]order.Order),
		nextOrderID: 1,
	}
}

func (s *fakeStore) addMedicine(med medicine.Medicine) {
	s.medicines[med.ID] = med
}

func (s *fakeStore) addOrder(o order.Order) {
	s.orders[o.ID] = o
	if o.ID >= s.nextOrderID {
		s.nextOrderID = o.ID + 1
	}
}

type storeSnapshot struct {
	medicines   map[int64]medicine.Medicine
	orders      map[int64]order.Order
	outbox      []outbox.OutboxMessage
	nextOrderID int64
}

func (s *fakeStore) snapshot() *storeSnapshot {
	snap := &storeSnapshot{
		medicines:   make(map[int64]medicine.Medicine, len(s.medicines)),
		orders:      make(map[int64]order.Order, len(s.orders)),
		outbox:      append([]outbox.OutboxMessage(nil), s.outbox...),
		nextOrderID: s.nextOrderID,
	}
	for id, med := range s.medicines {
		snap.medicines[id] = med
	}
	for id, o := range s.orders {
		snap.orders[id] = o
	}

	return snap
}

func (s *fakeStore) restore(snap *storeSnapshot) {
	s.medicines = snap.medicines
	s.orders = snap.orders
	s.outbox = snap.outbox
	s.nextOrderID = snap.nextOrderID
}

var _ unitOfWork = &fakeUOW{}

// fakeUOW serializes transactions by holding the store lock from Begin until
// Commit or Rollback. Rollback restores the snapshot taken at Begin.
type fakeUOW struct {
	store      *fakeStore
	snap       *storeSnapshot
	began      bool
	committed  bool
	rolledBack bool
}

func (u *fakeUOW) Begin(_ context.Context) error {
	u.store.mu.Lock()
	u.snap = u.store.snapshot()
	u.began = true

	return nil
}

func (u *fakeUOW) Commit(_ context.Context) error {
	if !u.began || u.committed || u.rolledBack {
		return errors.New("commit without open transaction")
	}
	u.committed = true
	u.store.mu.Unlock()

	return nil
}

func (u *fakeUOW) Rollback(_ context.Context) error {
	if !u.began || u.committed || u.rolledBack {
		return nil
	}
	u.store.restore(u.snap)
	u.rolledBack = true
	u.store.mu.Unlock()

	return nil
}

func (u *fakeUOW) MedicineRepository() imedicinerepo.IMedicineRepository {
	return &fakeMedicineRepo{store: u.store}
}

func (u *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return &fakeOrderRepo{store: u.store}
}

func (u *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &fakeOutboxRepo{store: u.store}
}

var _ imedicinerepo.IMedicineRepository = &fakeMedicineRepo{}

type fakeMedicineRepo struct {
	store *fakeStore
}

func (r *fakeMedicineRepo) Get(_ context.Context, id int64) (*medicine.Medicine, error) {
	med, ok := r.store.medicines[id]
	if !ok {
		return nil, medicine.ErrMedicineNotFound
	}

	return &med, nil
}

func (r *fakeMedicineRepo) List(_ context.Context) ([]medicine.Medicine, error) {
	medicines := make([]medicine.Medicine, 0, len(r.store.medicines))
	for _, med := range r.store.medicines {
		medicines = append(medicines, med)
	}

	return medicines, nil
}

func (r *fakeMedicineRepo) ListExpiring(_ context.Context, before time.Time) ([]medicine.Medicine, error) {
	var medicines []medicine.Medicine
	for _, med := range r.store.medicines {
		if !med.ExpiryDate.After(before) {
			medicines = append(medicines, med)
		}
	}

	return medicines, nil
}

func (r *fakeMedicineRepo) DecrementStock(_ context.Context, id int64, amount int64) error {
	med, ok := r.store.medicines[id]
	if !ok || med.Stock < amount {
		return medicine.ErrInsufficientStock
	}
	med.Stock -= amount
	r.store.medicines[id] = med

	return nil
}

var _ iorderrepo.IOrderRepository = &fakeOrderRepo{}

type fakeOrderRepo struct {
	store *fakeStore
}

func (r *fakeOrderRepo) Insert(_ context.Context, o *order.Order) (*order.Order, error) {
	if r.store.failOrderInsert != nil {
		return nil, r.store.failOrderInsert
	}
	inserted := *o
	inserted.ID = r.store.nextOrderID
	r.store.nextOrderID++
	r.store.orders[inserted.ID] = inserted

	return &inserted, nil
}

func (r *fakeOrderRepo) Get(_ context.Context, id int64) (*order.Order, error) {
	o, ok := r.store.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}

	return &o, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, from, to order.Status) error {
	o, ok := r.store.orders[id]
	if !ok || o.Status != from {
		return order.ErrInvalidStatusTransition
	}
	o.Status = to
	r.store.orders[id] = o

	return nil
}

var _ ioutboxrepo.IOutboxRepository = &fakeOutboxRepo{}

type fakeOutboxRepo struct {
	store *fakeStore
}

func (r *fakeOutboxRepo) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	msg.ID = int64(len(r.store.outbox) + 1)
	r.store.outbox = append(r.store.outbox, msg)

	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(_ context.Context, limit int) ([]outbox.OutboxMessage, error) {
	if limit > len(r.store.outbox) {
		limit = len(r.store.outbox)
	}

	return append([]outbox.OutboxMessage(nil), r.store.outbox[:limit]...), nil
}

func (r *fakeOutboxRepo) Delete(_ context.Context, id int64) error {
	for i, msg := range r.store.outbox {
		if msg.ID == id {
			r.store.outbox = append(r.store.outbox[:i], r.store.outbox[i+1:]...)

			return nil
		}
	}

	return nil
}

func (r *fakeOutboxRepo) UpdateRetry(
	_ context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	for i, msg := range r.store.outbox {
		if msg.ID == id {
			r.store.outbox[i].RetryCount = retryCount
			r.store.outbox[i].LastError = lastError
			r.store.outbox[i].NextRetryAt = nextRetryAt

			return nil
		}
	}

	return nil
}
