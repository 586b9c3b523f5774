package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/imedicinerepo"
	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/iorderrepo"
	"github.com/sabry-awad97/telepharma/internal/dal/interfaces/ioutboxrepo"
	"github.com/sabry-awad97/telepharma/internal/dal/postgres"
	medicinerepo "github.com/sabry-awad97/telepharma/internal/dal/repositories/medicine/postgres"
	orderrepo "github.com/sabry-awad97/telepharma/internal/dal/repositories/order/postgres"
	outboxrepo "github.com/sabry-awad97/telepharma/internal/dal/repositories/outbox/postgres"
)

type unitOfWork struct {
	client       *postgres.Client
	tx           pgx.Tx
	medicineRepo imedicinerepo.IMedicineRepository
	orderRepo    iorderrepo.IOrderRepository
	outboxRepo   ioutboxrepo.IOutboxRepository
}

func NewUnitOfWork(client *postgres.Client) *unitOfWork {
	return &unitOfWork{
		client:       client,
		medicineRepo: medicinerepo.NewPostgresMedicineRepository(client.Pool()),
		orderRepo:    orderrepo.NewPostgresOrderRepository(client.Pool()),
		outboxRepo:   outboxrepo.NewPostgresOutboxRepository(client.Pool()),
	}
}

func (u *unitOfWork) MedicineRepository() imedicinerepo.IMedicineRepository {
	return u.medicineRepo
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	// Rebind the repositories to the open transaction
	u.medicineRepo = medicinerepo.NewPostgresMedicineRepository(tx)
	u.orderRepo = orderrepo.NewPostgresOrderRepository(tx)
	u.outboxRepo = outboxrepo.NewPostgresOutboxRepository(tx)

	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(ctx)
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback(ctx)
}
