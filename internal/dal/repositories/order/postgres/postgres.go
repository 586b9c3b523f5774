package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sabry-awad97/telepharma/internal/dal/postgres"
	"github.com/sabry-awad97/telepharma/internal/service/models/order"
)

// OrderDal represents the order data access layer model.
type OrderDal struct {
	Id         int64     `db:"id"`
	UserId     string    `db:"user_id"`
	MedicineId int64     `db:"medicine_id"`
	Quantity   int64     `db:"quantity"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:         o.Id,
		UserID:     o.UserId,
		MedicineID: o.MedicineId,
		Quantity:   o.Quantity,
		Status:     status,
		CreatedAt:  o.CreatedAt,
	}, nil
}

// OrderDalFromModel converts the service layer Order model to OrderDal.
func OrderDalFromModel(o *order.Order) *OrderDal {
	return &OrderDal{
		Id:         o.ID,
		UserId:     o.UserID,
		MedicineId: o.MedicineID,
		Quantity:   o.Quantity,
		Status:     o.Status.String(),
		CreatedAt:  o.CreatedAt,
	}
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert persists a new order and returns it with the generated id.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o *order.Order) (*order.Order, error) {
	dal := OrderDalFromModel(o)

	sql, args, err := r.sb.
		Insert("orders").
		Columns("user_id", "medicine_id", "quantity", "status", "created_at").
		Values(
			dal.UserId,
			dal.MedicineId,
			dal.Quantity,
			dal.Status,
			pgtype.Timestamptz{Time: dal.CreatedAt, Valid: true},
		).
		Suffix("RETURNING id, user_id, medicine_id, quantity, status, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	return r.scanOrder(r.conn.QueryRow(ctx, sql, args...))
}

// Get retrieves a single order by id.
func (r *PostgresOrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	sql, args, err := r.sb.
		Select("id", "user_id", "medicine_id", "quantity", "status", "created_at").
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	ord, err := r.scanOrder(r.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}

		return nil, err
	}

	return ord, nil
}

// UpdateStatus moves an order from one status to another. The condition on
// the current status makes the transition race safe: zero affected rows
// means another transition won first.
func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	from, to order.Status,
) error {
	sql, args, err := r.sb.
		Update("orders").
		Set("status", to).
		Where(sq.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return order.ErrInvalidStatusTransition
	}

	return nil
}

func (r *PostgresOrderRepository) scanOrder(row pgx.Row) (*order.Order, error) {
	var dal OrderDal
	var createdAt pgtype.Timestamptz

	err := row.Scan(
		&dal.Id,
		&dal.UserId,
		&dal.MedicineId,
		&dal.Quantity,
		&dal.Status,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	dal.CreatedAt = createdAt.Time

	return dal.ToModel()
}
