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
	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
)

// MedicineDal represents the medicine data access layer model.
type MedicineDal struct {
	Id         int64     `db:"id"`
	Name       string    `db:"name"`
	Stock      int64     `db:"stock"`
	ExpiryDate time.Time `db:"expiry_date"`
}

// ToModel converts MedicineDal to the service layer Medicine model.
func (m *MedicineDal) ToModel() *medicine.Medicine {
	return &medicine.Medicine{
		ID:         m.Id,
		Name:       m.Name,
		Stock:      m.Stock,
		ExpiryDate: m.ExpiryDate,
	}
}

// PostgresMedicineRepository represents a Postgres medicine repository.
type PostgresMedicineRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresMedicineRepository creates a new Postgres medicine repository.
func NewPostgresMedicineRepository(conn postgres.GenericConn) *PostgresMedicineRepository {
	return &PostgresMedicineRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Get retrieves a single medicine by id.
func (r *PostgresMedicineRepository) Get(ctx context.Context, id int64) (*medicine.Medicine, error) {
	sql, args, err := r.sb.
		Select("id", "name", "stock", "expiry_date").
		From("medicines").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal MedicineDal
	var expiryDate pgtype.Date

	err = r.conn.QueryRow(ctx, sql, args...).Scan(&dal.Id, &dal.Name, &dal.Stock, &expiryDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, medicine.ErrMedicineNotFound
		}

		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}

	dal.ExpiryDate = expiryDate.Time

	return dal.ToModel(), nil
}

// List retrieves the whole catalog ordered by name.
func (r *PostgresMedicineRepository) List(ctx context.Context) ([]medicine.Medicine, error) {
	sql, args, err := r.sb.
		Select("id", "name", "stock", "expiry_date").
		From("medicines").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryMedicines(ctx, sql, args)
}

// ListExpiring retrieves medicines whose expiry date is not after the given moment.
func (r *PostgresMedicineRepository) ListExpiring(
	ctx context.Context,
	before time.Time,
) ([]medicine.Medicine, error) {
	sql, args, err := r.sb.
		Select("id", "name", "stock", "expiry_date").
		From("medicines").
		Where(sq.LtOrEq{"expiry_date": before}).
		OrderBy("expiry_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryMedicines(ctx, sql, args)
}

// DecrementStock atomically subtracts amount from the medicine stock.
// The update only applies while enough stock remains, so concurrent
// decrements can never drive the counter below zero.
func (r *PostgresMedicineRepository) DecrementStock(
	ctx context.Context,
	id int64,
	amount int64,
) error {
	sql, args, err := r.sb.
		Update("medicines").
		Set("stock", sq.Expr("stock - ?", amount)).
		Where(sq.Eq{"id": id}).
		Where(sq.Expr("stock >= ?", amount)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return medicine.ErrInsufficientStock
	}

	return nil
}

func (r *PostgresMedicineRepository) queryMedicines(
	ctx context.Context,
	sql string,
	args []interface{},
) ([]medicine.Medicine, error) {
	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query medicines: %w", err)
	}
	defer rows.Close()

	var result []medicine.Medicine
	for rows.Next() {
		var dal MedicineDal
		var expiryDate pgtype.Date

		err := rows.Scan(&dal.Id, &dal.Name, &dal.Stock, &expiryDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}

		dal.ExpiryDate = expiryDate.Time

		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
