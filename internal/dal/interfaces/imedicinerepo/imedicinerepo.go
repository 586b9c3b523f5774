package imedicinerepo

import (
	"context"
	"time"

	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
)

// IMedicineRepository is an interface for the medicine postgres repository.
type IMedicineRepository interface {
	// Get returns a single medicine by id
	Get(ctx context.Context, id int64) (*medicine.Medicine, error)

	// List returns the whole catalog ordered by name
	List(ctx context.Context) ([]medicine.Medicine, error)

	// ListExpiring returns medicines whose expiry date is not after the given moment
	ListExpiring(ctx context.Context, before time.Time) ([]medicine.Medicine, error)

	// DecrementStock atomically subtracts amount from the stock counter
	DecrementStock(ctx context.Context, id int64, amount int64) error
}
