package iorderrepo

import (
	"context"

	"github.com/sabry-awad97/telepharma/internal/service/models/order"
)

// IOrderRepository is an interface for the order postgres repository.
type IOrderRepository interface {
	// Insert persists a new order and returns it with the generated id
	Insert(ctx context.Context, o *order.Order) (*order.Order, error)

	// Get returns a single order by id
	Get(ctx context.Context, id int64) (*order.Order, error)

	// UpdateStatus moves an order from one status to another
	UpdateStatus(ctx context.Context, id int64, from, to order.Status) error
}
