package order

import (
	"errors"
	"time"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// Order represents a placed medicine order.
type Order struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"userId"`
	MedicineID int64     `json:"medicineId"`
	Quantity   int64     `json:"quantity"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}
